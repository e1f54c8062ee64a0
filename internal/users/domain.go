package users

import "time"

// User represents a user account for management.
type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	MobileNumber string
	Role         string
	RoleID       int64
	Status       string
	CreatedBy    int64
	CreatedAt    time.Time
}

// FullName joins first and last name.
func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Account statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// UserInput carries the user form.
type UserInput struct {
	FirstName    string `validate:"required,letters"`
	LastName     string `validate:"required,letters"`
	Email        string `validate:"required,email"`
	MobileNumber string `validate:"required,mobile"`
	Password     string `validate:"omitempty,len=6,alphanum"`
	RoleID       int64  `validate:"required"`
	Role         string
	Status       string `validate:"oneof=active inactive"`
}
