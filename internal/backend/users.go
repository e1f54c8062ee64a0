package backend

import (
	"context"
	"net/http"
)

// User is a staff account.
type User struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	MobileNumber string    `json:"mobileNumber"`
	UserRole     string    `json:"userRole"`
	RoleID       int64     `json:"roleId"`
	Status       string    `json:"status"`
	CreatedBy    int64     `json:"createdBy"`
	CreatedAt    Timestamp `json:"createdAt"`
}

// UserInput is the payload for registering or editing a user. Password is
// omitted on edits that leave it blank.
type UserInput struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Password     string `json:"password,omitempty"`
	MobileNumber string `json:"mobileNumber"`
	UserRole     string `json:"userRole"`
	RoleID       int64  `json:"roleId,omitempty"`
	Status       string `json:"status"`
	CreatedBy    int64  `json:"createdBy,omitempty"`
}

// ListUsers returns every user.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	if err := c.getJSON(ctx, "/auth/getAllUsers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UsersByRole returns the users holding the named role.
func (c *Client) UsersByRole(ctx context.Context, role string) ([]User, error) {
	var out struct {
		Users []User `json:"users"`
	}
	if err := c.getJSON(ctx, "/auth/users-by-role/"+escape(role), nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// RegisterUser creates a user.
func (c *Client) RegisterUser(ctx context.Context, in UserInput) error {
	return c.sendJSON(ctx, http.MethodPost, "/auth/register", in, nil)
}

// UpdateUser edits a user.
func (c *Client) UpdateUser(ctx context.Context, id int64, in UserInput) error {
	return c.sendJSON(ctx, http.MethodPut, idPath("/auth/users/%d", id), in, nil)
}
