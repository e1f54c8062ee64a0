package users

import (
	"context"

	"github.com/projectdesk/projectdesk/internal/backend"
)

// Repository reads and writes users through the backend API.
type Repository struct {
	client *backend.Client
}

// NewRepository constructs a repository.
func NewRepository(client *backend.Client) *Repository {
	return &Repository{client: client}
}

// ListUsers returns all users.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.client.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]User, len(rows))
	for i, row := range rows {
		users[i] = toDomainUser(row)
	}
	return users, nil
}

// CreateUser registers a user.
func (r *Repository) CreateUser(ctx context.Context, createdBy int64, in UserInput) error {
	payload := toBackendInput(in)
	payload.CreatedBy = createdBy
	return r.client.RegisterUser(ctx, payload)
}

// UpdateUser edits a user.
func (r *Repository) UpdateUser(ctx context.Context, id int64, in UserInput) error {
	return r.client.UpdateUser(ctx, id, toBackendInput(in))
}

func toDomainUser(row backend.User) User {
	return User{
		ID:           row.ID,
		FirstName:    row.FirstName,
		LastName:     row.LastName,
		Email:        row.Email,
		MobileNumber: row.MobileNumber,
		Role:         row.UserRole,
		RoleID:       row.RoleID,
		Status:       row.Status,
		CreatedBy:    row.CreatedBy,
		CreatedAt:    row.CreatedAt.Time,
	}
}

func toBackendInput(in UserInput) backend.UserInput {
	return backend.UserInput{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		Password:     in.Password,
		MobileNumber: in.MobileNumber,
		UserRole:     in.Role,
		RoleID:       in.RoleID,
		Status:       in.Status,
	}
}
