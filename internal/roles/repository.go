package roles

import (
	"context"

	"github.com/projectdesk/projectdesk/internal/backend"
	"github.com/projectdesk/projectdesk/internal/rbac"
)

// Repository reads and writes roles through the backend API.
type Repository struct {
	client *backend.Client
}

// NewRepository constructs a repository.
func NewRepository(client *backend.Client) *Repository {
	return &Repository{client: client}
}

// ListRoles returns all roles.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.client.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	roles := make([]Role, len(rows))
	for i, row := range rows {
		roles[i] = toDomainRole(row)
	}
	return roles, nil
}

// CreateRole inserts a new role.
func (r *Repository) CreateRole(ctx context.Context, createdBy int64, in RoleInput) error {
	return r.client.CreateRole(ctx, toBackendInput(createdBy, in))
}

// UpdateRole updates an existing role.
func (r *Repository) UpdateRole(ctx context.Context, id int64, in RoleInput) error {
	return r.client.UpdateRole(ctx, id, toBackendInput(0, in))
}

func toDomainRole(row backend.Role) Role {
	matrix, err := rbac.Normalize(row.Permissions)
	if err != nil {
		matrix = rbac.NewMatrix()
	}
	return Role{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Level:       int(row.DefaultPermissionLevel),
		CreatedBy:   row.CreatedBy,
		Matrix:      matrix,
	}
}

func toBackendInput(createdBy int64, in RoleInput) backend.RoleInput {
	return backend.RoleInput{
		Title:                  in.Title,
		Description:            in.Description,
		DefaultPermissionLevel: in.Level,
		CreatedBy:              createdBy,
		Permissions:            in.Matrix.Clone(),
	}
}
