package backend

import (
	"context"
	"encoding/json"
	"net/http"
)

// Role is the backend representation of a role. Permissions are kept raw
// because stored roles carry either an object or a JSON encoded string.
type Role struct {
	ID                     int64           `json:"id"`
	Title                  string          `json:"title"`
	Description            string          `json:"desc"`
	DefaultPermissionLevel Number          `json:"defaultPermissionLevel"`
	CreatedBy              int64           `json:"createdBy"`
	Permissions            json.RawMessage `json:"permissions"`
}

// RoleInput is the payload for creating or updating a role.
type RoleInput struct {
	Title                  string `json:"title"`
	Description            string `json:"desc"`
	DefaultPermissionLevel int    `json:"defaultPermissionLevel,omitempty"`
	CreatedBy              int64  `json:"createdBy,omitempty"`
	Permissions            any    `json:"permissions"`
}

// ListRoles returns every role known to the backend.
func (c *Client) ListRoles(ctx context.Context) ([]Role, error) {
	var out struct {
		Data []Role `json:"data"`
	}
	if err := c.getJSON(ctx, "/roles", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// CreateRole creates a role.
func (c *Client) CreateRole(ctx context.Context, in RoleInput) error {
	return c.sendJSON(ctx, http.MethodPost, "/roles", in, nil)
}

// UpdateRole replaces a role's title, description and permissions.
func (c *Client) UpdateRole(ctx context.Context, id int64, in RoleInput) error {
	return c.sendJSON(ctx, http.MethodPut, idPath("/roles/%d", id), in, nil)
}
