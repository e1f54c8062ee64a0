package roles

import "github.com/projectdesk/projectdesk/internal/rbac"

// Role represents a role for management.
type Role struct {
	ID          int64
	Title       string
	Description string
	Level       int
	CreatedBy   int64
	Matrix      rbac.Matrix
}

// RoleInput carries the editable fields of a role.
type RoleInput struct {
	Title       string `validate:"required,max=100"`
	Description string `validate:"max=500"`
	Level       int    `validate:"min=1,max=6"`
	Matrix      rbac.Matrix
}

// DefaultLevel is assigned to roles created without an explicit level.
const DefaultLevel = 6

// SuperAdminTitle names the top level role.
const SuperAdminTitle = "Super Admin"

// levels for built-in role names, used when the principal's role record
// carries no level.
var levelByTitle = map[string]int{
	SuperAdminTitle:   1,
	"Account Manager": 2,
	"Sr. Designer":    3,
	"Designer":        4,
	"Intern":          5,
}
