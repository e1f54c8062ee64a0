package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/projectdesk/projectdesk/internal/backend"
)

// ErrRoleNotFound is returned when the principal's role id is not listed.
var ErrRoleNotFound = errors.New("rbac: role not found")

// State tracks how far permission resolution got.
type State int

// Resolution states.
const (
	StatePending State = iota
	StateResolved
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Resolution is the outcome of resolving a role's permissions. The zero
// value is pending.
type Resolution struct {
	State  State
	RoleID int64
	Matrix Matrix
	Err    error
}

// Allowed is the navigation check: while pending every affordance is shown,
// afterwards the stored cell decides.
func (r Resolution) Allowed(module Module, action Action) bool {
	if r.State == StatePending {
		return true
	}
	return CanPerform(r.Matrix, module, action)
}

// RoleSource lists roles with their stored permissions.
type RoleSource interface {
	ListRoles(ctx context.Context) ([]backend.Role, error)
}

// Resolver turns a role id into a permission matrix.
type Resolver struct {
	source RoleSource
	logger *slog.Logger
}

// NewResolver builds a Resolver.
func NewResolver(source RoleSource, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{source: source, logger: logger}
}

// Resolve fetches the roles, picks roleID and normalizes its permissions.
// Failures yield an all-deny matrix with StateFailed; there is no retry.
func (r *Resolver) Resolve(ctx context.Context, roleID int64) Resolution {
	roles, err := r.source.ListRoles(ctx)
	if err != nil {
		return r.failed(roleID, fmt.Errorf("rbac: list roles: %w", err))
	}
	for _, role := range roles {
		if role.ID != roleID {
			continue
		}
		matrix, err := Normalize(role.Permissions)
		if err != nil {
			return r.failed(roleID, err)
		}
		return Resolution{State: StateResolved, RoleID: roleID, Matrix: matrix}
	}
	return r.failed(roleID, fmt.Errorf("%w: %d", ErrRoleNotFound, roleID))
}

func (r *Resolver) failed(roleID int64, err error) Resolution {
	r.logger.Warn("resolve permissions", slog.Int64("role_id", roleID), slog.Any("error", err))
	return Resolution{State: StateFailed, RoleID: roleID, Matrix: NewMatrix(), Err: err}
}
