// Package identity holds the authenticated principal for a console session
// and enforces its lifetime.
package identity

import (
	"context"
	"strings"
)

// Principal is the authenticated staff member.
type Principal struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	Role      string `json:"role"`
	RoleID    int64  `json:"roleId"`
	Token     string `json:"-"`
}

// IsAdmin reports whether the principal sees every project.
func (p Principal) IsAdmin() bool {
	switch strings.TrimSpace(p.Role) {
	case "Super Admin", "Admin":
		return true
	}
	return false
}

type principalContextKey struct{}

// ContextWithPrincipal attaches the principal to ctx.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext returns the principal set by the guard.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
