package rbac

import (
	"log/slog"
	"net/http"

	"github.com/projectdesk/projectdesk/internal/backend"
	"github.com/projectdesk/projectdesk/internal/identity"
)

// Middleware wires permission checks into HTTP handlers. The backend stays
// authoritative; these checks keep the console from offering actions the
// principal cannot perform.
type Middleware struct {
	Resolver *Resolver
	Logger   *slog.Logger
}

// Load resolves the principal's permissions once per request.
func (m Middleware) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := identity.PrincipalFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		res := m.Resolver.Resolve(r.Context(), principal.RoleID)
		if res.State == StateFailed && backend.IsUnauthorized(res.Err) {
			identity.ForceLogout(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithResolution(r.Context(), res)))
	})
}

// Require blocks the request with 403 unless the principal holds action on
// module.
func (m Middleware) Require(module Module, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := ResolutionFromContext(r.Context())
			if res.State == StatePending {
				principal, ok := identity.PrincipalFromContext(r.Context())
				if !ok {
					http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
					return
				}
				res = m.Resolver.Resolve(r.Context(), principal.RoleID)
			}
			if CanPerform(res.Matrix, module, action) {
				next.ServeHTTP(w, r.WithContext(ContextWithResolution(r.Context(), res)))
				return
			}
			if m.Logger != nil {
				m.Logger.Info("permission denied",
					slog.String("module", string(module)),
					slog.String("action", string(action)),
					slog.String("path", r.URL.Path),
				)
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// RequireAny passes when any of the listed grants holds.
func (m Middleware) RequireAny(grants ...Grant) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := ResolutionFromContext(r.Context())
			for _, g := range grants {
				if CanPerform(res.Matrix, g.Module, g.Action) {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// Grant names one matrix cell.
type Grant struct {
	Module Module
	Action Action
}
