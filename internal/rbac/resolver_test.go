package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectdesk/projectdesk/internal/backend"
	"github.com/projectdesk/projectdesk/internal/identity"
)

type stubSource struct {
	roles []backend.Role
	err   error
	calls int
}

func (s *stubSource) ListRoles(context.Context) ([]backend.Role, error) {
	s.calls++
	return s.roles, s.err
}

func designerRoles() []backend.Role {
	return []backend.Role{
		{ID: 1, Title: "Super Admin", Permissions: json.RawMessage(`{"Roles":{"view":true,"edit":true}}`)},
		{ID: 4, Title: "Designer", Permissions: json.RawMessage(`"{\"ProjectManagement\":{\"view\":true}}"`)},
	}
}

func TestResolvePicksRole(t *testing.T) {
	r := NewResolver(&stubSource{roles: designerRoles()}, nil)

	res := r.Resolve(context.Background(), 4)
	assert.Equal(t, StateResolved, res.State)
	assert.Equal(t, int64(4), res.RoleID)
	assert.NoError(t, res.Err)
	assert.True(t, CanPerform(res.Matrix, ProjectManagement, ActionView))
	assert.False(t, CanPerform(res.Matrix, Roles, ActionView))
}

func TestResolveFailures(t *testing.T) {
	r := NewResolver(&stubSource{roles: designerRoles()}, nil)
	res := r.Resolve(context.Background(), 42)
	assert.Equal(t, StateFailed, res.State)
	assert.ErrorIs(t, res.Err, ErrRoleNotFound)
	assert.Equal(t, NewMatrix(), res.Matrix)

	source := &stubSource{err: errors.New("connection refused")}
	r = NewResolver(source, nil)
	res = r.Resolve(context.Background(), 1)
	assert.Equal(t, StateFailed, res.State)
	assert.Error(t, res.Err)
	assert.Equal(t, 1, source.calls)
}

func TestPendingResolutionIsPermissive(t *testing.T) {
	var res Resolution
	assert.Equal(t, "pending", res.State.String())
	assert.True(t, res.Allowed(Roles, ActionDelete))

	res = Resolution{State: StateResolved, Matrix: NewMatrix()}
	assert.False(t, res.Allowed(Roles, ActionDelete))
}

func withPrincipal(roleID int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := identity.ContextWithPrincipal(r.Context(), identity.Principal{ID: 7, RoleID: roleID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func TestMiddlewareLoadAndRequire(t *testing.T) {
	mw := Middleware{Resolver: NewResolver(&stubSource{roles: designerRoles()}, nil)}
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	allowed := withPrincipal(4, mw.Load(mw.Require(ProjectManagement, ActionView)(ok)))
	rr := httptest.NewRecorder()
	allowed.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/projects", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	denied := withPrincipal(4, mw.Load(mw.Require(Roles, ActionView)(ok)))
	rr = httptest.NewRecorder()
	denied.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/roles", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	mw.Require(Roles, ActionView)(ok).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/roles", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequireResolvesWhenPending(t *testing.T) {
	source := &stubSource{roles: designerRoles()}
	mw := Middleware{Resolver: NewResolver(source, nil)}
	var seen Resolution
	h := withPrincipal(1, mw.Require(Roles, ActionEdit)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ResolutionFromContext(r.Context())
	})))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/roles/1/edit", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, StateResolved, seen.State)
	assert.Equal(t, 1, source.calls)
}

func TestRequireAny(t *testing.T) {
	m := NewMatrix()
	m[Customer][ActionView] = true
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {})
	h := Middleware{}.RequireAny(Grant{Roles, ActionView}, Grant{Customer, ActionView})(ok)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(ContextWithResolution(req.Context(), Resolution{State: StateResolved, Matrix: m}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestPermissionsHandler(t *testing.T) {
	m := NewMatrix()
	m[Roles][ActionView] = true
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(ContextWithResolution(req.Context(), Resolution{State: StateResolved, RoleID: 3, Matrix: m}))
	rr := httptest.NewRecorder()
	NewPermissionsHandler().show(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		State       string                     `json:"state"`
		RoleID      int64                      `json:"roleId"`
		Permissions map[string]map[string]bool `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "resolved", body.State)
	assert.Equal(t, int64(3), body.RoleID)
	assert.True(t, body.Permissions["Roles"]["view"])
	assert.False(t, body.Permissions["Roles"]["edit"])
}
