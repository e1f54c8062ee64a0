package customers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectdesk/projectdesk/internal/backend"
	"github.com/projectdesk/projectdesk/internal/customers"
	"github.com/projectdesk/projectdesk/internal/identity"
	"github.com/projectdesk/projectdesk/internal/rbac"
	"github.com/projectdesk/projectdesk/internal/shared"
	"github.com/projectdesk/projectdesk/internal/view"
	_ "github.com/projectdesk/projectdesk/testing"
)

var fixtures = map[string]string{
	"/customers": `[
		{"id":31,"full_name":"Grand Hotel","email":"ops@grand.example","phone":"9876543210"},
		{"id":32,"full_name":"Asha Rao","email":"asha@example.com","phone":"9123456780"}
	]`,
	"/customers/31/documents": `[{"id":8,"customerId":31,"documentType":"Floor plan","filePath":"uploads/grand-floor.pdf","createdAt":"2025-03-01T10:00:00Z"}]`,
	"/customers/32/documents": `[]`,
	"/projects": `[
		{"id":1,"name":"Lobby Refit","clientName":"grand hotel","status":"In Progress","totalValue":"1000","assignedTeamRoles":"[{\"role\":\"Designer\",\"users\":[5]},{\"role\":\"Intern\",\"users\":[77]}]"},
		{"id":2,"name":"Beach House","clientName":"Asha Rao","status":"Proposal","totalValue":500},
		{"id":3,"name":"Old Wing","clientName":"Grand Hotel","status":"Completed","isArchived":true}
	]`,
	"/auth/getAllUsers": `[{"id":5,"firstName":"Meera","lastName":"Iyer"}]`,
}

func newRouter(t *testing.T, matrix rbac.Matrix) http.Handler {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := fixtures[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	sessions := shared.NewSessionManager(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test_session", "secret", time.Hour, false)
	sess, err := sessions.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	templates, err := view.NewEngine("")
	require.NoError(t, err)

	service := customers.NewService(customers.NewRepository(backend.NewClient(srv.URL, time.Second)))
	handler := customers.NewHandler(nil, service, templates, shared.NewCSRFManager("csrf"), rbac.Middleware{})
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := shared.ContextWithSession(req.Context(), sess)
			ctx = identity.ContextWithPrincipal(ctx, identity.Principal{ID: 1, FirstName: "Asha", Role: "Super Admin", RoleID: 1})
			ctx = rbac.ContextWithResolution(ctx, rbac.Resolution{State: rbac.StateResolved, Matrix: matrix})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Route("/customers", handler.MountRoutes)
	return r
}

func viewCustomers() rbac.Matrix {
	m := rbac.NewMatrix()
	m[rbac.Customer][rbac.ActionView] = true
	return m
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestListCustomersSearch(t *testing.T) {
	router := newRouter(t, viewCustomers())

	rr := get(router, "/customers/?q=grand")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Grand Hotel")
	assert.NotContains(t, rr.Body.String(), "Asha Rao")
}

func TestCustomerDetail(t *testing.T) {
	router := newRouter(t, viewCustomers())

	rr := get(router, "/customers/31")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Floor plan")
	assert.Contains(t, body, "Lobby Refit")
	assert.Contains(t, body, "Meera Iyer")
	assert.NotContains(t, body, "Old Wing")
	assert.NotContains(t, body, "Beach House")
	assert.NotContains(t, body, "Intern")
}

func TestCustomerDetailNotFound(t *testing.T) {
	router := newRouter(t, viewCustomers())
	assert.Equal(t, http.StatusNotFound, get(router, "/customers/99").Code)
}

func TestCustomersRequireViewPermission(t *testing.T) {
	router := newRouter(t, rbac.NewMatrix())
	assert.Equal(t, http.StatusForbidden, get(router, "/customers/").Code)
}
