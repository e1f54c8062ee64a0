package invoices_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectdesk/projectdesk/internal/backend"
	"github.com/projectdesk/projectdesk/internal/identity"
	"github.com/projectdesk/projectdesk/internal/invoices"
	"github.com/projectdesk/projectdesk/internal/rbac"
	"github.com/projectdesk/projectdesk/internal/shared"
	"github.com/projectdesk/projectdesk/internal/view"
	_ "github.com/projectdesk/projectdesk/testing"
)

type recorded struct {
	method string
	path   string
	form   url.Values
	file   string
}

type fakeBackend struct {
	mu       sync.Mutex
	invoices []map[string]any
	calls    []recorded
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/projects/7":
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 7, "name": "Lobby Refit", "totalValue": "1000", "advancePayment": 200})
		return
	case r.Method == http.MethodGet && r.URL.Path == "/projects/7/invoice":
		b.mu.Lock()
		defer b.mu.Unlock()
		_ = json.NewEncoder(w).Encode(b.invoices)
		return
	case r.Method == http.MethodGet:
		http.NotFound(w, r)
		return
	}
	call := recorded{method: r.Method, path: r.URL.Path}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			call.form = r.MultipartForm.Value
			if files := r.MultipartForm.File["invoice"]; len(files) > 0 {
				call.file = files[0].Filename
			}
		}
	}
	b.mu.Lock()
	b.calls = append(b.calls, call)
	b.mu.Unlock()
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write([]byte(`{}`))
}

func (b *fakeBackend) writes() []recorded {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]recorded(nil), b.calls...)
}

type fixture struct {
	router http.Handler
	fake   *fakeBackend
	sess   *shared.Session
}

func allowAll() rbac.Matrix {
	m := rbac.NewMatrix()
	for _, module := range rbac.AllModules {
		for _, action := range rbac.AllActions {
			m[module][action] = true
		}
	}
	return m
}

func newFixture(t *testing.T, existing []map[string]any, matrix rbac.Matrix) *fixture {
	t.Helper()
	fake := &fakeBackend{invoices: existing}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	sessions := shared.NewSessionManager(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test_session", "secret", time.Hour, false)
	sess, err := sessions.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	templates, err := view.NewEngine("")
	require.NoError(t, err)
	service := invoices.NewService(invoices.NewRepository(backend.NewClient(srv.URL, time.Second)), nil)
	handler := invoices.NewHandler(nil, service, templates, shared.NewCSRFManager("csrf"), rbac.Middleware{})

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := shared.ContextWithSession(req.Context(), sess)
			ctx = identity.ContextWithPrincipal(ctx, identity.Principal{ID: 1, FirstName: "Asha", Role: "Super Admin", RoleID: 1})
			ctx = rbac.ContextWithResolution(ctx, rbac.Resolution{State: rbac.StateResolved, Matrix: matrix})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Route("/projects/{id}/invoices", handler.MountRoutes)
	return &fixture{router: r, fake: fake, sess: sess}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func (f *fixture) post(path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return f.do(req)
}

func TestCreateInvoiceOverLimitSendsNothing(t *testing.T) {
	existing := []map[string]any{{"id": 1, "projectId": 7, "totalAmount": 900, "advancePaid": 0, "status": "Pending"}}
	f := newFixture(t, existing, allowAll())

	rr := f.post("/projects/7/invoices/", url.Values{"totalAmount": {"50"}, "advancePaid": {"0"}, "status": {"Pending"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/projects/7/invoices", rr.Header().Get("Location"))
	assert.Empty(t, f.fake.writes())

	flash := f.sess.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, shared.FlashWarning, flash.Kind)
	assert.Equal(t, invoices.LimitMessage, flash.Message)
}

func TestCreateInvoiceForwardsMultipart(t *testing.T) {
	existing := []map[string]any{{"id": 1, "projectId": 7, "totalAmount": 300, "advancePaid": 0, "status": "Paid"}}
	f := newFixture(t, existing, allowAll())

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("totalAmount", "250"))
	require.NoError(t, mw.WriteField("advancePaid", "100"))
	require.NoError(t, mw.WriteField("status", "Partly Paid"))
	part, err := mw.CreateFormFile("invoice", "inv-2.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/projects/7/invoices/", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rr := f.do(req)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	writes := f.fake.writes()
	require.Len(t, writes, 1)
	assert.Equal(t, http.MethodPost, writes[0].method)
	assert.Equal(t, "/projects/7/invoice", writes[0].path)
	assert.Equal(t, []string{"250"}, writes[0].form["totalAmount"])
	assert.Equal(t, []string{"100"}, writes[0].form["advancePaid"])
	assert.Equal(t, []string{"Partly Paid"}, writes[0].form["status"])
	assert.Equal(t, "inv-2.pdf", writes[0].file)

	flash := f.sess.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, shared.FlashSuccess, flash.Kind)
}

func TestCreateInvoiceValidation(t *testing.T) {
	f := newFixture(t, nil, allowAll())

	rr := f.post("/projects/7/invoices/", url.Values{"totalAmount": {"0"}, "status": {"Pending"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Total amount must be greater than zero")

	rr = f.post("/projects/7/invoices/", url.Values{"totalAmount": {"10"}, "status": {"Overdue"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Choose a valid status")
	assert.Empty(t, f.fake.writes())
}

func TestInvoicePageShowsBalance(t *testing.T) {
	existing := []map[string]any{
		{"id": 1, "projectId": 7, "totalAmount": 300, "advancePaid": 0, "status": "Paid"},
		{"id": 2, "projectId": 7, "totalAmount": 250, "advancePaid": 100, "status": "Partly Paid"},
	}
	f := newFixture(t, existing, allowAll())

	rr := f.do(httptest.NewRequest(http.MethodGet, "/projects/7/invoices/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Lobby Refit")
	assert.Contains(t, rr.Body.String(), "Balance Due")
	assert.NotContains(t, rr.Body.String(), "Overpaid")
}

func TestInvoiceWritesNeedPermission(t *testing.T) {
	matrix := rbac.NewMatrix()
	matrix[rbac.InvoicingAndPayment][rbac.ActionView] = true
	f := newFixture(t, nil, matrix)

	rr := f.post("/projects/7/invoices/", url.Values{"totalAmount": {"10"}, "status": {"Pending"}})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	rr = f.post("/projects/7/invoices/1/delete", url.Values{})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Empty(t, f.fake.writes())
}

func TestUpdateAndDeleteInvoice(t *testing.T) {
	existing := []map[string]any{{"id": 3, "projectId": 7, "totalAmount": 300, "advancePaid": 0, "status": "Pending"}}
	f := newFixture(t, existing, allowAll())

	rr := f.post("/projects/7/invoices/3", url.Values{"totalAmount": {"300"}, "advancePaid": {"0"}, "status": {"Paid"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	rr = f.post("/projects/7/invoices/3/delete", url.Values{})
	require.Equal(t, http.StatusSeeOther, rr.Code)

	writes := f.fake.writes()
	require.Len(t, writes, 2)
	assert.Equal(t, http.MethodPut, writes[0].method)
	assert.Equal(t, "/projects/7/invoice/3", writes[0].path)
	assert.Equal(t, []string{"Paid"}, writes[0].form["status"])
	assert.Equal(t, http.MethodDelete, writes[1].method)
	assert.Equal(t, "/projects/7/invoice/3", writes[1].path)
}
