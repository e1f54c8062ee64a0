package projects_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectdesk/projectdesk/internal/identity"
	"github.com/projectdesk/projectdesk/internal/projects"
	"github.com/projectdesk/projectdesk/internal/rbac"
	"github.com/projectdesk/projectdesk/internal/shared"
	"github.com/projectdesk/projectdesk/internal/view"
)

type fixture struct {
	router http.Handler
	repo   *stubRepo
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

func newFixture(t *testing.T, repo *stubRepo, matrix rbac.Matrix) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	sessions := shared.NewSessionManager(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test_session", "secret", time.Hour, false)
	sess, err := sessions.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	templates, err := view.NewEngine("")
	require.NoError(t, err)
	handler := projects.NewHandler(nil, projects.NewService(repo, teamRoles, nil), templates, shared.NewCSRFManager("csrf"), rbac.Middleware{})

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := shared.ContextWithSession(req.Context(), sess)
			ctx = identity.ContextWithPrincipal(ctx, identity.Principal{ID: 1, FirstName: "Asha", Role: "Super Admin", RoleID: 1})
			ctx = rbac.ContextWithResolution(ctx, rbac.Resolution{State: rbac.StateResolved, Matrix: matrix})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Route("/projects", handler.MountRoutes)
	return &fixture{router: r, repo: repo, sess: sess}
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func (f *fixture) post(path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func TestCreateWizardKeepsDraftInSession(t *testing.T) {
	repo := &stubRepo{
		createdID: 55,
		customers: []projects.Customer{{ID: 31, FullName: "Grand Hotel", Email: "ops@grand.example"}},
		members:   map[string][]projects.Member{"Designer": {{ID: 5, Name: "Meera Iyer"}}},
	}
	f := newFixture(t, repo, allowAll())

	rr := f.post("/projects/new", url.Values{"nav": {"next"}, "type": {"Commercial"}})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Project name is required")

	rr = f.post("/projects/new", url.Values{
		"nav":                 {"next"},
		"name":                {"Lobby Refit"},
		"type":                {"Hospitality"},
		"clientName":          {"Grand Hotel"},
		"startDate":           {"2025-04-01"},
		"estimatedCompletion": {"2025-06-30"},
	})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/projects/new", rr.Header().Get("Location"))
	assert.Equal(t, "2", f.sess.Get(identity.DraftStepKey))
	assert.Contains(t, f.sess.Get(identity.DraftFormKey), "Lobby Refit")

	rr = f.get("/projects/new")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Meera Iyer")

	step2 := url.Values{
		"teamRole":             {"Designer"},
		"team:Designer":        {"5"},
		"totalValue":           {"1000"},
		"advancePayment":       {"200"},
		"status":               {"Proposal"},
		"itemName":             {"Reception desk"},
		"quantity":             {"2"},
		"expectedDeliveryDate": {"2025-05-10"},
		"itemStatus":           {"Pending"},
	}
	step2.Set("nav", "next")
	rr = f.post("/projects/new", step2)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "3", f.sess.Get(identity.DraftStepKey))
	assert.Contains(t, f.sess.Get(identity.DraftLeadMatrixKey), "Reception desk")

	rr = f.post("/projects/new", url.Values{"nav": {"submit"}, "allowComments": {"on"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/projects/55", rr.Header().Get("Location"))

	require.Len(t, repo.created, 1)
	created := repo.created[0]
	assert.Equal(t, "Lobby Refit", created.Name)
	assert.Equal(t, int64(31), created.ClientID)
	assert.Equal(t, []projects.TeamAssignment{{Role: "Designer", Users: []int64{5}}}, created.Team)
	assert.InDelta(t, 200, created.AdvancePayment, 0.001)
	assert.True(t, created.AllowComments)
	assert.False(t, created.AllowClientView)
	require.Len(t, repo.newItems, 1)
	assert.Equal(t, "Reception desk", repo.newItems[0].Name)

	assert.Empty(t, f.sess.Get(identity.DraftStepKey))
	assert.Empty(t, f.sess.Get(identity.DraftFormKey))
	assert.Empty(t, f.sess.Get(identity.DraftLeadMatrixKey))
}

func TestWizardRejectsAdvanceAboveTotal(t *testing.T) {
	f := newFixture(t, &stubRepo{}, allowAll())
	require.NoError(t, projects.SaveDraft(f.sess, projects.Draft{Step: projects.StepTeam, Form: projects.NewProjectInput()}))

	rr := f.post("/projects/new", url.Values{"nav": {"next"}, "totalValue": {"500"}, "advancePayment": {"600"}, "status": {"Proposal"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Advance payment cannot exceed the total value")
	assert.Equal(t, "2", f.sess.Get(identity.DraftStepKey))
}

func TestWizardBackAndCancel(t *testing.T) {
	f := newFixture(t, &stubRepo{}, allowAll())
	require.NoError(t, projects.SaveDraft(f.sess, projects.Draft{Step: projects.StepFiles, Form: projects.NewProjectInput()}))

	rr := f.post("/projects/new", url.Values{"nav": {"back"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "2", f.sess.Get(identity.DraftStepKey))

	rr = f.post("/projects/new/cancel", url.Values{})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Empty(t, f.sess.Get(identity.DraftStepKey))
}

func TestArchiveRequiresDeletePermission(t *testing.T) {
	matrix := rbac.NewMatrix()
	matrix[rbac.ProjectManagement][rbac.ActionView] = true
	matrix[rbac.ProjectManagement][rbac.ActionEdit] = true
	repo := &stubRepo{projects: sampleProjects()}
	f := newFixture(t, repo, matrix)

	rr := f.post("/projects/1/archive", url.Values{})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Empty(t, repo.archived)

	f = newFixture(t, repo, allowAll())
	rr = f.post("/projects/1/archive", url.Values{})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/projects", rr.Header().Get("Location"))
	assert.Equal(t, []int64{1}, repo.archived)
}

func TestListHidesArchivedProjects(t *testing.T) {
	f := newFixture(t, &stubRepo{projects: sampleProjects()}, allowAll())

	rr := f.get("/projects/?q=rao")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Beach House")
	assert.NotContains(t, rr.Body.String(), "Old Villa")

	rr = f.get("/projects/archived")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Old Villa")
}

func TestDetailShowsItems(t *testing.T) {
	repo := &stubRepo{projects: sampleProjects(), items: []projects.Item{{ID: 3, Name: "Pendant lamp", Quantity: 4, Status: "In Transit"}}}
	f := newFixture(t, repo, allowAll())

	rr := f.get("/projects/1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Pendant lamp")

	rr = f.get("/projects/99")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func multipartBody(t *testing.T, fields url.Values, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for name, values := range fields {
		for _, v := range values {
			require.NoError(t, w.WriteField(name, v))
		}
	}
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func editFields() url.Values {
	return url.Values{
		"name":       {"Beach House"},
		"type":       {"Residential"},
		"clientName": {"Rao"},
		"status":     {"In Progress"},
		"totalValue": {"900"},
		"teamRole":   {"Designer"},
		"keepFile":   {"uploads/a.pdf"},
	}
}

func TestEditSendsRemovedFilesAndUploads(t *testing.T) {
	list := sampleProjects()
	list[0].Files = []string{"uploads/a.pdf", "uploads/b.png"}
	repo := &stubRepo{projects: list}
	f := newFixture(t, repo, allowAll())

	body, contentType := multipartBody(t, editFields(), map[string]string{"plan.pdf": "%PDF-1.4"})
	req := httptest.NewRequest(http.MethodPost, "/projects/1/edit", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusSeeOther, rr.Code)
	call := repo.updated[1]
	assert.Equal(t, []string{"uploads/a.pdf"}, call.kept)
	assert.Equal(t, []string{"uploads/b.png"}, call.removed)
	assert.Equal(t, map[string]string{"plan.pdf": "%PDF-1.4"}, call.files)
	assert.Equal(t, projects.StatusInProgress, call.in.Status)
	assert.Equal(t, []projects.TeamAssignment{{Role: "Designer", Users: []int64{}}}, call.in.Team)
}

func TestEditRejectsUnsupportedUpload(t *testing.T) {
	repo := &stubRepo{projects: sampleProjects()}
	f := newFixture(t, repo, allowAll())

	body, contentType := multipartBody(t, editFields(), map[string]string{"setup.exe": "MZ"})
	req := httptest.NewRequest(http.MethodPost, "/projects/1/edit", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Only JPG, PNG and PDF files can be uploaded")
	assert.Empty(t, repo.updated)
}

func TestStatusChangeFromList(t *testing.T) {
	repo := &stubRepo{projects: sampleProjects()}
	f := newFixture(t, repo, allowAll())

	rr := f.post("/projects/2/status", url.Values{"status": {"Completed"}, "return": {"/projects?sort=atoz"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/projects?sort=atoz", rr.Header().Get("Location"))
	assert.Equal(t, projects.StatusCompleted, repo.statuses[2])
}
