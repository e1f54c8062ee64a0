package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectdesk/projectdesk/internal/auth"
	"github.com/projectdesk/projectdesk/internal/backend"
	"github.com/projectdesk/projectdesk/internal/identity"
	"github.com/projectdesk/projectdesk/internal/shared"
	"github.com/projectdesk/projectdesk/internal/view"
	_ "github.com/projectdesk/projectdesk/testing"
)

type fixture struct {
	router    http.Handler
	sessions  *shared.SessionManager
	store     *identity.Store
	scheduler *identity.TimerScheduler
	sess      *shared.Session
	calls     *atomic.Int32
	forgot    *atomic.Value
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": 12, "exp": exp.Unix()})
	signed, err := token.SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return signed
}

func newFixture(t *testing.T, loginStatus int) *fixture {
	t.Helper()
	token := signedToken(t, time.Now().Add(time.Hour))
	calls := &atomic.Int32{}
	forgot := &atomic.Value{}
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/login":
			calls.Add(1)
			if loginStatus != http.StatusOK {
				w.WriteHeader(loginStatus)
				_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"token": token,
				"user":  map[string]any{"id": 12, "firstName": "Meera", "userRole": "Designer", "roleId": 4},
			})
		case "/auth/forgot-password":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			forgot.Store(body["email"])
			_, _ = w.Write([]byte(`{"message":"sent"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(api.Close)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	sealer, err := shared.NewSealer("secret")
	require.NoError(t, err)
	store := identity.NewStore(sealer)
	scheduler := identity.NewTimerScheduler(func(context.Context, string) error { return nil }, nil)
	guard := identity.NewGuard(store, identity.NewMonitor(scheduler, nil), sessions, nil)
	templates, err := view.NewEngine("")
	require.NoError(t, err)

	service := auth.NewService(backend.NewClient(api.URL, time.Second))
	handler := auth.NewHandler(nil, service, guard, templates, shared.NewCSRFManager("csrfsecret"), 0)

	f := &fixture{sessions: sessions, store: store, scheduler: scheduler, calls: calls, forgot: forgot}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if f.sess == nil {
				sess, err := sessions.Load(req.Context(), req)
				require.NoError(t, err)
				f.sess = sess
			}
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), f.sess)))
		})
	})
	r.Route("/auth", handler.MountRoutes)
	f.router = r
	t.Cleanup(func() {
		if f.sess != nil {
			_ = scheduler.Cancel(context.Background(), f.sess.ID)
		}
	})
	return f
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

func TestLoginPage(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	rr := f.get("/auth/login")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "<form")
	assert.NotEmpty(t, f.sess.Get(shared.CSRFSessionKey))

	rr = f.get("/auth/login?expired=1")
	assert.Contains(t, rr.Body.String(), "Your session has expired")
}

func TestLoginValidationSkipsBackend(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	rr := f.post("/auth/login", url.Values{"email": {"meera@example.com"}, "password": {"abc"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Password must be at least 6 characters")

	rr = f.post("/auth/login", url.Values{"email": {"meera"}, "password": {"abcdef"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Enter a valid email address")
	assert.Zero(t, f.calls.Load())
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t, http.StatusUnauthorized)

	rr := f.post("/auth/login", url.Values{"email": {"meera@example.com"}, "password": {"wrongpass"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid email or password")
	assert.Equal(t, int32(1), f.calls.Load())
	_, err := f.store.Load(f.sess)
	assert.ErrorIs(t, err, identity.ErrNoPrincipal)
}

func TestLoginStoresPrincipalAndArmsExpiry(t *testing.T) {
	f := newFixture(t, http.StatusOK)
	f.get("/auth/login")
	firstID := f.sess.ID

	rr := f.post("/auth/login", url.Values{"email": {"meera@example.com"}, "password": {"secret1"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	p, err := f.store.Load(f.sess)
	require.NoError(t, err)
	assert.Equal(t, int64(12), p.ID)
	assert.Equal(t, "Designer", p.Role)
	assert.Equal(t, int64(4), p.RoleID)
	assert.NotEqual(t, firstID, f.sess.ID, "session id rotates on login")
	assert.Equal(t, 1, f.scheduler.Pending())
}

func TestLogoutClearsPrincipal(t *testing.T) {
	f := newFixture(t, http.StatusOK)
	f.post("/auth/login", url.Values{"email": {"meera@example.com"}, "password": {"secret1"}})
	f.sess.Set(identity.DraftStepKey, "2")

	rr := f.post("/auth/logout", url.Values{})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, identity.LoginPath, rr.Header().Get("Location"))
	assert.True(t, f.sess.Destroyed())
	assert.Empty(t, f.sess.Get(identity.DraftStepKey))
	assert.Zero(t, f.scheduler.Pending())
}

func TestForgotPassword(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	rr := f.post("/auth/forgot-password", url.Values{"email": {"not-an-email"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Nil(t, f.forgot.Load())

	rr = f.post("/auth/forgot-password", url.Values{"email": {"meera@example.com"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "meera@example.com", f.forgot.Load())
}
