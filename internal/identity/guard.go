package identity

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/projectdesk/projectdesk/internal/backend"
	"github.com/projectdesk/projectdesk/internal/shared"
)

// LoginPath is where unauthenticated requests are sent.
const LoginPath = "/auth/login"

// Guard binds principals to sessions: it signs them in and out and protects
// routes that need one.
type Guard struct {
	store    *Store
	monitor  *Monitor
	sessions *shared.SessionManager
	logger   *slog.Logger
	now      func() time.Time
}

// NewGuard builds a Guard.
func NewGuard(store *Store, monitor *Monitor, sessions *shared.SessionManager, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{store: store, monitor: monitor, sessions: sessions, logger: logger, now: time.Now}
}

// SignIn stores p in a renewed session and arms its expiry. A token that
// cannot be decoded or is already expired signs the session out again and
// returns ErrTokenInvalid.
func (g *Guard) SignIn(ctx context.Context, sess *shared.Session, p Principal) error {
	g.sessions.Renew(sess)
	if err := g.store.Save(sess, p); err != nil {
		return err
	}
	if err := g.monitor.Arm(ctx, sess.ID, p.Token); err != nil {
		g.SignOut(ctx, sess)
		return err
	}
	return nil
}

// SignOut clears the principal, cancels the expiry and destroys the session.
func (g *Guard) SignOut(ctx context.Context, sess *shared.Session) {
	if sess == nil {
		return
	}
	g.store.Clear(sess)
	g.monitor.Disarm(ctx, sess.ID)
	g.sessions.Destroy(sess)
}

// Middleware redirects to the login page unless the session holds a
// principal with an unexpired token. It exposes the principal and its token
// to downstream handlers and backend calls.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess := shared.SessionFromContext(ctx)
		p, err := g.store.Load(sess)
		if err != nil {
			if !errors.Is(err, ErrNoPrincipal) {
				g.logger.Warn("load principal", slog.Any("error", err))
				g.SignOut(ctx, sess)
			}
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}
		exp, err := DecodeExpiry(p.Token)
		if err != nil || !g.now().Before(exp) {
			g.logger.Info("session expired", slog.Int64("user_id", p.ID))
			g.SignOut(ctx, sess)
			http.Redirect(w, r, LoginPath+"?expired=1", http.StatusSeeOther)
			return
		}
		ctx = ContextWithPrincipal(ctx, p)
		ctx = backend.ContextWithToken(ctx, p.Token)
		ctx = context.WithValue(ctx, guardContextKey{}, g)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type guardContextKey struct{}

// ForceLogout ends the session after the backend rejected the principal's
// token and redirects to the login page.
func ForceLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if g, ok := ctx.Value(guardContextKey{}).(*Guard); ok {
		g.SignOut(ctx, shared.SessionFromContext(ctx))
	}
	http.Redirect(w, r, LoginPath+"?expired=1", http.StatusSeeOther)
}

// ExpireSession returns the ExpireFunc used by schedulers: it deletes the
// stored session so the next request lands on the login page.
func ExpireSession(sessions *shared.SessionManager) ExpireFunc {
	return func(ctx context.Context, key string) error {
		return sessions.DestroyID(ctx, key)
	}
}
