package dashboard

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/projectdesk/projectdesk/internal/backend"
	"github.com/projectdesk/projectdesk/internal/identity"
	"github.com/projectdesk/projectdesk/internal/platform/httpx"
	"github.com/projectdesk/projectdesk/internal/rbac"
	"github.com/projectdesk/projectdesk/internal/shared"
	"github.com/projectdesk/projectdesk/internal/users"
	"github.com/projectdesk/projectdesk/internal/view"
	"github.com/projectdesk/projectdesk/internal/view/chart"
)

// Handler serves the landing dashboard, the profile and the settings page.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	templates  *view.Engine
	csrf       *shared.CSRFManager
	sessionTTL time.Duration
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, sessionTTL time.Duration) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, sessionTTL: sessionTTL}
}

// MountRoutes registers the pages on an authenticated router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showDashboard)
	r.Get("/profile", h.showProfile)
	r.Get("/settings", h.showSettings)
}

type dashboardPage struct {
	Overview *Overview
	Chart    template.HTML
	Error    string
}

type profilePage struct {
	User  users.User
	Error string
}

type settingsPage struct {
	TokenExpiry time.Time
	SessionTTL  time.Duration
	Access      rbac.Resolution
}

func (h *Handler) showDashboard(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())
	page := dashboardPage{}
	if rbac.ResolutionFromContext(r.Context()).Allowed(rbac.ProjectManagement, rbac.ActionView) {
		overview, err := h.service.Overview(r.Context(), principal)
		if err != nil {
			if backend.IsUnauthorized(err) {
				identity.ForceLogout(w, r)
				return
			}
			h.logger.Error("load dashboard failed", slog.Any("error", err))
			page.Error = shared.UserSafeMessage(err)
		}
		page.Overview = &overview
		page.Chart = h.statusChart(overview)
	}
	h.render(w, r, "pages/dashboard.html", "Dashboard", page, http.StatusOK)
}

func (h *Handler) statusChart(o Overview) template.HTML {
	if o.Total == 0 {
		return ""
	}
	groups := make([]chart.Group, 0, len(o.ByStatus))
	for _, c := range o.ByStatus {
		groups = append(groups, chart.Group{Label: c.Status, Primary: c.Value, Secondary: c.Advance})
	}
	svg, err := chart.Bars(groups, chart.Options{Title: "Project value by status", PrimaryLabel: "Total value", SecondaryLabel: "Advance"})
	if err != nil {
		h.logger.Warn("render status chart", slog.Any("error", err))
		return ""
	}
	return svg
}

func (h *Handler) showProfile(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())
	page := profilePage{User: users.User{ID: principal.ID, FirstName: principal.FirstName, Role: principal.Role, RoleID: principal.RoleID}}
	user, err := h.service.Profile(r.Context(), principal)
	switch {
	case err == nil:
		page.User = user
	case backend.IsUnauthorized(err):
		identity.ForceLogout(w, r)
		return
	case errors.Is(err, httpx.ErrNotFound), errors.Is(err, httpx.ErrForbidden):
		// Accounts without user management rights cannot read the user list.
	default:
		h.logger.Warn("load profile", slog.Any("error", err))
		page.Error = shared.UserSafeMessage(err)
	}
	h.render(w, r, "pages/profile.html", "Profile", page, http.StatusOK)
}

func (h *Handler) showSettings(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())
	page := settingsPage{SessionTTL: h.sessionTTL, Access: rbac.ResolutionFromContext(r.Context())}
	if exp, err := identity.DecodeExpiry(principal.Token); err == nil {
		page.TokenExpiry = exp
	}
	h.render(w, r, "pages/settings.html", "Settings", page, http.StatusOK)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template, title string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	viewData := view.Page(r, title, data)
	viewData.CSRFToken = csrfToken
	if sess != nil {
		viewData.Flash = sess.PopFlash()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}
