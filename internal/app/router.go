package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/projectdesk/projectdesk/internal/auth"
	"github.com/projectdesk/projectdesk/internal/comments"
	"github.com/projectdesk/projectdesk/internal/customers"
	"github.com/projectdesk/projectdesk/internal/dashboard"
	"github.com/projectdesk/projectdesk/internal/identity"
	"github.com/projectdesk/projectdesk/internal/invoices"
	"github.com/projectdesk/projectdesk/internal/observability"
	"github.com/projectdesk/projectdesk/internal/platform/httpx"
	"github.com/projectdesk/projectdesk/internal/projects"
	"github.com/projectdesk/projectdesk/internal/rbac"
	"github.com/projectdesk/projectdesk/internal/roles"
	"github.com/projectdesk/projectdesk/internal/shared"
	"github.com/projectdesk/projectdesk/internal/users"
	"github.com/projectdesk/projectdesk/jobs"
	"github.com/projectdesk/projectdesk/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Guard          *identity.Guard
	RBACMiddleware rbac.Middleware
	Metrics        *observability.Metrics

	AuthHandler        *auth.Handler
	DashboardHandler   *dashboard.Handler
	RolesHandler       *roles.Handler
	UsersHandler       *users.Handler
	ProjectsHandler    *projects.Handler
	InvoicesHandler    *invoices.Handler
	CommentsHandler    *comments.Handler
	CustomersHandler   *customers.Handler
	PermissionsHandler *rbac.PermissionsHandler
	JobHandler         *jobs.Handler
}

// NewRouter constructs the chi.Router with console defaults. Everything
// except auth, health, metrics and static assets requires a signed-in
// principal with resolved permissions.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(params.Guard.Middleware)
		r.Use(params.RBACMiddleware.Load)

		if params.DashboardHandler != nil {
			params.DashboardHandler.MountRoutes(r)
		}
		if params.RolesHandler != nil {
			r.Route("/roles", params.RolesHandler.MountRoutes)
		}
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
		r.Route("/projects", func(r chi.Router) {
			if params.ProjectsHandler != nil {
				params.ProjectsHandler.MountRoutes(r)
			}
			if params.InvoicesHandler != nil {
				r.Route("/{id}/invoices", params.InvoicesHandler.MountRoutes)
			}
			if params.CommentsHandler != nil {
				r.Route("/{id}/files/comments", params.CommentsHandler.MountFileRoutes)
			}
		})
		if params.CustomersHandler != nil || params.CommentsHandler != nil {
			r.Route("/customers", func(r chi.Router) {
				if params.CustomersHandler != nil {
					params.CustomersHandler.MountRoutes(r)
				}
				if params.CommentsHandler != nil {
					r.Route("/documents/{docID}/comments", params.CommentsHandler.MountDocumentRoutes)
				}
			})
		}
		if params.PermissionsHandler != nil {
			r.Route("/me/permissions", params.PermissionsHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
