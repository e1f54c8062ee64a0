package customers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/projectdesk/projectdesk/internal/backend"
	"github.com/projectdesk/projectdesk/internal/identity"
	"github.com/projectdesk/projectdesk/internal/platform/httpx"
	"github.com/projectdesk/projectdesk/internal/rbac"
	"github.com/projectdesk/projectdesk/internal/shared"
	"github.com/projectdesk/projectdesk/internal/view"
)

// Handler serves the customer pages.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	rbac      rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, rbac: rbac}
}

// MountRoutes registers customer routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.Customer, rbac.ActionView))
		r.Get("/", h.listCustomers)
		r.Get("/{id}", h.showCustomer)
	})
}

type listPage struct {
	Customers []Customer
	Search    string
	Error     string
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("q"))
	page := listPage{Search: search}
	list, err := h.service.List(r.Context(), search)
	if err != nil {
		if backend.IsUnauthorized(err) {
			identity.ForceLogout(w, r)
			return
		}
		h.logger.Error("list customers failed", slog.Any("error", err))
		page.Error = shared.UserSafeMessage(err)
		h.render(w, r, "pages/customers_list.html", page, httpx.StatusFor(err))
		return
	}
	page.Customers = list
	h.render(w, r, "pages/customers_list.html", page, http.StatusOK)
}

func (h *Handler) showCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return
	}
	detail, err := h.service.Detail(r.Context(), id)
	switch {
	case err == nil:
		h.render(w, r, "pages/customer_detail.html", detail, http.StatusOK)
	case backend.IsUnauthorized(err):
		identity.ForceLogout(w, r)
	case errors.Is(err, httpx.ErrNotFound):
		http.NotFound(w, r)
	default:
		h.logger.Error("load customer failed", slog.Any("error", err), slog.Int64("customer_id", id))
		shared.AddFlash(r.Context(), shared.FlashError, shared.UserSafeMessage(err))
		http.Redirect(w, r, "/customers", http.StatusSeeOther)
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	viewData := view.Page(r, "Customers", data)
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
