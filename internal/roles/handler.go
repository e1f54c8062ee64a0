package roles

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/projectdesk/projectdesk/internal/backend"
	"github.com/projectdesk/projectdesk/internal/identity"
	"github.com/projectdesk/projectdesk/internal/platform/httpx"
	"github.com/projectdesk/projectdesk/internal/rbac"
	"github.com/projectdesk/projectdesk/internal/shared"
	"github.com/projectdesk/projectdesk/internal/view"
)

// Handler manages role management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, rbac: rbac, validator: validator.New()}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.Roles, rbac.ActionView))
		r.Get("/", h.listRoles)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.Roles, rbac.ActionCreate))
		r.Get("/new", h.showCreateRoleForm)
		r.Post("/new", h.submitCreateRoleForm)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.Roles, rbac.ActionEdit))
		r.Get("/{id}/edit", h.showEditRoleForm)
		r.Post("/{id}/edit", h.submitEditRoleForm)
	})
}

type formErrors map[string]string

type rolePage struct {
	Form   RoleInput
	RoleID int64
	Action string
	Errors formErrors
	Levels []int
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())
	roles, err := h.service.ListVisible(r.Context(), principal)
	if err != nil {
		if backend.IsUnauthorized(err) {
			identity.ForceLogout(w, r)
			return
		}
		h.logger.Error("list roles failed", slog.Any("error", err))
		h.render(w, r, "pages/roles_list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, httpx.StatusFor(err))
		return
	}
	h.render(w, r, "pages/roles_list.html", map[string]any{"Roles": roles}, http.StatusOK)
}

func (h *Handler) showCreateRoleForm(w http.ResponseWriter, r *http.Request) {
	form := RoleInput{Level: DefaultLevel, Matrix: rbac.NewMatrix()}
	h.renderForm(w, r, form, 0, formErrors{}, http.StatusOK)
}

func (h *Handler) submitCreateRoleForm(w http.ResponseWriter, r *http.Request) {
	form, toggled, err := h.parseRoleForm(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if toggled {
		h.renderForm(w, r, form, 0, formErrors{}, http.StatusOK)
		return
	}
	if errs := h.validate(form); len(errs) > 0 {
		h.renderForm(w, r, form, 0, errs, http.StatusBadRequest)
		return
	}
	principal, _ := identity.PrincipalFromContext(r.Context())
	if err := h.service.CreateRole(r.Context(), principal, form); err != nil {
		h.handleSaveError(w, r, form, 0, err)
		return
	}
	h.redirectWithFlash(w, r, "/roles", shared.FlashSuccess, "Role created successfully")
}

func (h *Handler) showEditRoleForm(w http.ResponseWriter, r *http.Request) {
	id, ok := roleID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	role, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		if backend.IsUnauthorized(err) {
			identity.ForceLogout(w, r)
			return
		}
		if errors.Is(err, httpx.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("load role failed", slog.Any("error", err), slog.Int64("role_id", id))
		h.redirectWithFlash(w, r, "/roles", shared.FlashError, shared.UserSafeMessage(err))
		return
	}
	form := RoleInput{Title: role.Title, Description: role.Description, Level: role.Level, Matrix: role.Matrix}
	if form.Level == 0 {
		form.Level = DefaultLevel
	}
	h.renderForm(w, r, form, id, formErrors{}, http.StatusOK)
}

func (h *Handler) submitEditRoleForm(w http.ResponseWriter, r *http.Request) {
	id, ok := roleID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	form, toggled, err := h.parseRoleForm(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if toggled {
		h.renderForm(w, r, form, id, formErrors{}, http.StatusOK)
		return
	}
	if errs := h.validate(form); len(errs) > 0 {
		h.renderForm(w, r, form, id, errs, http.StatusBadRequest)
		return
	}
	principal, _ := identity.PrincipalFromContext(r.Context())
	if err := h.service.UpdateRole(r.Context(), principal, id, form); err != nil {
		h.handleSaveError(w, r, form, id, err)
		return
	}
	h.redirectWithFlash(w, r, "/roles", shared.FlashSuccess, "Role updated successfully")
}

// parseRoleForm reads the posted grid. When the post came from a cell
// control the toggle is applied and reported so the form is re-rendered
// instead of saved.
func (h *Handler) parseRoleForm(r *http.Request) (RoleInput, bool, error) {
	if err := r.ParseForm(); err != nil {
		return RoleInput{}, false, err
	}
	level, _ := strconv.Atoi(r.PostFormValue("level"))
	form := RoleInput{
		Title:       strings.TrimSpace(r.PostFormValue("title")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
		Level:       level,
		Matrix:      parseGrid(r.PostForm["perm"]),
	}
	toggle := r.PostFormValue("toggle")
	if toggle == "" {
		return form, false, nil
	}
	if module, action, ok := parseCell(toggle); ok {
		form.Matrix = rbac.Toggle(form.Matrix, module, action)
	}
	return form, true, nil
}

func (h *Handler) validate(form RoleInput) formErrors {
	errs := formErrors{}
	if err := h.validator.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fieldErr := range verrs {
				errs[fieldErr.Field()] = validationMessage(fieldErr)
			}
		}
	}
	return errs
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "Title":
		if fe.Tag() == "required" {
			return "Role title is required"
		}
		return "Role title is too long"
	case "Level":
		return "Choose a level between 1 and 6"
	default:
		return "Invalid value"
	}
}

func (h *Handler) handleSaveError(w http.ResponseWriter, r *http.Request, form RoleInput, id int64, err error) {
	if backend.IsUnauthorized(err) {
		identity.ForceLogout(w, r)
		return
	}
	h.logger.Error("save role failed", slog.Any("error", err))
	h.renderForm(w, r, form, id, formErrors{"general": shared.UserSafeMessage(err)}, httpx.StatusFor(err))
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, form RoleInput, id int64, errs formErrors, status int) {
	action := "/roles/new"
	if id > 0 {
		action = "/roles/" + strconv.FormatInt(id, 10) + "/edit"
	}
	page := rolePage{Form: form, RoleID: id, Action: action, Errors: errs, Levels: []int{1, 2, 3, 4, 5, 6}}
	h.render(w, r, "pages/roles_form.html", page, status)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	viewData := view.Page(r, "Roles", data)
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

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	shared.AddFlash(r.Context(), kind, message)
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func roleID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func parseCell(value string) (rbac.Module, rbac.Action, bool) {
	moduleName, actionName, ok := strings.Cut(value, ".")
	if !ok {
		return "", "", false
	}
	module, ok := rbac.ParseModule(moduleName)
	if !ok {
		return "", "", false
	}
	action, ok := rbac.ParseAction(actionName)
	if !ok {
		return "", "", false
	}
	return module, action, true
}

func parseGrid(cells []string) rbac.Matrix {
	m := rbac.NewMatrix()
	for _, cell := range cells {
		if module, action, ok := parseCell(cell); ok {
			m[module][action] = true
		}
	}
	return m
}
