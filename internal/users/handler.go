package users

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
	"github.com/projectdesk/projectdesk/internal/roles"
	"github.com/projectdesk/projectdesk/internal/shared"
	"github.com/projectdesk/projectdesk/internal/view"
)

const usersPerPage = 10

// Handler manages user management endpoints.
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
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, rbac: rbac, validator: newValidator()}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.UserManagement, rbac.ActionView))
		r.Get("/", h.listUsers)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.UserManagement, rbac.ActionCreate))
		r.Get("/new", h.showCreateForm)
		r.Post("/new", h.submitCreateForm)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.UserManagement, rbac.ActionEdit))
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}/edit", h.submitEditForm)
	})
}

type formErrors map[string]string

type userPage struct {
	Form   UserInput
	UserID int64
	Action string
	Roles  []roles.Role
	Errors formErrors
}

type listPage struct {
	Users      []User
	Search     string
	Pagination shared.Pagination
	Errors     formErrors
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("q"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	users, err := h.service.ListUsers(r.Context(), search)
	if err != nil {
		if backend.IsUnauthorized(err) {
			identity.ForceLogout(w, r)
			return
		}
		h.logger.Error("list users failed", slog.Any("error", err))
		h.render(w, r, "pages/users_list.html", listPage{Search: search, Errors: formErrors{"general": shared.UserSafeMessage(err)}}, httpx.StatusFor(err))
		return
	}
	rows, pagination := shared.Paginate(users, page, usersPerPage)
	h.render(w, r, "pages/users_list.html", listPage{Users: rows, Search: search, Pagination: pagination}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, UserInput{Status: StatusActive}, 0, formErrors{}, http.StatusOK)
}

func (h *Handler) submitCreateForm(w http.ResponseWriter, r *http.Request) {
	form, err := h.parseForm(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	principal, _ := identity.PrincipalFromContext(r.Context())
	form, errs := h.resolveRole(r, principal, form)
	for field, msg := range validateInput(h.validator, form, true) {
		errs[field] = msg
	}
	if len(errs) > 0 {
		form.Password = ""
		h.renderForm(w, r, form, 0, errs, http.StatusBadRequest)
		return
	}
	if err := h.service.CreateUser(r.Context(), principal, form); err != nil {
		h.handleSaveError(w, r, form, 0, err)
		return
	}
	h.redirectWithFlash(w, r, "/users", shared.FlashSuccess, "User created successfully")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		if backend.IsUnauthorized(err) {
			identity.ForceLogout(w, r)
			return
		}
		if errors.Is(err, httpx.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("load user failed", slog.Any("error", err), slog.Int64("user_id", id))
		h.redirectWithFlash(w, r, "/users", shared.FlashError, shared.UserSafeMessage(err))
		return
	}
	form := UserInput{
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Email:        user.Email,
		MobileNumber: user.MobileNumber,
		RoleID:       user.RoleID,
		Role:         user.Role,
		Status:       user.Status,
	}
	if form.Status == "" {
		form.Status = StatusActive
	}
	h.renderForm(w, r, form, id, formErrors{}, http.StatusOK)
}

func (h *Handler) submitEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	form, err := h.parseForm(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	principal, _ := identity.PrincipalFromContext(r.Context())
	form, errs := h.resolveRole(r, principal, form)
	for field, msg := range validateInput(h.validator, form, false) {
		errs[field] = msg
	}
	if len(errs) > 0 {
		form.Password = ""
		h.renderForm(w, r, form, id, errs, http.StatusBadRequest)
		return
	}
	if err := h.service.UpdateUser(r.Context(), principal, id, form); err != nil {
		h.handleSaveError(w, r, form, id, err)
		return
	}
	h.redirectWithFlash(w, r, "/users", shared.FlashSuccess, "User updated successfully")
}

func (h *Handler) parseForm(r *http.Request) (UserInput, error) {
	if err := r.ParseForm(); err != nil {
		return UserInput{}, err
	}
	roleID, _ := strconv.ParseInt(r.PostFormValue("roleId"), 10, 64)
	status := strings.TrimSpace(r.PostFormValue("status"))
	if status == "" {
		status = StatusActive
	}
	return UserInput{
		FirstName:    strings.TrimSpace(r.PostFormValue("firstName")),
		LastName:     strings.TrimSpace(r.PostFormValue("lastName")),
		Email:        strings.TrimSpace(r.PostFormValue("email")),
		MobileNumber: strings.TrimSpace(r.PostFormValue("mobileNumber")),
		Password:     r.PostFormValue("password"),
		RoleID:       roleID,
		Status:       status,
	}, nil
}

// resolveRole maps the selected role id to its title. A role outside the
// principal's visible set is rejected.
func (h *Handler) resolveRole(r *http.Request, p identity.Principal, form UserInput) (UserInput, formErrors) {
	errs := formErrors{}
	if form.RoleID == 0 {
		return form, errs
	}
	choices, err := h.service.RoleChoices(r.Context(), p)
	if err != nil {
		h.logger.Warn("load role choices", slog.Any("error", err))
		errs["general"] = shared.UserSafeMessage(err)
		return form, errs
	}
	for _, role := range choices {
		if role.ID == form.RoleID {
			form.Role = role.Title
			return form, errs
		}
	}
	errs["RoleID"] = "Choose a valid role"
	return form, errs
}

func (h *Handler) handleSaveError(w http.ResponseWriter, r *http.Request, form UserInput, id int64, err error) {
	if backend.IsUnauthorized(err) {
		identity.ForceLogout(w, r)
		return
	}
	h.logger.Error("save user failed", slog.Any("error", err))
	form.Password = ""
	h.renderForm(w, r, form, id, formErrors{"general": shared.UserSafeMessage(err)}, httpx.StatusFor(err))
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, form UserInput, id int64, errs formErrors, status int) {
	action := "/users/new"
	if id > 0 {
		action = "/users/" + strconv.FormatInt(id, 10) + "/edit"
	}
	principal, _ := identity.PrincipalFromContext(r.Context())
	choices, err := h.service.RoleChoices(r.Context(), principal)
	if err != nil {
		h.logger.Warn("load role choices", slog.Any("error", err))
	}
	h.render(w, r, "pages/users_form.html", userPage{Form: form, UserID: id, Action: action, Roles: choices, Errors: errs}, status)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	viewData := view.Page(r, "Users", data)
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

func userID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}
