package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/projectdesk/projectdesk/internal/identity"
	"github.com/projectdesk/projectdesk/internal/shared"
	"github.com/projectdesk/projectdesk/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	guard       *identity.Guard
	templates   *view.Engine
	csrfManager *shared.CSRFManager
	validator   *validator.Validate
	loginLimit  int
}

// NewHandler constructs a Handler instance. loginLimit caps login attempts
// per client IP per minute; zero disables the limiter.
func NewHandler(logger *slog.Logger, service *Service, guard *identity.Guard, templates *view.Engine, csrf *shared.CSRFManager, loginLimit int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:      logger,
		service:     service,
		guard:       guard,
		templates:   templates,
		csrfManager: csrf,
		validator:   validator.New(),
		loginLimit:  loginLimit,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Group(func(r chi.Router) {
		if h.loginLimit > 0 {
			r.Use(httprate.LimitByIP(h.loginLimit, time.Minute))
		}
		r.Post("/login", h.handleLogin)
	})
	r.Post("/logout", h.handleLogout)
	r.Get("/forgot-password", h.showForgotPassword)
	r.Post("/forgot-password", h.handleForgotPassword)
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

type loginPageData struct {
	Form    loginForm
	Errors  map[string]string
	Expired bool
}

type forgotPageData struct {
	Email  string
	Errors map[string]string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	data := loginPageData{Errors: map[string]string{}, Expired: r.URL.Query().Get("expired") == "1"}
	h.render(w, r, "pages/login.html", "Sign in", data, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := loginForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	errs := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fieldErr := range verrs {
				errs[fieldErr.Field()] = loginMessage(fieldErr)
			}
		}
	}
	if len(errs) > 0 {
		form.Password = ""
		h.render(w, r, "pages/login.html", "Sign in", loginPageData{Form: form, Errors: errs}, http.StatusBadRequest)
		return
	}

	principal, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, shared.ErrInvalidCredentials):
		errs["general"] = "Invalid email or password"
	case err != nil:
		h.logger.Error("login failed", slog.Any("error", err))
		errs["general"] = "Login is unavailable right now, please try again."
		status = http.StatusBadGateway
	default:
		sess := shared.SessionFromContext(r.Context())
		if err := h.guard.SignIn(r.Context(), sess, principal); err != nil {
			h.logger.Warn("sign in rejected", slog.Any("error", err), slog.Int64("user_id", principal.ID))
			errs["general"] = "Your session could not be started, please sign in again."
			break
		}
		h.logger.Info("user signed in", slog.Int64("user_id", principal.ID), slog.String("role", principal.Role))
		sess.AddFlash(shared.FlashMessage{Kind: shared.FlashSuccess, Message: "Welcome back, " + principal.FirstName})
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	form.Password = ""
	h.render(w, r, "pages/login.html", "Sign in", loginPageData{Form: form, Errors: errs}, status)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.guard.SignOut(r.Context(), shared.SessionFromContext(r.Context()))
	http.Redirect(w, r, identity.LoginPath, http.StatusSeeOther)
}

func (h *Handler) showForgotPassword(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/forgot_password.html", "Forgot password", forgotPageData{Errors: map[string]string{}}, http.StatusOK)
}

func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.PostFormValue("email"))
	if err := h.validator.Var(email, "required,email"); err != nil {
		data := forgotPageData{Email: email, Errors: map[string]string{"Email": "Enter a valid email address"}}
		h.render(w, r, "pages/forgot_password.html", "Forgot password", data, http.StatusBadRequest)
		return
	}
	if err := h.service.RequestPasswordReset(r.Context(), email); err != nil {
		h.logger.Warn("forgot password failed", slog.Any("error", err))
		data := forgotPageData{Email: email, Errors: map[string]string{"general": shared.UserSafeMessage(err)}}
		h.render(w, r, "pages/forgot_password.html", "Forgot password", data, http.StatusBadGateway)
		return
	}
	shared.AddFlash(r.Context(), shared.FlashSuccess, "Password reset instructions have been sent to your email")
	http.Redirect(w, r, identity.LoginPath, http.StatusSeeOther)
}

func loginMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "Email":
		if fe.Tag() == "required" {
			return "Email is required"
		}
		return "Enter a valid email address"
	case "Password":
		if fe.Tag() == "required" {
			return "Password is required"
		}
		return "Password must be at least 6 characters"
	default:
		return "Invalid value"
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template, title string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	viewData := view.Page(r, title, data)
	viewData.CSRFToken = csrfToken
	if sess != nil {
		viewData.Flash = sess.PopFlash()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render auth page", slog.Any("error", err))
	}
}
