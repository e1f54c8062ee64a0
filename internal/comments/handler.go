package comments

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/projectdesk/projectdesk/internal/backend"
	"github.com/projectdesk/projectdesk/internal/identity"
	"github.com/projectdesk/projectdesk/internal/platform/httpx"
	"github.com/projectdesk/projectdesk/internal/rbac"
	"github.com/projectdesk/projectdesk/internal/shared"
	"github.com/projectdesk/projectdesk/internal/view"
)

// Handler serves the comment threads of project files and customer
// documents.
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

// MountFileRoutes registers the project file thread. The router must carry
// the project "id" parameter.
func (h *Handler) MountFileRoutes(r chi.Router) {
	r.With(h.rbac.Require(rbac.ReviewsComments, rbac.ActionView)).Get("/", h.showFileThread)
	r.With(h.rbac.Require(rbac.ReviewsComments, rbac.ActionCreate)).Post("/", h.postFileComment)
}

// MountDocumentRoutes registers the customer document thread. The router
// must carry the "docID" parameter.
func (h *Handler) MountDocumentRoutes(r chi.Router) {
	r.With(h.rbac.Require(rbac.ReviewsComments, rbac.ActionView)).Get("/", h.showDocumentThread)
	r.With(h.rbac.Require(rbac.ReviewsComments, rbac.ActionCreate)).Post("/", h.postDocumentComment)
}

type threadPage struct {
	Heading  string
	FilePath string
	Category string
	Customer string
	Field    string
	Action   string
	Back     string
	Groups   []Group
	Message  string
	Errors   map[string]string
}

func (h *Handler) showFileThread(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	page := h.filePage(projectID, q.Get("filePath"), q.Get("category"))
	h.renderFileThread(w, r, projectID, page, http.StatusOK)
}

func (h *Handler) postFileComment(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(r, "id")
	if !ok || r.ParseForm() != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	filePath, category, text := r.PostFormValue("filePath"), r.PostFormValue("category"), r.PostFormValue("comment")
	principal, _ := identity.PrincipalFromContext(r.Context())
	err := h.service.CommentOnFile(r.Context(), principal, projectID, filePath, category, text)
	if err == nil {
		http.Redirect(w, r, fileThreadURL(projectID, filePath, category), http.StatusSeeOther)
		return
	}
	if errors.Is(err, httpx.ErrValidation) {
		page := h.filePage(projectID, filePath, category)
		page.Message = text
		page.Errors = map[string]string{"Comment": validationMessage(err)}
		h.renderFileThread(w, r, projectID, page, http.StatusBadRequest)
		return
	}
	h.fail(w, r, err, fileThreadURL(projectID, filePath, category), "post file comment failed")
}

func (h *Handler) showDocumentThread(w http.ResponseWriter, r *http.Request) {
	docID, ok := pathID(r, "docID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	page := documentPage(docID, q.Get("filePath"), q.Get("customer"))
	h.renderDocumentThread(w, r, docID, page, http.StatusOK)
}

func (h *Handler) postDocumentComment(w http.ResponseWriter, r *http.Request) {
	docID, ok := pathID(r, "docID")
	if !ok || r.ParseForm() != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	filePath, customer, text := r.PostFormValue("filePath"), r.PostFormValue("customer"), r.PostFormValue("message")
	principal, _ := identity.PrincipalFromContext(r.Context())
	err := h.service.CommentOnDocument(r.Context(), principal, docID, text)
	if err == nil {
		http.Redirect(w, r, documentThreadURL(docID, filePath, customer), http.StatusSeeOther)
		return
	}
	if errors.Is(err, httpx.ErrValidation) {
		page := documentPage(docID, filePath, customer)
		page.Message = text
		page.Errors = map[string]string{"Comment": validationMessage(err)}
		h.renderDocumentThread(w, r, docID, page, http.StatusBadRequest)
		return
	}
	h.fail(w, r, err, documentThreadURL(docID, filePath, customer), "post document comment failed")
}

func (h *Handler) filePage(projectID int64, filePath, category string) threadPage {
	return threadPage{
		Heading:  "File comments",
		FilePath: filePath,
		Category: category,
		Field:    "comment",
		Action:   "/projects/" + strconv.FormatInt(projectID, 10) + "/files/comments",
		Back:     "/projects/" + strconv.FormatInt(projectID, 10),
	}
}

func documentPage(docID int64, filePath, customer string) threadPage {
	back := "/customers"
	if id, err := strconv.ParseInt(customer, 10, 64); err == nil && id > 0 {
		back = "/customers/" + strconv.FormatInt(id, 10)
	}
	return threadPage{
		Heading:  "Document comments",
		FilePath: filePath,
		Customer: customer,
		Field:    "message",
		Action:   "/customers/documents/" + strconv.FormatInt(docID, 10) + "/comments",
		Back:     back,
	}
}

func (h *Handler) renderFileThread(w http.ResponseWriter, r *http.Request, projectID int64, page threadPage, status int) {
	if page.FilePath == "" {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	groups, err := h.service.FileThread(r.Context(), projectID, page.FilePath)
	if err != nil {
		h.fail(w, r, err, page.Back, "load file comments failed")
		return
	}
	page.Groups = groups
	h.render(w, r, page, status)
}

func (h *Handler) renderDocumentThread(w http.ResponseWriter, r *http.Request, docID int64, page threadPage, status int) {
	groups, err := h.service.DocumentThread(r.Context(), docID)
	if err != nil {
		h.fail(w, r, err, page.Back, "load document comments failed")
		return
	}
	page.Groups = groups
	h.render(w, r, page, status)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, fallback, msg string) {
	switch {
	case backend.IsUnauthorized(err):
		identity.ForceLogout(w, r)
	case errors.Is(err, httpx.ErrNotFound):
		http.NotFound(w, r)
	default:
		h.logger.Error(msg, slog.Any("error", err))
		shared.AddFlash(r.Context(), shared.FlashError, shared.UserSafeMessage(err))
		http.Redirect(w, r, fallback, http.StatusSeeOther)
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, page threadPage, status int) {
	if page.Errors == nil {
		page.Errors = map[string]string{}
	}
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	viewData := view.Page(r, page.Heading, page)
	viewData.CSRFToken = csrfToken
	if sess != nil {
		viewData.Flash = sess.PopFlash()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, "pages/comments.html", viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, ErrEmptyMessage):
		return "Write a comment before sending"
	case errors.Is(err, ErrNoAuthor):
		return "You must be signed in to comment"
	}
	return "Select a file to comment on"
}

func fileThreadURL(projectID int64, filePath, category string) string {
	q := url.Values{"filePath": {filePath}}
	if category != "" {
		q.Set("category", category)
	}
	return "/projects/" + strconv.FormatInt(projectID, 10) + "/files/comments?" + q.Encode()
}

func documentThreadURL(docID int64, filePath, customer string) string {
	q := url.Values{}
	if filePath != "" {
		q.Set("filePath", filePath)
	}
	if customer != "" {
		q.Set("customer", customer)
	}
	u := "/customers/documents/" + strconv.FormatInt(docID, 10) + "/comments"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func pathID(r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	return id, err == nil && id > 0
}
