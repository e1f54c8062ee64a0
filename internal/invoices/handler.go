package invoices

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
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

// LimitMessage is flashed when an invoice would exceed the project value.
const LimitMessage = "Invoice limit exceeded! Your invoice total value has exceeded the allowed limit. Please update the project value to proceed."

var allowedAttachments = []string{".pdf", ".jpg", ".jpeg", ".png"}

// Handler serves the invoices of a project. It expects to be mounted under
// a route carrying the project "id" parameter.
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

// MountRoutes registers invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.Require(rbac.InvoicingAndPayment, rbac.ActionView)).Get("/", h.showInvoices)
	r.With(h.rbac.Require(rbac.InvoicingAndPayment, rbac.ActionCreate)).Post("/", h.createInvoice)
	r.With(h.rbac.Require(rbac.InvoicingAndPayment, rbac.ActionEdit)).Post("/{invoiceID}", h.updateInvoice)
	r.With(h.rbac.Require(rbac.InvoicingAndPayment, rbac.ActionDelete)).Post("/{invoiceID}/delete", h.deleteInvoice)
}

type invoicesPage struct {
	Overview  Overview
	Form      InvoiceInput
	EditingID int64
	Statuses  []string
	Errors    map[string]string
}

func (h *Handler) showInvoices(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	page := invoicesPage{Form: InvoiceInput{Status: StatusPending}, Statuses: Statuses, Errors: map[string]string{}}
	if raw := r.URL.Query().Get("edit"); raw != "" {
		page.EditingID, _ = strconv.ParseInt(raw, 10, 64)
	}
	h.renderPage(w, r, projectID, page, http.StatusOK)
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.submit(w, r, projectID, 0)
}

func (h *Handler) updateInvoice(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(r, "id")
	invoiceID, invoiceOK := pathID(r, "invoiceID")
	if !ok || !invoiceOK {
		http.NotFound(w, r)
		return
	}
	h.submit(w, r, projectID, invoiceID)
}

// submit handles both the create and the edit form. A zero invoiceID
// creates.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request, projectID, invoiceID int64) {
	if err := httpx.ParseForm(r); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := parseInvoice(r.PostForm)
	page := invoicesPage{Form: in, EditingID: invoiceID, Statuses: Statuses}
	if errs := validateInvoice(h.validator, in); len(errs) > 0 {
		page.Errors = errs
		h.renderPage(w, r, projectID, page, http.StatusBadRequest)
		return
	}
	files, closeFiles, err := httpx.OpenFiles(r, "invoice", allowedAttachments...)
	if err != nil {
		msg := "The uploaded file could not be read"
		if errors.Is(err, httpx.ErrFileType) {
			msg = "Only PDF, JPG and PNG files can be attached"
		}
		page.Errors = map[string]string{"Invoice": msg}
		h.renderPage(w, r, projectID, page, http.StatusBadRequest)
		return
	}
	defer closeFiles()
	var attachment *Attachment
	if len(files) > 0 {
		attachment = &Attachment{Filename: files[0].Filename, Content: files[0].File}
	}

	principal, _ := identity.PrincipalFromContext(r.Context())
	back := invoicesPath(projectID)
	if invoiceID == 0 {
		err = h.service.Create(r.Context(), principal, projectID, in, attachment)
	} else {
		err = h.service.Update(r.Context(), principal, projectID, invoiceID, in, attachment)
	}
	switch {
	case err == nil:
		msg := "Invoice created successfully"
		if invoiceID != 0 {
			msg = "Invoice updated successfully"
		}
		h.redirectWithFlash(w, r, back, shared.FlashSuccess, msg)
	case errors.Is(err, ErrLimitExceeded):
		h.redirectWithFlash(w, r, back, shared.FlashWarning, LimitMessage)
	case backend.IsUnauthorized(err):
		identity.ForceLogout(w, r)
	case errors.Is(err, httpx.ErrNotFound):
		http.NotFound(w, r)
	default:
		h.logger.Error("save invoice failed", slog.Any("error", err), slog.Int64("project_id", projectID))
		h.redirectWithFlash(w, r, back, shared.FlashError, shared.UserSafeMessage(err))
	}
}

func (h *Handler) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(r, "id")
	invoiceID, invoiceOK := pathID(r, "invoiceID")
	if !ok || !invoiceOK {
		http.NotFound(w, r)
		return
	}
	principal, _ := identity.PrincipalFromContext(r.Context())
	back := invoicesPath(projectID)
	if err := h.service.Delete(r.Context(), principal, projectID, invoiceID); err != nil {
		if backend.IsUnauthorized(err) {
			identity.ForceLogout(w, r)
			return
		}
		h.logger.Error("delete invoice failed", slog.Any("error", err), slog.Int64("invoice_id", invoiceID))
		h.redirectWithFlash(w, r, back, shared.FlashError, shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, back, shared.FlashSuccess, "Invoice deleted")
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, projectID int64, page invoicesPage, status int) {
	overview, err := h.service.Overview(r.Context(), projectID)
	if err != nil {
		switch {
		case backend.IsUnauthorized(err):
			identity.ForceLogout(w, r)
		case errors.Is(err, httpx.ErrNotFound):
			http.NotFound(w, r)
		default:
			h.logger.Error("load invoices failed", slog.Any("error", err), slog.Int64("project_id", projectID))
			h.redirectWithFlash(w, r, "/projects/"+strconv.FormatInt(projectID, 10), shared.FlashError, shared.UserSafeMessage(err))
		}
		return
	}
	if page.Errors == nil {
		page.Errors = map[string]string{}
	}
	page.Overview = overview
	h.render(w, r, "pages/invoices.html", page, status)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	viewData := view.Page(r, "Invoices", data)
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

func parseInvoice(form url.Values) InvoiceInput {
	return InvoiceInput{
		TotalAmount: parseAmount(form.Get("totalAmount")),
		AdvancePaid: parseAmount(form.Get("advancePaid")),
		Status:      form.Get("status"),
	}
}

func validateInvoice(v *validator.Validate, in InvoiceInput) map[string]string {
	errs := map[string]string{}
	err := v.Struct(in)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errs
	}
	for _, fe := range verrs {
		switch fe.Field() {
		case "TotalAmount":
			errs["TotalAmount"] = "Total amount must be greater than zero"
		case "AdvancePaid":
			errs["AdvancePaid"] = "Advance paid must be between zero and the total amount"
		case "Status":
			errs["Status"] = "Choose a valid status"
		}
	}
	return errs
}

func parseAmount(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}

func pathID(r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	return id, err == nil && id > 0
}

func invoicesPath(projectID int64) string {
	return "/projects/" + strconv.FormatInt(projectID, 10) + "/invoices"
}
