package projects

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

var allowedUploads = []string{".jpg", ".jpeg", ".png", ".pdf"}

// Handler manages project endpoints.
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

// MountRoutes registers project routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ProjectManagement, rbac.ActionView))
		r.Get("/", h.listProjects)
		r.Get("/archived", h.listArchived)
		r.Get("/{id}", h.showProject)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ProjectManagement, rbac.ActionCreate))
		r.Get("/new", h.showWizard)
		r.Post("/new", h.submitWizard)
		r.Post("/new/cancel", h.cancelWizard)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ProjectManagement, rbac.ActionEdit))
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}/edit", h.submitEditForm)
		r.Post("/{id}/status", h.changeStatus)
		r.Post("/{id}/items", h.addItem)
		r.Post("/{id}/items/{itemID}", h.updateItem)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ProjectManagement, rbac.ActionDelete))
		r.Post("/{id}/archive", h.archiveProject)
		r.Post("/{id}/items/{itemID}/delete", h.deleteItem)
	})
}

type formErrors map[string]string

type listPage struct {
	Projects []Project
	Search   string
	Sort     string
	Archived bool
	Statuses []string
	Errors   formErrors
}

type detailPage struct {
	Detail       Detail
	Statuses     []string
	ItemStatuses []string
	Balance      float64
}

type formOptions struct {
	Customers    []Customer
	Team         []TeamChoice
	Types        []string
	Statuses     []string
	ItemStatuses []string
}

type wizardPage struct {
	Draft  Draft
	Errors formErrors
	formOptions
}

// Form exposes the draft form under the same name the edit page uses so
// both pages share the field partials.
func (p wizardPage) Form() ProjectInput {
	return p.Draft.Form
}

type editPage struct {
	ProjectID int64
	Form      ProjectInput
	Files     []string
	Errors    formErrors
	formOptions
}

func (h *Handler) listProjects(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, false)
}

func (h *Handler) listArchived(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, true)
}

func (h *Handler) renderList(w http.ResponseWriter, r *http.Request, archived bool) {
	principal, _ := identity.PrincipalFromContext(r.Context())
	q := ListQuery{
		Search:   strings.TrimSpace(r.URL.Query().Get("q")),
		Sort:     r.URL.Query().Get("sort"),
		Archived: archived,
	}
	page := listPage{Search: q.Search, Sort: q.Sort, Archived: archived, Statuses: Statuses}
	list, err := h.service.List(r.Context(), principal, q)
	if err != nil {
		if backend.IsUnauthorized(err) {
			identity.ForceLogout(w, r)
			return
		}
		h.logger.Error("list projects failed", slog.Any("error", err))
		page.Errors = formErrors{"general": shared.UserSafeMessage(err)}
		h.render(w, r, "pages/projects_list.html", page, httpx.StatusFor(err))
		return
	}
	page.Projects = list
	h.render(w, r, "pages/projects_list.html", page, http.StatusOK)
}

func (h *Handler) showProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	detail, err := h.service.Detail(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "/projects", "load project failed")
		return
	}
	balance := detail.Project.TotalValue - detail.Project.AdvancePayment - detail.InvoicedTotal
	page := detailPage{Detail: detail, Statuses: Statuses, ItemStatuses: ItemStatuses, Balance: balance}
	h.render(w, r, "pages/project_detail.html", page, http.StatusOK)
}

func (h *Handler) showWizard(w http.ResponseWriter, r *http.Request) {
	draft := LoadDraft(shared.SessionFromContext(r.Context()))
	h.renderWizard(w, r, draft, formErrors{}, http.StatusOK)
}

func (h *Handler) cancelWizard(w http.ResponseWriter, r *http.Request) {
	ClearDraft(shared.SessionFromContext(r.Context()))
	http.Redirect(w, r, "/projects", http.StatusSeeOther)
}

// submitWizard merges the posted step into the session draft and moves
// between steps. The project is only sent to the backend from the last
// step.
func (h *Handler) submitWizard(w http.ResponseWriter, r *http.Request) {
	if err := httpx.ParseForm(r); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	draft := LoadDraft(sess)
	h.mergeStep(r, &draft)

	nav := r.PostFormValue("nav")
	switch {
	case nav == "back":
		if draft.Step > StepDetails {
			draft.Step--
		}
	case nav == "addItem":
		draft.Items = append(draft.Items, ItemInput{Quantity: 1, Status: ItemStatuses[0]})
	case strings.HasPrefix(nav, "removeItem:"):
		if i, err := strconv.Atoi(strings.TrimPrefix(nav, "removeItem:")); err == nil && i >= 0 && i < len(draft.Items) {
			draft.Items = append(draft.Items[:i], draft.Items[i+1:]...)
		}
	case nav == "next":
		errs := validateProject(h.validator, draft.Form, draft.Step)
		if draft.Step == StepTeam {
			for k, v := range validateItems(h.validator, draft.Items) {
				errs[k] = v
			}
		}
		if len(errs) > 0 {
			h.saveDraft(sess, draft)
			h.renderWizard(w, r, draft, errs, http.StatusBadRequest)
			return
		}
		if draft.Step < StepFiles {
			draft.Step++
		}
	case nav == "submit":
		h.submitDraft(w, r, draft)
		return
	}
	h.saveDraft(sess, draft)
	http.Redirect(w, r, "/projects/new", http.StatusSeeOther)
}

func (h *Handler) submitDraft(w http.ResponseWriter, r *http.Request, draft Draft) {
	sess := shared.SessionFromContext(r.Context())
	h.saveDraft(sess, draft)
	errs := validateProject(h.validator, draft.Form, 0)
	itemErrs := validateItems(h.validator, draft.Items)
	if len(errs) > 0 || len(itemErrs) > 0 {
		draft.Step = StepTeam
		for _, field := range stepFields[StepDetails] {
			if _, ok := errs[field]; ok {
				draft.Step = StepDetails
			}
		}
		for k, v := range itemErrs {
			errs[k] = v
		}
		h.renderWizard(w, r, draft, errs, http.StatusBadRequest)
		return
	}
	files, closeFiles, err := httpx.OpenFiles(r, "files", allowedUploads...)
	if err != nil {
		h.renderWizard(w, r, draft, formErrors{"Files": uploadMessage(err)}, http.StatusBadRequest)
		return
	}
	defer closeFiles()

	principal, _ := identity.PrincipalFromContext(r.Context())
	id, err := h.service.Create(r.Context(), principal, draft.Form, draft.Items, toUploads(files))
	switch {
	case err == nil:
		ClearDraft(sess)
		h.redirectWithFlash(w, r, projectPath(id), shared.FlashSuccess, "Project created successfully")
	case errors.Is(err, ErrItemsIncomplete):
		h.logger.Warn("project items rejected", slog.Any("error", err), slog.Int64("project_id", id))
		ClearDraft(sess)
		h.redirectWithFlash(w, r, projectPath(id), shared.FlashWarning, "Project created, but some lead-time items could not be saved")
	case backend.IsUnauthorized(err):
		identity.ForceLogout(w, r)
	default:
		h.logger.Error("create project failed", slog.Any("error", err))
		h.renderWizard(w, r, draft, formErrors{"general": shared.UserSafeMessage(err)}, httpx.StatusFor(err))
	}
}

// mergeStep copies the fields of the draft's current step from the request.
func (h *Handler) mergeStep(r *http.Request, draft *Draft) {
	form := r.PostForm
	switch draft.Step {
	case StepDetails:
		draft.Form.Name = strings.TrimSpace(form.Get("name"))
		draft.Form.Type = form.Get("type")
		draft.Form.ClientName = strings.TrimSpace(form.Get("clientName"))
		draft.Form.Description = strings.TrimSpace(form.Get("description"))
		draft.Form.StartDate = form.Get("startDate")
		draft.Form.EstimatedCompletion = form.Get("estimatedCompletion")
		draft.Form.ClientID = h.customerID(r, draft.Form.ClientName)
	case StepTeam:
		draft.Form.Team = parseTeam(form)
		draft.Form.DeliveryAddress = strings.TrimSpace(form.Get("deliveryAddress"))
		draft.Form.DeliveryHours = strings.TrimSpace(form.Get("deliveryHours"))
		draft.Form.TotalValue = parseAmount(form.Get("totalValue"))
		draft.Form.AdvancePayment = parseAmount(form.Get("advancePayment"))
		draft.Form.Status = form.Get("status")
		draft.Items = parseItemRows(form)
	case StepFiles:
		draft.Form.AllowClientView = form.Get("allowClientView") != ""
		draft.Form.AllowComments = form.Get("allowComments") != ""
		draft.Form.EnableNotifications = form.Get("enableNotifications") != ""
	}
}

func (h *Handler) customerID(r *http.Request, name string) int64 {
	if name == "" {
		return 0
	}
	customers, err := h.service.Customers(r.Context())
	if err != nil {
		h.logger.Warn("load customers", slog.Any("error", err))
		return 0
	}
	for _, c := range customers {
		if c.FullName == name {
			return c.ID
		}
	}
	return 0
}

func (h *Handler) saveDraft(sess *shared.Session, draft Draft) {
	if err := SaveDraft(sess, draft); err != nil {
		h.logger.Warn("save project draft", slog.Any("error", err))
	}
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	project, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "/projects", "load project failed")
		return
	}
	page := editPage{ProjectID: id, Form: InputFromProject(project), Files: project.Files, Errors: formErrors{}}
	h.renderEdit(w, r, page, http.StatusOK)
}

func (h *Handler) submitEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := httpx.ParseForm(r); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	project, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "/projects", "load project failed")
		return
	}
	form := parseProjectForm(r.PostForm)
	form.ClientID = h.customerID(r, form.ClientName)
	kept, removed := splitFiles(project.Files, r.PostForm["keepFile"])
	page := editPage{ProjectID: id, Form: form, Files: kept}

	if errs := validateProject(h.validator, form, 0); len(errs) > 0 {
		page.Errors = errs
		h.renderEdit(w, r, page, http.StatusBadRequest)
		return
	}
	files, closeFiles, err := httpx.OpenFiles(r, "files", allowedUploads...)
	if err != nil {
		page.Errors = formErrors{"Files": uploadMessage(err)}
		h.renderEdit(w, r, page, http.StatusBadRequest)
		return
	}
	defer closeFiles()

	principal, _ := identity.PrincipalFromContext(r.Context())
	if err := h.service.Update(r.Context(), principal, id, form, kept, removed, toUploads(files)); err != nil {
		if backend.IsUnauthorized(err) {
			identity.ForceLogout(w, r)
			return
		}
		h.logger.Error("update project failed", slog.Any("error", err), slog.Int64("project_id", id))
		page.Errors = formErrors{"general": shared.UserSafeMessage(err)}
		h.renderEdit(w, r, page, httpx.StatusFor(err))
		return
	}
	h.redirectWithFlash(w, r, projectPath(id), shared.FlashSuccess, "Project updated successfully")
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok || r.ParseForm() != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	back := returnPath(r, projectPath(id))
	principal, _ := identity.PrincipalFromContext(r.Context())
	if err := h.service.ChangeStatus(r.Context(), principal, id, r.PostFormValue("status")); err != nil {
		if errors.Is(err, httpx.ErrValidation) {
			h.redirectWithFlash(w, r, back, shared.FlashError, "Choose a valid status")
			return
		}
		h.fail(w, r, err, back, "update project status failed")
		return
	}
	h.redirectWithFlash(w, r, back, shared.FlashSuccess, "Status updated")
}

func (h *Handler) archiveProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	principal, _ := identity.PrincipalFromContext(r.Context())
	if err := h.service.Archive(r.Context(), principal, id); err != nil {
		h.fail(w, r, err, "/projects", "archive project failed")
		return
	}
	h.redirectWithFlash(w, r, "/projects", shared.FlashSuccess, "The project has been archived")
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok || r.ParseForm() != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	item := parseItem(r.PostForm)
	if msg := validateItem(h.validator, item); msg != "" {
		h.redirectWithFlash(w, r, projectPath(id), shared.FlashError, msg)
		return
	}
	if err := h.service.AddItem(r.Context(), id, item); err != nil {
		h.fail(w, r, err, projectPath(id), "add item failed")
		return
	}
	h.redirectWithFlash(w, r, projectPath(id), shared.FlashSuccess, "Item added")
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	itemID, itemOK := pathID(r, "itemID")
	if !ok || !itemOK || r.ParseForm() != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	item := parseItem(r.PostForm)
	if msg := validateItem(h.validator, item); msg != "" {
		h.redirectWithFlash(w, r, projectPath(id), shared.FlashError, msg)
		return
	}
	if err := h.service.UpdateItem(r.Context(), id, itemID, item); err != nil {
		h.fail(w, r, err, projectPath(id), "update item failed")
		return
	}
	h.redirectWithFlash(w, r, projectPath(id), shared.FlashSuccess, "Item updated")
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	itemID, itemOK := pathID(r, "itemID")
	if !ok || !itemOK {
		http.NotFound(w, r)
		return
	}
	principal, _ := identity.PrincipalFromContext(r.Context())
	if err := h.service.DeleteItem(r.Context(), principal, id, itemID); err != nil {
		h.fail(w, r, err, projectPath(id), "delete item failed")
		return
	}
	h.redirectWithFlash(w, r, projectPath(id), shared.FlashSuccess, "Item deleted")
}

// fail handles a backend error of a page that has nothing to re-render:
// a rejected token logs out, a missing entity is a 404, anything else is
// flashed on the fallback page.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, fallback, msg string) {
	switch {
	case backend.IsUnauthorized(err):
		identity.ForceLogout(w, r)
	case errors.Is(err, httpx.ErrNotFound):
		http.NotFound(w, r)
	default:
		h.logger.Error(msg, slog.Any("error", err))
		h.redirectWithFlash(w, r, fallback, shared.FlashError, shared.UserSafeMessage(err))
	}
}

func (h *Handler) options(r *http.Request) formOptions {
	opts := formOptions{Types: Types, Statuses: Statuses, ItemStatuses: ItemStatuses}
	customers, err := h.service.Customers(r.Context())
	if err != nil {
		h.logger.Warn("load customers", slog.Any("error", err))
	}
	opts.Customers = customers
	team, err := h.service.TeamChoices(r.Context())
	if err != nil {
		h.logger.Warn("load team choices", slog.Any("error", err))
	}
	opts.Team = team
	return opts
}

func (h *Handler) renderWizard(w http.ResponseWriter, r *http.Request, draft Draft, errs formErrors, status int) {
	page := wizardPage{Draft: draft, Errors: errs, formOptions: h.options(r)}
	h.render(w, r, "pages/project_wizard.html", page, status)
}

func (h *Handler) renderEdit(w http.ResponseWriter, r *http.Request, page editPage, status int) {
	if page.Errors == nil {
		page.Errors = formErrors{}
	}
	page.formOptions = h.options(r)
	h.render(w, r, "pages/project_form.html", page, status)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	viewData := view.Page(r, "Projects", data)
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

func parseProjectForm(form url.Values) ProjectInput {
	return ProjectInput{
		Name:                strings.TrimSpace(form.Get("name")),
		Type:                form.Get("type"),
		ClientName:          strings.TrimSpace(form.Get("clientName")),
		Description:         strings.TrimSpace(form.Get("description")),
		StartDate:           form.Get("startDate"),
		EstimatedCompletion: form.Get("estimatedCompletion"),
		TotalValue:          parseAmount(form.Get("totalValue")),
		AdvancePayment:      parseAmount(form.Get("advancePayment")),
		DeliveryAddress:     strings.TrimSpace(form.Get("deliveryAddress")),
		DeliveryHours:       strings.TrimSpace(form.Get("deliveryHours")),
		Status:              form.Get("status"),
		Team:                parseTeam(form),
		AllowClientView:     form.Get("allowClientView") != "",
		AllowComments:       form.Get("allowComments") != "",
		EnableNotifications: form.Get("enableNotifications") != "",
	}
}

// parseTeam reads the selected roles ("teamRole") and, per role, the
// checked users ("team:<role>").
func parseTeam(form url.Values) []TeamAssignment {
	team := make([]TeamAssignment, 0, len(form["teamRole"]))
	for _, role := range form["teamRole"] {
		entry := TeamAssignment{Role: role, Users: []int64{}}
		for _, raw := range form["team:"+role] {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
				entry.Users = append(entry.Users, id)
			}
		}
		team = append(team, entry)
	}
	return team
}

// parseItemRows reads the lead-time table of the wizard. Rows are parallel
// arrays of the item fields.
func parseItemRows(form url.Values) []ItemInput {
	names := form["itemName"]
	items := make([]ItemInput, 0, len(names))
	for i, name := range names {
		items = append(items, ItemInput{
			Name:                 strings.TrimSpace(name),
			Quantity:             parseAmount(at(form["quantity"], i)),
			ExpectedDeliveryDate: at(form["expectedDeliveryDate"], i),
			Status:               at(form["itemStatus"], i),
		})
	}
	return items
}

func parseItem(form url.Values) ItemInput {
	return ItemInput{
		Name:                 strings.TrimSpace(form.Get("itemName")),
		Quantity:             parseAmount(form.Get("quantity")),
		ExpectedDeliveryDate: form.Get("expectedDeliveryDate"),
		ExpectedArrivalDate:  form.Get("expectedArrivalDate"),
		Status:               form.Get("itemStatus"),
	}
}

// splitFiles partitions the stored files into the ones kept by the form and
// the ones removed.
func splitFiles(stored, keep []string) ([]string, []string) {
	keepSet := make(map[string]bool, len(keep))
	for _, f := range keep {
		keepSet[f] = true
	}
	kept := []string{}
	removed := []string{}
	for _, f := range stored {
		if keepSet[f] {
			kept = append(kept, f)
		} else {
			removed = append(removed, f)
		}
	}
	return kept, removed
}

func toUploads(files []httpx.UploadedFile) []Upload {
	out := make([]Upload, len(files))
	for i, f := range files {
		out[i] = Upload{Filename: f.Filename, Content: f.File}
	}
	return out
}

func uploadMessage(err error) string {
	if errors.Is(err, httpx.ErrFileType) {
		return "Only JPG, PNG and PDF files can be uploaded"
	}
	return "The uploaded files could not be read"
}

func parseAmount(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

func pathID(r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	return id, err == nil && id > 0
}

func projectPath(id int64) string {
	if id <= 0 {
		return "/projects"
	}
	return "/projects/" + strconv.FormatInt(id, 10)
}

// returnPath honours a local "return" form value so list pages can post
// status changes and come back.
func returnPath(r *http.Request, fallback string) string {
	ret := r.PostFormValue("return")
	if strings.HasPrefix(ret, "/projects") && !strings.HasPrefix(ret, "//") {
		return ret
	}
	return fallback
}
