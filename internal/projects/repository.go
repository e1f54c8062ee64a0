package projects

import (
	"context"
	"strconv"
	"strings"

	"github.com/projectdesk/projectdesk/internal/backend"
)

// Repository reads and writes projects and their lead-time items through the
// backend API.
type Repository struct {
	client *backend.Client
}

// NewRepository constructs a repository.
func NewRepository(client *backend.Client) *Repository {
	return &Repository{client: client}
}

// ListProjects returns every project, archived ones included.
func (r *Repository) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := r.client.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Project, len(rows))
	for i, row := range rows {
		out[i] = toDomainProject(row)
	}
	return out, nil
}

// GetProject returns one project.
func (r *Repository) GetProject(ctx context.Context, id int64) (Project, error) {
	row, err := r.client.GetProject(ctx, id)
	if err != nil {
		return Project{}, err
	}
	return toDomainProject(row), nil
}

// CreateProject submits a new project and returns its id.
func (r *Repository) CreateProject(ctx context.Context, in ProjectInput, uploads []Upload) (int64, error) {
	form := projectForm(in)
	attach(form, uploads)
	created, err := r.client.CreateProject(ctx, form)
	if err != nil {
		return 0, err
	}
	return created.ID, nil
}

// UpdateProject submits the edited project. kept lists the stored files that
// remain, removed the ones the user dropped.
func (r *Repository) UpdateProject(ctx context.Context, id int64, in ProjectInput, kept, removed []string, uploads []Upload) error {
	form := projectForm(in)
	form.SetJSON("fileUrls", nonNil(kept))
	form.SetJSON("removedFiles", nonNil(removed))
	attach(form, uploads)
	return r.client.UpdateProject(ctx, id, form)
}

// UpdateStatus changes the project status.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.client.UpdateProjectStatus(ctx, id, status)
}

// ArchiveProject soft-deletes a project.
func (r *Repository) ArchiveProject(ctx context.Context, id int64) error {
	return r.client.ArchiveProject(ctx, id)
}

// ListItems returns the lead-time items of a project.
func (r *Repository) ListItems(ctx context.Context, projectID int64) ([]Item, error) {
	rows, err := r.client.ListItems(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make([]Item, len(rows))
	for i, row := range rows {
		out[i] = Item{
			ID:                   row.ID,
			ProjectID:            row.ProjectID,
			Name:                 row.ItemName,
			Quantity:             row.Quantity.Float(),
			ExpectedDeliveryDate: row.ExpectedDeliveryDate.Time,
			ExpectedArrivalDate:  row.ExpectedArrivalDate.Time,
			Status:               row.Status,
		}
	}
	return out, nil
}

// CreateItem adds a lead-time item to a project.
func (r *Repository) CreateItem(ctx context.Context, projectID int64, in ItemInput) error {
	item, err := toBackendItem(projectID, in)
	if err != nil {
		return err
	}
	_, err = r.client.CreateItem(ctx, item)
	return err
}

// UpdateItem replaces a lead-time item.
func (r *Repository) UpdateItem(ctx context.Context, projectID, id int64, in ItemInput) error {
	item, err := toBackendItem(projectID, in)
	if err != nil {
		return err
	}
	item.ID = id
	return r.client.UpdateItem(ctx, item)
}

// DeleteItem removes a lead-time item.
func (r *Repository) DeleteItem(ctx context.Context, id int64) error {
	return r.client.DeleteItem(ctx, id)
}

// InvoiceTotals returns the number of invoices of a project and their sum.
func (r *Repository) InvoiceTotals(ctx context.Context, projectID int64) (int, float64, error) {
	rows, err := r.client.ListInvoices(ctx, projectID)
	if err != nil {
		return 0, 0, err
	}
	var total float64
	for _, row := range rows {
		total += row.TotalAmount.Float()
	}
	return len(rows), total, nil
}

// ListMembers returns every user as an assignable member.
func (r *Repository) ListMembers(ctx context.Context) ([]Member, error) {
	rows, err := r.client.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return toMembers(rows), nil
}

// MembersByRole returns the users holding role.
func (r *Repository) MembersByRole(ctx context.Context, role string) ([]Member, error) {
	rows, err := r.client.UsersByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	return toMembers(rows), nil
}

// ListCustomers returns the clients a project can belong to.
func (r *Repository) ListCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := r.client.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Customer, len(rows))
	for i, row := range rows {
		out[i] = Customer{ID: row.ID, FullName: row.FullName, Email: row.Email}
	}
	return out, nil
}

func projectForm(in ProjectInput) *backend.Form {
	form := backend.NewForm().
		Set("name", in.Name).
		Set("type", in.Type).
		Set("clientName", in.ClientName).
		Set("description", in.Description).
		Set("startDate", in.StartDate).
		Set("estimatedCompletion", in.EstimatedCompletion).
		SetNumber("totalValue", in.TotalValue).
		SetNumber("advancePayment", in.AdvancePayment).
		Set("deliveryAddress", in.DeliveryAddress).
		Set("deliveryHours", in.DeliveryHours).
		Set("status", in.Status).
		Set("allowClientView", strconv.FormatBool(in.AllowClientView)).
		Set("allowComments", strconv.FormatBool(in.AllowComments)).
		Set("enableNotifications", strconv.FormatBool(in.EnableNotifications))
	if in.ClientID > 0 {
		form.Set("clientId", strconv.FormatInt(in.ClientID, 10))
	}
	team := make([]backend.TeamRole, 0, len(in.Team))
	for _, entry := range in.Team {
		team = append(team, backend.TeamRole{Role: entry.Role, Users: nonNilIDs(entry.Users)})
	}
	return form.SetJSON("assignedTeamRoles", team)
}

func attach(form *backend.Form, uploads []Upload) {
	for _, upload := range uploads {
		form.Attach(backend.Upload{Field: "files", Filename: upload.Filename, Content: upload.Content})
	}
}

func toDomainProject(row backend.Project) Project {
	team := make([]TeamAssignment, len(row.AssignedTeamRoles))
	for i, entry := range row.AssignedTeamRoles {
		team[i] = TeamAssignment{Role: entry.Role, Users: entry.Users}
	}
	return Project{
		ID:                  row.ID,
		Name:                row.Name,
		Type:                row.Type,
		Description:         row.Description,
		ClientName:          row.ClientName,
		ClientID:            row.ClientID,
		Status:              row.Status,
		TotalValue:          row.TotalValue.Float(),
		AdvancePayment:      row.AdvancePayment.Float(),
		DeliveryAddress:     row.DeliveryAddress,
		DeliveryHours:       row.DeliveryHours,
		StartDate:           row.StartDate.Time,
		EstimatedCompletion: row.EstimatedCompletion.Time,
		Team:                team,
		Files:               []string(row.FileURLs),
		AllowClientView:     row.AllowClientView,
		AllowComments:       row.AllowComments,
		EnableNotifications: row.EnableNotifications,
		Archived:            row.IsArchived,
		CreatedAt:           row.CreatedAt.Time,
	}
}

func toBackendItem(projectID int64, in ItemInput) (backend.Item, error) {
	delivery, err := backend.ParseTimestamp(in.ExpectedDeliveryDate)
	if err != nil {
		return backend.Item{}, err
	}
	arrival, err := backend.ParseTimestamp(in.ExpectedArrivalDate)
	if err != nil {
		return backend.Item{}, err
	}
	return backend.Item{
		ProjectID:            projectID,
		ItemName:             in.Name,
		Quantity:             backend.Number(in.Quantity),
		ExpectedDeliveryDate: backend.Timestamp{Time: delivery},
		ExpectedArrivalDate:  backend.Timestamp{Time: arrival},
		Status:               in.Status,
	}, nil
}

func toMembers(rows []backend.User) []Member {
	out := make([]Member, len(rows))
	for i, row := range rows {
		out[i] = Member{ID: row.ID, Name: strings.TrimSpace(row.FirstName + " " + row.LastName)}
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func nonNilIDs(values []int64) []int64 {
	if values == nil {
		return []int64{}
	}
	return values
}
