package customers

import (
	"context"
	"strings"

	"github.com/projectdesk/projectdesk/internal/backend"
)

// Repository reads customers and their projects through the backend API.
type Repository struct {
	client *backend.Client
}

// NewRepository constructs a repository.
func NewRepository(client *backend.Client) *Repository {
	return &Repository{client: client}
}

// ListCustomers returns every customer.
func (r *Repository) ListCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := r.client.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Customer, len(rows))
	for i, row := range rows {
		out[i] = Customer{ID: row.ID, FullName: row.FullName, Email: row.Email, Phone: row.Phone}
	}
	return out, nil
}

// ListDocuments returns the documents of a customer.
func (r *Repository) ListDocuments(ctx context.Context, customerID int64) ([]Document, error) {
	rows, err := r.client.ListCustomerDocuments(ctx, customerID)
	if err != nil {
		return nil, err
	}
	out := make([]Document, len(rows))
	for i, row := range rows {
		out[i] = Document{ID: row.ID, Type: row.DocumentType, FilePath: row.FilePath, CreatedAt: row.CreatedAt.Time}
	}
	return out, nil
}

// ProjectsFor returns the projects whose client name matches the customer,
// ignoring case. Team members are resolved to display names; roles without
// any known member are left out.
func (r *Repository) ProjectsFor(ctx context.Context, clientName string, names map[int64]string) ([]Project, error) {
	rows, err := r.client.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	var out []Project
	for _, row := range rows {
		if row.IsArchived || !strings.EqualFold(strings.TrimSpace(row.ClientName), strings.TrimSpace(clientName)) {
			continue
		}
		p := Project{
			ID:                  row.ID,
			Name:                row.Name,
			Type:                row.Type,
			Description:         row.Description,
			Status:              row.Status,
			TotalValue:          row.TotalValue.Float(),
			DeliveryAddress:     row.DeliveryAddress,
			StartDate:           row.StartDate.Time,
			EstimatedCompletion: row.EstimatedCompletion.Time,
		}
		for _, role := range row.AssignedTeamRoles {
			line := TeamLine{Role: role.Role}
			for _, id := range role.Users {
				if name, ok := names[id]; ok {
					line.Members = append(line.Members, name)
				}
			}
			if len(line.Members) > 0 {
				p.Team = append(p.Team, line)
			}
		}
		out = append(out, p)
	}
	return out, nil
}

// StaffNames maps user ids to full names.
func (r *Repository) StaffNames(ctx context.Context) (map[int64]string, error) {
	rows, err := r.client.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]string, len(rows))
	for _, row := range rows {
		out[row.ID] = strings.TrimSpace(row.FirstName + " " + row.LastName)
	}
	return out, nil
}
