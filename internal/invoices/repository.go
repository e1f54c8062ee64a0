package invoices

import (
	"context"

	"github.com/projectdesk/projectdesk/internal/backend"
)

// Repository reads and writes invoices through the backend API.
type Repository struct {
	client *backend.Client
}

// NewRepository constructs a repository.
func NewRepository(client *backend.Client) *Repository {
	return &Repository{client: client}
}

// GetProject returns the figures of the invoiced project.
func (r *Repository) GetProject(ctx context.Context, id int64) (Project, error) {
	row, err := r.client.GetProject(ctx, id)
	if err != nil {
		return Project{}, err
	}
	return Project{ID: row.ID, Name: row.Name, TotalValue: row.TotalValue.Float(), AdvancePayment: row.AdvancePayment.Float()}, nil
}

// ListInvoices returns the invoices of a project.
func (r *Repository) ListInvoices(ctx context.Context, projectID int64) ([]Invoice, error) {
	rows, err := r.client.ListInvoices(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make([]Invoice, len(rows))
	for i, row := range rows {
		out[i] = Invoice{
			ID:          row.ID,
			ProjectID:   row.ProjectID,
			TotalAmount: row.TotalAmount.Float(),
			AdvancePaid: row.AdvancePaid.Float(),
			Status:      row.Status,
			FilePath:    row.InvoiceFilePath,
			CreatedAt:   row.CreatedAt.Time,
		}
	}
	return out, nil
}

// CreateInvoice submits a new invoice.
func (r *Repository) CreateInvoice(ctx context.Context, projectID int64, in InvoiceInput, file *Attachment) error {
	return r.client.CreateInvoice(ctx, projectID, invoiceForm(in, file))
}

// UpdateInvoice replaces an invoice.
func (r *Repository) UpdateInvoice(ctx context.Context, projectID, id int64, in InvoiceInput, file *Attachment) error {
	return r.client.UpdateInvoice(ctx, projectID, id, invoiceForm(in, file))
}

// DeleteInvoice removes an invoice.
func (r *Repository) DeleteInvoice(ctx context.Context, projectID, id int64) error {
	return r.client.DeleteInvoice(ctx, projectID, id)
}

func invoiceForm(in InvoiceInput, file *Attachment) *backend.Form {
	form := backend.NewForm().
		SetNumber("totalAmount", in.TotalAmount).
		SetNumber("advancePaid", in.AdvancePaid).
		Set("status", in.Status)
	if file != nil {
		form.Attach(backend.Upload{Field: "invoice", Filename: file.Filename, Content: file.Content})
	}
	return form
}
