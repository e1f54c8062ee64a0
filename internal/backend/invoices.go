package backend

import (
	"context"
	"net/http"
)

// Invoice is a project invoice.
type Invoice struct {
	ID              int64     `json:"id"`
	ProjectID       int64     `json:"projectId"`
	TotalAmount     Number    `json:"totalAmount"`
	AdvancePaid     Number    `json:"advancePaid"`
	Status          string    `json:"status"`
	InvoiceFilePath string    `json:"invoiceFilePath"`
	CreatedAt       Timestamp `json:"createdAt"`
}

// ListInvoices returns the invoices of a project.
func (c *Client) ListInvoices(ctx context.Context, projectID int64) ([]Invoice, error) {
	var out []Invoice
	if err := c.getJSON(ctx, idPath("/projects/%d/invoice", projectID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateInvoice submits a multipart invoice form.
func (c *Client) CreateInvoice(ctx context.Context, projectID int64, form *Form) error {
	return c.sendForm(ctx, http.MethodPost, idPath("/projects/%d/invoice", projectID), form, nil)
}

// UpdateInvoice replaces an invoice.
func (c *Client) UpdateInvoice(ctx context.Context, projectID, invoiceID int64, form *Form) error {
	return c.sendForm(ctx, http.MethodPut, idPath("/projects/%d/invoice/%d", projectID, invoiceID), form, nil)
}

// DeleteInvoice removes an invoice.
func (c *Client) DeleteInvoice(ctx context.Context, projectID, invoiceID int64) error {
	return c.sendJSON(ctx, http.MethodDelete, idPath("/projects/%d/invoice/%d", projectID, invoiceID), nil, nil)
}
