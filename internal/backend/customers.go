package backend

import "context"

// Customer is an end client of the business.
type Customer struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Document is a file uploaded for or by a customer.
type Document struct {
	ID           int64     `json:"id"`
	CustomerID   int64     `json:"customerId"`
	DocumentType string    `json:"documentType"`
	FilePath     string    `json:"filePath"`
	CreatedAt    Timestamp `json:"createdAt"`
}

// ListCustomers returns every customer.
func (c *Client) ListCustomers(ctx context.Context) ([]Customer, error) {
	var out []Customer
	if err := c.getJSON(ctx, "/customers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListCustomerDocuments returns the documents of a customer.
func (c *Client) ListCustomerDocuments(ctx context.Context, customerID int64) ([]Document, error) {
	var out []Document
	if err := c.getJSON(ctx, idPath("/customers/%d/documents", customerID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
