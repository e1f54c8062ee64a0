package invoices

import (
	"errors"
	"io"
	"time"
)

// Invoice states.
const (
	StatusPending    = "Pending"
	StatusPaid       = "Paid"
	StatusPartlyPaid = "Partly Paid"
)

// Statuses lists the invoice states offered by the form.
var Statuses = []string{StatusPending, StatusPaid, StatusPartlyPaid}

// ErrLimitExceeded is returned when a new invoice would push the invoiced
// total above the project value net of its advance payment.
var ErrLimitExceeded = errors.New("invoices: invoice limit exceeded")

// Invoice is a bill raised against a project.
type Invoice struct {
	ID          int64
	ProjectID   int64
	TotalAmount float64
	AdvancePaid float64
	Status      string
	FilePath    string
	CreatedAt   time.Time
}

// Project holds the project figures invoices are checked against.
type Project struct {
	ID             int64
	Name           string
	TotalValue     float64
	AdvancePayment float64
}

// InvoiceInput carries the invoice form.
type InvoiceInput struct {
	TotalAmount float64 `validate:"gt=0"`
	AdvancePaid float64 `validate:"gte=0,ltefield=TotalAmount"`
	Status      string  `validate:"oneof=Pending Paid 'Partly Paid'"`
}

// Attachment is the optional invoice document.
type Attachment struct {
	Filename string
	Content  io.Reader
}

// Summary is the finance overview of a project.
type Summary struct {
	TotalCost float64
	Paid      float64
	Balance   float64
}

// Overpaid reports whether more was paid than the project costs.
func (s Summary) Overpaid() bool {
	return s.Balance < 0
}

// BalanceAmount is the magnitude of the balance, for display next to the
// "Balance Due" or "Overpaid" label.
func (s Summary) BalanceAmount() float64 {
	if s.Balance < 0 {
		return -s.Balance
	}
	return s.Balance
}

// Summarize computes the paid amount and balance. Paid invoices count in
// full, others by their advance. The cost is the larger of the project value
// and the invoiced total.
func Summarize(p Project, list []Invoice) Summary {
	paid := p.AdvancePayment
	var invoiced float64
	for _, inv := range list {
		invoiced += inv.TotalAmount
		if inv.Status == StatusPaid {
			paid += inv.TotalAmount
		} else {
			paid += inv.AdvancePaid
		}
	}
	cost := max(p.TotalValue, invoiced)
	return Summary{TotalCost: cost, Paid: paid, Balance: cost - paid}
}

// Limit is the most that may be invoiced for p.
func Limit(p Project) float64 {
	return p.TotalValue - p.AdvancePayment
}

// ExceedsLimit reports whether adding amount to the existing invoices goes
// over the project limit.
func ExceedsLimit(p Project, list []Invoice, amount float64) bool {
	total := amount
	for _, inv := range list {
		total += inv.TotalAmount
	}
	return total > Limit(p)
}
