package invoices

import (
	"context"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/projectdesk/projectdesk/internal/identity"
	"github.com/projectdesk/projectdesk/internal/shared"
)

// RepositoryPort defines data access methods for invoices.
type RepositoryPort interface {
	GetProject(ctx context.Context, id int64) (Project, error)
	ListInvoices(ctx context.Context, projectID int64) ([]Invoice, error)
	CreateInvoice(ctx context.Context, projectID int64, in InvoiceInput, file *Attachment) error
	UpdateInvoice(ctx context.Context, projectID, id int64, in InvoiceInput, file *Attachment) error
	DeleteInvoice(ctx context.Context, projectID, id int64) error
}

// Overview is the invoice page of a project.
type Overview struct {
	Project  Project
	Invoices []Invoice
	Summary  Summary
}

// Service handles invoice business logic.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// Overview loads the project and its invoices concurrently.
func (s *Service) Overview(ctx context.Context, projectID int64) (Overview, error) {
	var out Overview
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.repo.GetProject(ctx, projectID)
		out.Project = p
		return err
	})
	g.Go(func() error {
		list, err := s.repo.ListInvoices(ctx, projectID)
		out.Invoices = list
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	out.Summary = Summarize(out.Project, out.Invoices)
	return out, nil
}

// Create raises an invoice unless it would exceed the project limit, in
// which case ErrLimitExceeded is returned and nothing is sent.
func (s *Service) Create(ctx context.Context, p identity.Principal, projectID int64, in InvoiceInput, file *Attachment) error {
	overview, err := s.Overview(ctx, projectID)
	if err != nil {
		return err
	}
	if ExceedsLimit(overview.Project, overview.Invoices, in.TotalAmount) {
		return ErrLimitExceeded
	}
	if err := s.repo.CreateInvoice(ctx, projectID, in, file); err != nil {
		return err
	}
	s.audit.RecordQuiet(ctx, shared.AuditLog{ActorID: p.ID, Action: "invoice.create", Entity: "project", EntityID: strconv.FormatInt(projectID, 10),
		Meta: map[string]any{"amount": in.TotalAmount, "status": in.Status}})
	return nil
}

// Update edits an invoice.
func (s *Service) Update(ctx context.Context, p identity.Principal, projectID, id int64, in InvoiceInput, file *Attachment) error {
	if err := s.repo.UpdateInvoice(ctx, projectID, id, in, file); err != nil {
		return err
	}
	s.audit.RecordQuiet(ctx, shared.AuditLog{ActorID: p.ID, Action: "invoice.update", Entity: "invoice", EntityID: strconv.FormatInt(id, 10),
		Meta: map[string]any{"project_id": projectID, "status": in.Status}})
	return nil
}

// Delete removes an invoice.
func (s *Service) Delete(ctx context.Context, p identity.Principal, projectID, id int64) error {
	if err := s.repo.DeleteInvoice(ctx, projectID, id); err != nil {
		return err
	}
	s.audit.RecordQuiet(ctx, shared.AuditLog{ActorID: p.ID, Action: "invoice.delete", Entity: "invoice", EntityID: strconv.FormatInt(id, 10),
		Meta: map[string]any{"project_id": projectID}})
	return nil
}
