package comments

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/projectdesk/projectdesk/internal/identity"
	"github.com/projectdesk/projectdesk/internal/platform/httpx"
	"github.com/projectdesk/projectdesk/internal/shared"
)

// RepositoryPort defines data access methods for comments.
type RepositoryPort interface {
	ListFileComments(ctx context.Context, projectID int64, filePath string) ([]Comment, error)
	AddFileComment(ctx context.Context, projectID int64, filePath, category, text string, userID int64) error
	ListDocumentComments(ctx context.Context, documentID int64) ([]Comment, error)
	AddDocumentComment(ctx context.Context, documentID int64, text string, userID int64) error
}

// Service handles comment threads.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
	loc   *time.Location
}

// Option configures a Service.
type Option func(*Service)

// WithLocation sets the zone threads are grouped into days by.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewService builds Service instance. Threads are grouped in the host's
// local zone unless WithLocation says otherwise.
func NewService(repo RepositoryPort, audit *shared.AuditLogger, opts ...Option) *Service {
	s := &Service{repo: repo, audit: audit, loc: time.Local}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FileThread returns the comments on a project file grouped by day.
func (s *Service) FileThread(ctx context.Context, projectID int64, filePath string) ([]Group, error) {
	list, err := s.repo.ListFileComments(ctx, projectID, filePath)
	if err != nil {
		return nil, err
	}
	return GroupByDay(list, s.loc), nil
}

// DocumentThread returns the comments on a customer document grouped by day.
func (s *Service) DocumentThread(ctx context.Context, documentID int64) ([]Group, error) {
	list, err := s.repo.ListDocumentComments(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return GroupByDay(list, s.loc), nil
}

// CommentOnFile posts a comment on a project file.
func (s *Service) CommentOnFile(ctx context.Context, p identity.Principal, projectID int64, filePath, category, text string) error {
	text, err := check(p, text)
	if err != nil {
		return err
	}
	if strings.TrimSpace(filePath) == "" {
		return fmt.Errorf("comments: no file selected: %w", httpx.ErrValidation)
	}
	if err := s.repo.AddFileComment(ctx, projectID, filePath, category, text, p.ID); err != nil {
		return err
	}
	s.audit.RecordQuiet(ctx, shared.AuditLog{ActorID: p.ID, Action: "comment.file", Entity: "project", EntityID: strconv.FormatInt(projectID, 10),
		Meta: map[string]any{"file": filePath}})
	return nil
}

// CommentOnDocument posts a comment on a customer document.
func (s *Service) CommentOnDocument(ctx context.Context, p identity.Principal, documentID int64, text string) error {
	text, err := check(p, text)
	if err != nil {
		return err
	}
	if err := s.repo.AddDocumentComment(ctx, documentID, text, p.ID); err != nil {
		return err
	}
	s.audit.RecordQuiet(ctx, shared.AuditLog{ActorID: p.ID, Action: "comment.document", Entity: "customer_document", EntityID: strconv.FormatInt(documentID, 10)})
	return nil
}

func check(p identity.Principal, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: %w", ErrEmptyMessage, httpx.ErrValidation)
	}
	if p.ID <= 0 {
		return "", fmt.Errorf("%w: %w", ErrNoAuthor, httpx.ErrValidation)
	}
	return text, nil
}
