package roles

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/projectdesk/projectdesk/internal/identity"
	"github.com/projectdesk/projectdesk/internal/platform/httpx"
	"github.com/projectdesk/projectdesk/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	CreateRole(ctx context.Context, createdBy int64, in RoleInput) error
	UpdateRole(ctx context.Context, id int64, in RoleInput) error
}

// Service handles role business logic.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// ListVisible returns the roles the principal may see or assign.
func (s *Service) ListVisible(ctx context.Context, p identity.Principal) ([]Role, error) {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	return VisibleTo(roles, p, PrincipalLevel(roles, p)), nil
}

// GetRole returns one role.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return Role{}, err
	}
	for _, role := range roles {
		if role.ID == id {
			return role, nil
		}
	}
	return Role{}, fmt.Errorf("role %d: %w", id, httpx.ErrNotFound)
}

// CreateRole creates a role owned by the principal.
func (s *Service) CreateRole(ctx context.Context, p identity.Principal, in RoleInput) error {
	in = normalizeInput(in)
	if err := s.repo.CreateRole(ctx, p.ID, in); err != nil {
		return err
	}
	s.audit.RecordQuiet(ctx, shared.AuditLog{ActorID: p.ID, Action: "role.create", Entity: "role", EntityID: in.Title,
		Meta: map[string]any{"level": in.Level, "granted": in.Matrix.Granted()}})
	return nil
}

// UpdateRole saves the edited role. The matrix is stored as submitted.
func (s *Service) UpdateRole(ctx context.Context, p identity.Principal, id int64, in RoleInput) error {
	in = normalizeInput(in)
	if err := s.repo.UpdateRole(ctx, id, in); err != nil {
		return err
	}
	s.audit.RecordQuiet(ctx, shared.AuditLog{ActorID: p.ID, Action: "role.update", Entity: "role", EntityID: strconv.FormatInt(id, 10),
		Meta: map[string]any{"level": in.Level, "granted": in.Matrix.Granted()}})
	return nil
}

func normalizeInput(in RoleInput) RoleInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Level == 0 {
		in.Level = DefaultLevel
	}
	in.Matrix = in.Matrix.Clone()
	return in
}
