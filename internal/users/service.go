package users

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/projectdesk/projectdesk/internal/identity"
	"github.com/projectdesk/projectdesk/internal/platform/httpx"
	"github.com/projectdesk/projectdesk/internal/roles"
	"github.com/projectdesk/projectdesk/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, createdBy int64, in UserInput) error
	UpdateUser(ctx context.Context, id int64, in UserInput) error
}

// RoleLister supplies the roles a principal may assign.
type RoleLister interface {
	ListVisible(ctx context.Context, p identity.Principal) ([]roles.Role, error)
}

// Service handles user business logic.
type Service struct {
	repo  RepositoryPort
	roles RoleLister
	audit *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, roles RoleLister, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, roles: roles, audit: audit}
}

// ListUsers returns all users, optionally filtered by a search term on name
// or email, ordered by first name.
func (s *Service) ListUsers(ctx context.Context, search string) ([]User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	search = strings.ToLower(strings.TrimSpace(search))
	out := users[:0]
	for _, u := range users {
		if search == "" ||
			strings.Contains(strings.ToLower(u.FullName()), search) ||
			strings.Contains(strings.ToLower(u.Email), search) {
			out = append(out, u)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].FirstName) < strings.ToLower(out[j].FirstName)
	})
	return out, nil
}

// GetUser returns one user.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return User{}, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, fmt.Errorf("user %d: %w", id, httpx.ErrNotFound)
}

// RoleChoices returns the roles the principal may assign to a user.
func (s *Service) RoleChoices(ctx context.Context, p identity.Principal) ([]roles.Role, error) {
	return s.roles.ListVisible(ctx, p)
}

// CreateUser registers a user created by the principal.
func (s *Service) CreateUser(ctx context.Context, p identity.Principal, in UserInput) error {
	if err := s.repo.CreateUser(ctx, p.ID, in); err != nil {
		return err
	}
	s.audit.RecordQuiet(ctx, shared.AuditLog{ActorID: p.ID, Action: "user.create", Entity: "user", EntityID: in.Email,
		Meta: map[string]any{"role": in.Role}})
	return nil
}

// UpdateUser edits a user.
func (s *Service) UpdateUser(ctx context.Context, p identity.Principal, id int64, in UserInput) error {
	if err := s.repo.UpdateUser(ctx, id, in); err != nil {
		return err
	}
	s.audit.RecordQuiet(ctx, shared.AuditLog{ActorID: p.ID, Action: "user.update", Entity: "user", EntityID: strconv.FormatInt(id, 10),
		Meta: map[string]any{"role": in.Role, "status": in.Status}})
	return nil
}
