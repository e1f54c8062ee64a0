package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/projectdesk/projectdesk/internal/identity"
	"github.com/projectdesk/projectdesk/internal/platform/httpx"
	"github.com/projectdesk/projectdesk/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate exchanges credentials for a principal. Rejections by the
// backend collapse into shared.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (identity.Principal, error) {
	result, err := s.repo.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		if errors.Is(err, httpx.ErrUnauthorized) || errors.Is(err, httpx.ErrValidation) || errors.Is(err, httpx.ErrNotFound) {
			return identity.Principal{}, shared.ErrInvalidCredentials
		}
		return identity.Principal{}, err
	}
	if result.Token == "" || result.User.ID == 0 {
		return identity.Principal{}, shared.ErrInvalidCredentials
	}
	return identity.Principal{
		ID:        result.User.ID,
		FirstName: result.User.FirstName,
		Role:      result.User.UserRole,
		RoleID:    result.User.RoleID,
		Token:     result.Token,
	}, nil
}

// RequestPasswordReset asks the backend to mail a reset link.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	return s.repo.ForgotPassword(ctx, strings.TrimSpace(email))
}
