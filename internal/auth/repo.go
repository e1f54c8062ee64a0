package auth

import (
	"context"

	"github.com/projectdesk/projectdesk/internal/backend"
)

// Repository defines the backend operations used by the auth module.
// *backend.Client satisfies it.
type Repository interface {
	Login(ctx context.Context, email, password string) (backend.LoginResult, error)
	ForgotPassword(ctx context.Context, email string) error
}
