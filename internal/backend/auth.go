package backend

import (
	"context"
	"net/http"
)

// SessionUser is the user summary returned by a successful login.
type SessionUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	UserRole  string `json:"userRole"`
	RoleID    int64  `json:"roleId"`
}

// LoginResult carries the bearer token and the authenticated user.
type LoginResult struct {
	Token string      `json:"token"`
	User  SessionUser `json:"user"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var out LoginResult
	in := map[string]string{"email": email, "password": password}
	if err := c.sendJSON(ctx, http.MethodPost, "/auth/login", in, &out); err != nil {
		return LoginResult{}, err
	}
	return out, nil
}

// ForgotPassword asks the backend to send a reset email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.sendJSON(ctx, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email}, nil)
}
