package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/projectdesk/projectdesk/internal/platform/httpx"
)

// APIError describes a failed backend call. It unwraps to one of the httpx
// sentinel errors so callers can branch with errors.Is.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("backend: %s %s: %v", e.Method, e.Path, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("backend: %s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("backend: %s %s: %d", e.Method, e.Path, e.Status)
}

// Unwrap exposes the mapped sentinel or transport error.
func (e *APIError) Unwrap() error {
	if e.Status == 0 {
		return errors.Join(httpx.ErrUpstream, e.Err)
	}
	return httpx.ErrorForStatus(e.Status)
}

// UserMessage returns the backend supplied explanation, if any.
func (e *APIError) UserMessage() string {
	return e.Message
}

// IsUnauthorized reports whether err means the bearer token was rejected.
func IsUnauthorized(err error) bool {
	return errors.Is(err, httpx.ErrUnauthorized)
}

func newAPIError(method, path string, resp *http.Response) *APIError {
	apiErr := &APIError{Method: method, Path: path, Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		apiErr.Message = payload.Error
		if apiErr.Message == "" {
			apiErr.Message = payload.Message
		}
	}
	if apiErr.Message == "" && resp.StatusCode < 500 {
		apiErr.Message = strings.TrimSpace(string(raw))
		if len(apiErr.Message) > 200 || strings.HasPrefix(apiErr.Message, "<") {
			apiErr.Message = ""
		}
	}
	return apiErr
}
