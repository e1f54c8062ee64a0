package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
	// ErrSealedValue is returned when a sealed value cannot be opened.
	ErrSealedValue = errors.New("sealed value invalid")
)

// SafeMessage is implemented by errors carrying text fit for end users.
type SafeMessage interface {
	UserMessage() string
}

// UserSafeMessage returns text that can be shown on a page for err.
func UserSafeMessage(err error) string {
	if err == nil {
		return ""
	}
	var safe SafeMessage
	if errors.As(err, &safe) {
		if msg := safe.UserMessage(); msg != "" {
			return msg
		}
	}
	return "Something went wrong, please try again."
}
