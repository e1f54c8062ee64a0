package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenInvalid covers absent tokens, undecodable tokens and tokens
// without an expiry claim.
var ErrTokenInvalid = errors.New("identity: token invalid")

// DecodeExpiry reads the exp claim without verifying the signature. The
// backend verifies tokens; the console only needs to know when to stop
// using one.
func DecodeExpiry(token string) (time.Time, error) {
	if token == "" {
		return time.Time{}, ErrTokenInvalid
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, ErrTokenInvalid
	}
	return exp.Time, nil
}
