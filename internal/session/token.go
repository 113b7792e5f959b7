package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// inspect checks a token's shape and expiry without verifying the
// signature; only the server can do that. Tokens that are not shaped like
// a JWT are treated as opaque: their expiry is unknown and the user fetch
// decides whether they still work. A token with whitespace, or one with
// three segments that fails to parse, is malformed.
func inspect(token string, now time.Time) error {
	if strings.ContainsAny(token, " \t\r\n") {
		return fmt.Errorf("%w: token contains whitespace", ErrInvalidToken)
	}
	if strings.Count(token, ".") != 2 {
		return nil
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(now) {
		return fmt.Errorf("%w: expired at %s", ErrInvalidToken, claims.ExpiresAt.Time.Format(time.RFC3339))
	}
	return nil
}

// ExpiresAt returns the expiry claim of a token, if it has one
func ExpiresAt(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
