package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/felixgeelhaar/memorymap/internal/errors"
)

// AccessClaims are the claims carried by a backend access token.
//
// The backend issues simplejwt tokens: standard registered claims plus
// token_type and user_id.
type AccessClaims struct {
	jwt.RegisteredClaims

	// TokenType is "access" for access tokens, "refresh" for refresh tokens
	TokenType string `json:"token_type"`

	// UserID is the backend user id (numeric or string depending on the backend)
	UserID any `json:"user_id"`
}

// ParseAccessToken extracts claims from a token without verifying its
// signature. The client has no signing key; this is for display only and is
// never used to decide whether a session is valid.
func ParseAccessToken(tokenString string) (*AccessClaims, error) {
	if tokenString == "" {
		return nil, errors.New(errors.ErrCodeAuthTokenMalformed, "token cannot be empty")
	}

	token, _, err := jwt.NewParser().ParseUnverified(tokenString, &AccessClaims{})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAuthTokenMalformed, "failed to parse token", err)
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok {
		return nil, errors.New(errors.ErrCodeAuthTokenMalformed, "invalid token claims")
	}

	return claims, nil
}

// Expiry returns the expiry time, or the zero time when the token has none.
func (c *AccessClaims) Expiry() time.Time {
	if c.RegisteredClaims.ExpiresAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.ExpiresAt.Time
}

// Expired reports whether the token expired before now. Tokens without an
// expiry never expire.
func (c *AccessClaims) Expired(now time.Time) bool {
	exp := c.Expiry()
	return !exp.IsZero() && now.After(exp)
}

// User returns the user id claim as a string.
func (c *AccessClaims) User() string {
	switch v := c.UserID.(type) {
	case nil:
		return c.RegisteredClaims.Subject
	case float64:
		return fmt.Sprintf("%d", int64(v))
	default:
		return fmt.Sprint(v)
	}
}
