package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields Directus puts in its access tokens
type Claims struct {
	UserID      string `json:"id"`
	Role        string `json:"role"`
	AppAccess   bool   `json:"app_access"`
	AdminAccess bool   `json:"admin_access"`
	jwt.RegisteredClaims
}

// PeekClaims decodes token without verifying its signature. The result is
// for display only and must not be used for authorization decisions.
func PeekClaims(token string) (Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
	return claims, nil
}

// ExpiresIn returns the time left before the token expires, or 0 when it
// carries no expiry or is already expired.
func (c Claims) ExpiresIn(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	if left := c.ExpiresAt.Sub(now); left > 0 {
		return left
	}
	return 0
}

// Expired reports whether the token's expiry has passed
func (c Claims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(c.ExpiresAt.Time)
}
