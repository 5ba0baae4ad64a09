package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// ParseClaims reads the subject and expiry from a token without checking its
// signature. The server remains the only judge of validity; this only lets
// the CLI notice a session that has already run out.
func ParseClaims(token string) (*Claims, error) {
	var rc jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &rc); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	c := &Claims{Subject: rc.Subject}
	if rc.ExpiresAt != nil {
		c.ExpiresAt = rc.ExpiresAt.Time
	}
	return c, nil
}

// Expired reports whether the token is past its expiry. A token without exp
// never expires.
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}
