package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// anonClaims is the internal claims type used for JWT parsing
type anonClaims struct {
	jwt.RegisteredClaims
	IdentityID string `json:"identity_id"`
}

// AnonTokenCodec signs and verifies the anonymous-identity cookie.
// Tokens are HS256 JWTs carrying the identity ID; nothing is persisted
// server-side. A token that fails signature or expiry checks is simply
// treated as absent.
type AnonTokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAnonTokenCodec creates a codec with the given signing secret and TTL
func NewAnonTokenCodec(secret string, ttl time.Duration) *AnonTokenCodec {
	return &AnonTokenCodec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Sign issues a time-bounded token for an anonymous identity
func (c *AnonTokenCodec) Sign(identityID string) (string, error) {
	now := c.now()
	claims := anonClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		IdentityID: identityID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign anonymous token: %w", err)
	}

	return signed, nil
}

// Verify returns the identity ID carried by a valid token, or "" for
// anything invalid or expired. Invalid tokens are not errors: resolution
// degrades to the next rule.
func (c *AnonTokenCodec) Verify(token string) string {
	if token == "" {
		return ""
	}

	var parsed anonClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return ""
	}

	return parsed.IdentityID
}
