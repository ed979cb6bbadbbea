// Package auth handles credentials: password hashing/policy and the
// issuance and verification of bearer tokens. Tokens are HS256-signed JWTs
// whose subject is the user's public identifier, never the internal id.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/branchline/todotree/internal/apperrors"
)

// DefaultTokenTTL is the validity window for issued tokens.
const DefaultTokenTTL = 60 * time.Minute

// TokenIssuer mints and verifies bearer tokens with a shared HMAC secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates a TokenIssuer. A non-positive ttl falls back to
// DefaultTokenTTL.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue mints a signed token for the given public user id.
func (i *TokenIssuer) Issue(publicID string) (string, error) {
	now := time.Now()
	tok, err := jwt.NewBuilder().
		Subject(publicID).
		IssuedAt(now).
		Expiration(now.Add(i.ttl)).
		Build()
	if err != nil {
		return "", fmt.Errorf("build token: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, i.secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return string(signed), nil
}

// Verify parses and validates a token and returns its subject (the user's
// public id). Expired tokens and tokens that fail signature or structural
// checks surface as distinct AuthErrors so the handler can report them
// separately.
func (i *TokenIssuer) Verify(tokenString string) (string, error) {
	tok, err := jwt.Parse([]byte(tokenString),
		jwt.WithKey(jwa.HS256, i.secret),
		jwt.WithValidate(true),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired()) {
			return "", apperrors.NewAuth("Token has expired")
		}
		return "", apperrors.NewAuth("Invalid token")
	}
	sub := tok.Subject()
	if sub == "" {
		return "", apperrors.NewAuth("Invalid token")
	}
	return sub, nil
}
