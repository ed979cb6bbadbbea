// Package request holds helpers tied to the incoming HTTP request: the
// resolved-identity context value and client address extraction.
package request

import (
	"context"
	"net/http"
	"strings"

	"github.com/branchline/todotree/internal/models"
)

type contextKey string

const userContextKey contextKey = "user"

// WithUser returns a context carrying the resolved user. The identity is
// always passed explicitly through the context by the auth middleware,
// never through package-level state.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// User extracts the resolved user from the request context, or nil when
// the request never passed the auth middleware.
func User(r *http.Request) *models.User {
	user, ok := r.Context().Value(userContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// ClientIP extracts the client address, honoring X-Forwarded-For and
// X-Real-IP set by proxies.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return r.RemoteAddr
}
