package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/branchline/todotree/internal/apperrors"
	"github.com/branchline/todotree/internal/auth"
	"github.com/branchline/todotree/internal/logger"
	"github.com/branchline/todotree/internal/request"
	"github.com/branchline/todotree/internal/service"
)

// Auth resolves the caller's identity from a bearer token and passes it to
// the next stage through the request context. A valid token whose subject
// no longer exists (account deleted after issuance) is a 404, not a 401:
// the credential itself was fine.
func Auth(tokens *auth.TokenIssuer, users *service.UserService, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, http.StatusUnauthorized, "Token is missing")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				respondError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			publicID, err := tokens.Verify(parts[1])
			if err != nil {
				var ae *apperrors.AuthError
				if errors.As(err, &ae) {
					respondError(w, http.StatusUnauthorized, ae.Message)
					return
				}
				respondError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			user, err := users.Resolve(r.Context(), publicID)
			if err != nil {
				if apperrors.IsNotFound(err) {
					respondError(w, http.StatusNotFound, "User not found")
					return
				}
				log.Error("identity_resolution_failed",
					zap.String("error", logger.SanitizeError(err)),
				)
				respondError(w, http.StatusInternalServerError, "Something went wrong")
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithUser(r.Context(), user)))
		})
	}
}

// respondError writes the API's plain-string error body: a JSON-encoded
// string prefixed "Error: " with a trailing period.
func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(fmt.Sprintf("Error: %s.", message))
}
