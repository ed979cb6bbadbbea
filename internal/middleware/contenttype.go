package middleware

import (
	"net/http"
	"strings"
)

// ContentType rejects body-carrying requests that do not declare a JSON
// payload. Requests without a body (GET, DELETE) pass through untouched.
func ContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut {
			ct := r.Header.Get("Content-Type")
			if ct == "" {
				respondError(w, http.StatusBadRequest, "Content-Type header is required")
				return
			}
			if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
				respondError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}
