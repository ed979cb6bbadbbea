package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// Recover catches panics from downstream handlers, logs them server-side,
// and returns an opaque 500 to the client.
func Recover(log *zap.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error("panic_recovered",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
					)
					respondError(w, http.StatusInternalServerError, "Something went wrong")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
