package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/branchline/todotree/internal/database"
)

// HealthChecker reports process liveness and, in extended mode, the
// health of the storage dependencies.
type HealthChecker struct {
	db    *database.DB
	redis *redis.Client
}

// NewHealthChecker creates a HealthChecker. The redis client may be nil
// when rate limiting is disabled.
func NewHealthChecker(db *database.DB, redisClient *redis.Client) *HealthChecker {
	return &HealthChecker{db: db, redis: redisClient}
}

type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles GET /healthz. With ?mode=extended it pings the
// database and redis and degrades to 503 when either fails.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	status := http.StatusOK
	if r.URL.Query().Get("mode") == "extended" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		resp.Checks = map[string]string{}
		if err := h.db.PingContext(ctx); err != nil {
			resp.Status = "unhealthy"
			resp.Checks["database"] = "unhealthy"
		} else {
			resp.Checks["database"] = "healthy"
		}
		if h.redis != nil {
			if err := h.redis.Ping(ctx).Err(); err != nil {
				resp.Status = "unhealthy"
				resp.Checks["redis"] = "unhealthy"
			} else {
				resp.Checks["redis"] = "healthy"
			}
		}
		if resp.Status == "unhealthy" {
			status = http.StatusServiceUnavailable
		}
	}

	respondJSON(w, status, resp)
}
