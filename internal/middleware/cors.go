package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/branchline/todotree/internal/database"
)

// CORSReloader wraps rs/cors with configuration loaded from the operator
// config table and refreshed on an interval, so allowed origins can be
// changed with the configure CLI without a restart.
type CORSReloader struct {
	next     http.Handler
	repo     *database.CorsConfigRepository
	fallback string
	log      *zap.Logger
	interval time.Duration

	mu      sync.RWMutex
	current http.Handler
}

// NewCORSReloader creates the reloader. fallback is the frontend URL used
// when no config row exists yet.
func NewCORSReloader(repo *database.CorsConfigRepository, fallback string, log *zap.Logger, interval time.Duration) *CORSReloader {
	if log == nil {
		log = zap.NewNop()
	}
	return &CORSReloader{
		repo:     repo,
		fallback: strings.TrimSpace(fallback),
		log:      log,
		interval: interval,
	}
}

// Middleware wraps next with the current CORS policy.
func (c *CORSReloader) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		c.next = next
		c.load(context.Background())
		return c
	}
}

// Start runs the reload loop until ctx is cancelled. Call after
// Middleware has been applied.
func (c *CORSReloader) Start(ctx context.Context) {
	if c.interval <= 0 {
		return
	}
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.load(ctx)
		}
	}
}

func (c *CORSReloader) load(ctx context.Context) {
	if c.next == nil {
		return
	}

	origins := database.AllowedOriginsSlice(c.fallback)
	allowCreds := true
	maxAge := 86400

	cfg, err := c.repo.Get(ctx)
	if err != nil {
		c.log.Warn("cors_config_load_failed", zap.Error(err))
	} else if cfg != nil {
		origins = database.AllowedOriginsSlice(cfg.AllowedOrigins)
		allowCreds = cfg.AllowCredentials
		maxAge = cfg.MaxAge
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	handler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: allowCreds,
		MaxAge:           maxAge,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
	}).Handler(c.next)

	c.mu.Lock()
	c.current = handler
	c.mu.Unlock()
}

// ServeHTTP implements http.Handler.
func (c *CORSReloader) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.RLock()
	h := c.current
	c.mu.RUnlock()
	if h == nil {
		h = c.next
	}
	if h != nil {
		h.ServeHTTP(w, r)
	}
}
