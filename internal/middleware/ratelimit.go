package middleware

import (
	"context"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/branchline/todotree/internal/database"
	"github.com/branchline/todotree/internal/models"
	"github.com/branchline/todotree/internal/request"
)

const defaultRatelimitRate = "5-S"

// RateLimit builds a per-client-IP limiter backed by Redis. The rate is
// read from the operator config table; when none is stored yet the
// default is persisted so subsequent restarts and the configure CLI see
// the same value.
func RateLimit(ctx context.Context, redisClient *redis.Client, repo *database.RatelimitConfigRepository, defaultRate string) (func(http.Handler) http.Handler, error) {
	if defaultRate == "" {
		defaultRate = defaultRatelimitRate
	}

	cfg, err := repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	rateStr := defaultRate
	if cfg != nil && cfg.Rate != "" {
		rateStr = cfg.Rate
	} else if err := repo.Set(ctx, &models.RatelimitConfig{Rate: defaultRate}); err != nil {
		return nil, err
	}

	rate, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		return nil, err
	}
	store, err := redisstore.NewStore(redisClient)
	if err != nil {
		return nil, err
	}

	mw := stdlibmw.NewMiddleware(limiter.New(store, rate), stdlibmw.WithKeyGetter(func(r *http.Request) string {
		return request.ClientIP(r)
	}))
	return mw.Handler, nil
}
