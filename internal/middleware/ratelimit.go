package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CatalogOperation names the kind of remote catalog call a route makes
type CatalogOperation string

const (
	CatalogSearch CatalogOperation = "search"
	CatalogLookup CatalogOperation = "lookup"
)

// RateLimitConfig budgets remote catalog calls per window
type RateLimitConfig struct {
	// Limits per operation; a missing or zero entry leaves the operation unmetered
	Limits    map[CatalogOperation]int
	Window    time.Duration
	KeyPrefix string
}

// CatalogLimiter counts remote catalog calls per user and operation in fixed
// redis windows, so paging through the list cannot use up the budget for
// barcode lookups. Redis failures let the request through.
type CatalogLimiter struct {
	client *redis.Client
	config RateLimitConfig
	logger *zap.Logger
}

func NewCatalogLimiter(client *redis.Client, config RateLimitConfig, logger *zap.Logger) *CatalogLimiter {
	return &CatalogLimiter{
		client: client,
		config: config,
		logger: logger,
	}
}

// Limit returns middleware that charges one op call per request
func (l *CatalogLimiter) Limit(op CatalogOperation) func(http.Handler) http.Handler {
	limit := l.config.Limits[op]

	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := r.RemoteAddr
			if userID, ok := GetUserID(r.Context()); ok {
				caller = userID
			}
			key := fmt.Sprintf("%s:%s:%s", l.config.KeyPrefix, op, caller)

			used, left, err := l.take(r.Context(), key)
			if err != nil {
				l.logger.Warn("Catalog budget unavailable, allowing request",
					zap.Error(err),
					zap.String("operation", string(op)),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))

			if used > int64(limit) {
				retry := int(math.Ceil(left.Seconds()))
				if retry < 1 {
					retry = 1
				}

				l.logger.Warn("Catalog budget exhausted",
					zap.String("operation", string(op)),
					zap.String("caller", caller),
					zap.Int64("used", used),
					zap.Int("limit", limit),
				)

				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(left).Unix(), 10))
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				RespondWithAlert(w, http.StatusTooManyRequests, "Too Many Requests",
					fmt.Sprintf("Too many product %s requests. Try again in %ds.", op, retry))
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(int64(limit)-used, 10))
			next.ServeHTTP(w, r)
		})
	}
}

// take charges one call against key and returns the calls made in the current
// window and the time until it resets
func (l *CatalogLimiter) take(ctx context.Context, key string) (int64, time.Duration, error) {
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	left := ttl.Val()
	if left < 0 {
		// first call of the window
		if err := l.client.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return 0, 0, err
		}
		left = l.config.Window
	}
	return incr.Val(), left, nil
}
