package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultRateLimitConfig allows a sustained one request per second per
// client with bursts of up to a minute's worth.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 1,
		BurstSize:         60,
	}
}

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter decides whether the client identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// MemoryLimiter keeps one token bucket per key in process memory. It is
// exact for a single replica; use RedisLimiter when running several.
type MemoryLimiter struct {
	cfg      RateLimitConfig
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

func NewMemoryLimiter(cfg RateLimitConfig) *MemoryLimiter {
	return &MemoryLimiter{
		cfg:      cfg,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (m *MemoryLimiter) get(key string) *rate.Limiter {
	m.mu.RLock()
	l, ok := m.limiters[key]
	m.mu.RUnlock()
	if ok {
		return l
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Double-check after acquiring write lock
	if l, ok := m.limiters[key]; ok {
		return l
	}
	l = rate.NewLimiter(rate.Limit(m.cfg.RequestsPerSecond), m.cfg.BurstSize)
	m.limiters[key] = l
	return l
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	r := m.get(key).Reserve()
	if !r.OK() {
		return Decision{RetryAfter: time.Second}, nil
	}
	if delay := r.Delay(); delay > 0 {
		r.Cancel()
		return Decision{RetryAfter: delay}, nil
	}
	return Decision{Allowed: true}, nil
}

// RateLimit rejects clients over their budget with 429 and a Retry-After
// header. Clients are keyed by IP. A failing limiter lets the request
// through rather than taking the API down with it.
func RateLimit(limiter Limiter, cfg RateLimitConfig, logger zerolog.Logger) echo.MiddlewareFunc {
	limit := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', -1, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("X-RateLimit-Limit", limit)

			d, err := limiter.Allow(c.Request().Context(), c.RealIP())
			if err != nil {
				logger.Warn().Err(err).Str("remote_ip", c.RealIP()).Msg("rate limiter unavailable")
				return next(c)
			}
			if !d.Allowed {
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(d.RetryAfter)))
				c.Response().Header().Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}

func retryAfterSeconds(d time.Duration) int {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}
