package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// NewRedisClient parses a redis:// URL and checks the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisLimiter is a fixed-window counter shared by every replica. A window
// admits BurstSize requests and lasts as long as the bucket takes to refill
// at RequestsPerSecond, so the long-run rate matches MemoryLimiter.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, cfg RateLimitConfig) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: "medrx:ratelimit",
		limit:  int64(cfg.BurstSize),
		window: windowFor(cfg),
		now:    time.Now,
	}
}

func windowFor(cfg RateLimitConfig) time.Duration {
	if cfg.RequestsPerSecond <= 0 || cfg.BurstSize <= 0 {
		return time.Second
	}
	w := time.Duration(float64(cfg.BurstSize) / cfg.RequestsPerSecond * float64(time.Second))
	if w < time.Second {
		return time.Second
	}
	return w
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := l.now()
	slot := now.UnixNano() / int64(l.window)
	k := fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.Expire(ctx, k, l.window)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("redis rate limit: %w", err)
	}

	if incr.Val() > l.limit {
		elapsed := time.Duration(now.UnixNano() % int64(l.window))
		return Decision{RetryAfter: l.window - elapsed}, nil
	}
	return Decision{Allowed: true}, nil
}
