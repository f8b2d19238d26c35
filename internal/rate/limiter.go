package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window request gate backed by Redis counters. Each
// (identity, route) pair owns an independent window; the first request in a
// window starts it, and the counter resets when the window key expires.
type Limiter struct {
	redis  redis.UniversalClient
	prefix string
}

// New creates a Limiter backed by the given Redis client. prefix namespaces
// the counter keys.
func New(redisClient redis.UniversalClient, prefix string) *Limiter {
	if prefix == "" {
		prefix = "rl"
	}
	return &Limiter{redis: redisClient, prefix: prefix}
}

func (l *Limiter) key(identity, route string) string {
	return l.prefix + ":" + route + ":" + identity
}

// Allow admits or rejects one request for the (identity, route) pair under a
// budget of limit requests per window. The increment is a single Redis INCR,
// so concurrent requests sharing a window key never lose updates; the window
// TTL is set only on the first hit (fixed-window semantics). A disconnected
// caller leaves at most one already-counted increment behind, never a
// half-applied window.
func (l *Limiter) Allow(ctx context.Context, identity, route string, limit int, window time.Duration) error {
	if limit <= 0 || window <= 0 {
		return nil
	}

	key := l.key(identity, route)

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, key, window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	if count > int64(limit) {
		return ErrRateLimited
	}
	return nil
}

// Reset clears the window for the (identity, route) pair.
func (l *Limiter) Reset(ctx context.Context, identity, route string) error {
	if err := l.redis.Del(ctx, l.key(identity, route)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
