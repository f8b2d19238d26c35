package usercache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when no entry exists for the subject.
var ErrMiss = errors.New("cache miss")

// ErrUnavailable wraps transport-level Redis failures. Callers treat it the
// same as a miss and fall back to persistence; it exists so the fallback can
// be logged as degradation rather than churn.
var ErrUnavailable = errors.New("cache unavailable")

// Snapshot is the serialized user state held in the cache. It carries
// everything needed to serve an authenticated request without a persistence
// read. The password hash and refresh pointer deliberately never enter the
// cache.
type Snapshot struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Confirmed bool      `json:"confirmed"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Cache is a Redis-backed, TTL-bounded cache of user snapshots keyed by
// email. It is advisory only: it is never the source of truth, and every
// caller must function (just slower) when it is empty or unreachable.
type Cache struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// New creates a Cache. ttl bounds every entry; prefix namespaces the keys.
func New(redisClient redis.UniversalClient, prefix string, ttl time.Duration) *Cache {
	if prefix == "" {
		prefix = "uc"
	}
	return &Cache{redis: redisClient, prefix: prefix, ttl: ttl}
}

func (c *Cache) key(email string) string {
	return c.prefix + ":" + email
}

// Get returns the cached snapshot for email, ErrMiss when absent, or
// ErrUnavailable when Redis cannot be reached. A corrupt entry is dropped
// and reported as a miss.
func (c *Cache) Get(ctx context.Context, email string) (*Snapshot, error) {
	data, err := c.redis.Get(ctx, c.key(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		_ = c.redis.Del(ctx, c.key(email)).Err()
		return nil, ErrMiss
	}

	return &snap, nil
}

// Put stores the snapshot under its email for the configured TTL.
func (c *Cache) Put(ctx context.Context, snap *Snapshot) error {
	if snap == nil || snap.Email == "" {
		return errors.New("snapshot requires an email")
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	if err := c.redis.Set(ctx, c.key(snap.Email), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Invalidate removes the entry for email. Deleting an absent entry is a
// no-op.
func (c *Cache) Invalidate(ctx context.Context, email string) error {
	if err := c.redis.Del(ctx, c.key(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
