package contactbook

import (
	"context"
	"log/slog"

	"github.com/buildgroup/contactbook/internal/rate"
	"github.com/buildgroup/contactbook/password"
	"github.com/buildgroup/contactbook/token"
	"github.com/buildgroup/contactbook/usercache"
)

// Engine is the authentication core. It owns the token codec, the password
// hasher, the advisory user cache and the rate limiter, and talks to
// persistence and mail through the narrow UserStore and Mailer interfaces.
// All methods are safe for concurrent use.
type Engine struct {
	config  Config
	codec   *token.Codec
	hasher  *password.Hasher
	cache   *usercache.Cache
	limiter *rate.Limiter
	users   UserStore
	mailer  Mailer
	logger  *slog.Logger
	metrics *Metrics
}

// Config returns a copy of the effective configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Limiter exposes the fixed-window rate limiter for the HTTP middleware.
func (e *Engine) Limiter() *rate.Limiter {
	return e.limiter
}

// MetricsSnapshot copies the current counter values.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil {
		return
	}
	e.metrics.Inc(id)
}

// cachePut stores a snapshot of the user. Best effort; a cache outage is
// logged and swallowed.
func (e *Engine) cachePut(ctx context.Context, u *User) {
	if err := e.cache.Put(ctx, snapshotOf(u)); err != nil {
		e.logger.Warn("user cache put failed", "email", u.Email, "err", err)
	}
}

// cacheInvalidate drops the snapshot after a state change so the next read
// observes persistence.
func (e *Engine) cacheInvalidate(ctx context.Context, email string) {
	if err := e.cache.Invalidate(ctx, email); err != nil {
		e.logger.Warn("user cache invalidate failed", "email", email, "err", err)
	}
}

func snapshotOf(u *User) *usercache.Snapshot {
	return &usercache.Snapshot{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      string(u.Role),
		Confirmed: u.Confirmed,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}

func userFromSnapshot(s *usercache.Snapshot) *User {
	return &User{
		ID:        s.ID,
		Username:  s.Username,
		Email:     s.Email,
		Role:      Role(s.Role),
		Confirmed: s.Confirmed,
		Avatar:    s.Avatar,
		CreatedAt: s.CreatedAt,
	}
}
