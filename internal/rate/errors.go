package rate

import "errors"

var (
	// ErrRateLimited is returned when a window's request budget is exhausted.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps transport-level Redis failures so callers
	// can distinguish an outage from a rejection.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
