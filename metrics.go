package contactbook

import "sync/atomic"

// MetricID enumerates the engine's counters. IDs are dense so the registry
// is a fixed array of atomics with no locking on the hot path.
type MetricID uint16

const (
	MetricSignupSuccess MetricID = iota
	MetricSignupDuplicate
	MetricLoginSuccess
	MetricLoginFailure
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricRefreshReuseDetected
	MetricConfirmationRequested
	MetricConfirmSuccess
	MetricConfirmFailure
	MetricCacheHit
	MetricCacheMiss
	MetricLogout
	metricIDCount
)

var metricNames = [metricIDCount]string{
	MetricSignupSuccess:         "signup_success",
	MetricSignupDuplicate:       "signup_duplicate",
	MetricLoginSuccess:          "login_success",
	MetricLoginFailure:          "login_failure",
	MetricRefreshSuccess:        "refresh_success",
	MetricRefreshFailure:        "refresh_failure",
	MetricRefreshReuseDetected:  "refresh_reuse_detected",
	MetricConfirmationRequested: "confirmation_requested",
	MetricConfirmSuccess:        "confirm_success",
	MetricConfirmFailure:        "confirm_failure",
	MetricCacheHit:              "cache_hit",
	MetricCacheMiss:             "cache_miss",
	MetricLogout:                "logout",
}

// Name returns the stable export name for a metric ID.
func (id MetricID) Name() string {
	if id >= metricIDCount {
		return "unknown"
	}
	return metricNames[id]
}

// MetricIDs returns every defined metric ID in declaration order.
func MetricIDs() []MetricID {
	ids := make([]MetricID, 0, metricIDCount)
	for id := MetricID(0); id < metricIDCount; id++ {
		ids = append(ids, id)
	}
	return ids
}

// Metrics is a lock-free counter registry. A nil *Metrics is valid and
// drops every increment.
type Metrics struct {
	counters [metricIDCount]uint64
}

// NewMetrics returns an empty registry.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Inc bumps one counter. Safe for concurrent use.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id], 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id])
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot copies every counter. Counters move while the copy runs; the
// result is consistent per counter, not across counters. A nil registry
// snapshots as all zeros.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{Counters: make(map[MetricID]uint64, int(metricIDCount))}
	for id := MetricID(0); id < metricIDCount; id++ {
		if m == nil {
			s.Counters[id] = 0
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id])
	}
	return s
}
