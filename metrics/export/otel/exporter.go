package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	"github.com/buildgroup/contactbook"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// metricsSource is the slice of the engine the exporter needs.
type metricsSource interface {
	MetricsSnapshot() contactbook.MetricsSnapshot
}

type counterDef struct {
	id   contactbook.MetricID
	name string
	help string
}

var counterDefs = []counterDef{
	{contactbook.MetricSignupSuccess, "contactbook_signup_success_total", "Successful signups."},
	{contactbook.MetricSignupDuplicate, "contactbook_signup_duplicate_total", "Signups rejected as duplicate."},
	{contactbook.MetricLoginSuccess, "contactbook_login_success_total", "Successful logins."},
	{contactbook.MetricLoginFailure, "contactbook_login_failure_total", "Rejected logins."},
	{contactbook.MetricRefreshSuccess, "contactbook_refresh_success_total", "Successful refresh rotations."},
	{contactbook.MetricRefreshFailure, "contactbook_refresh_failure_total", "Rejected refresh attempts."},
	{contactbook.MetricRefreshReuseDetected, "contactbook_refresh_reuse_detected_total", "Detected refresh token reuses."},
	{contactbook.MetricConfirmationRequested, "contactbook_confirmation_requested_total", "Confirmation mails re-requested."},
	{contactbook.MetricConfirmSuccess, "contactbook_confirm_success_total", "Email confirmations."},
	{contactbook.MetricConfirmFailure, "contactbook_confirm_failure_total", "Rejected confirmation tokens."},
	{contactbook.MetricCacheHit, "contactbook_user_cache_hit_total", "User cache hits."},
	{contactbook.MetricCacheMiss, "contactbook_user_cache_miss_total", "User cache misses."},
	{contactbook.MetricLogout, "contactbook_logout_total", "Logouts."},
}

type observedCounter struct {
	id         contactbook.MetricID
	instrument metric.Int64ObservableCounter
}

// Exporter bridges the engine's counter registry onto OpenTelemetry
// observable counters. Values are pulled from a snapshot on each
// collection, so the engine's hot path stays free of OTel calls.
type Exporter struct {
	source       metricsSource
	registration metric.Registration
	counters     []observedCounter
}

// New registers one observable counter per engine metric on the meter.
func New(meter metric.Meter, engine *contactbook.Engine) (*Exporter, error) {
	return NewFromSource(meter, engine)
}

// NewFromSource is New with the source behind an interface, for tests.
func NewFromSource(meter metric.Meter, source metricsSource) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &Exporter{
		source:   source,
		counters: make([]observedCounter, 0, len(counterDefs)),
	}
	observables := make([]metric.Observable, 0, len(counterDefs))

	for _, def := range counterDefs {
		ins, err := meter.Int64ObservableCounter(def.name, metric.WithDescription(def.help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.name, err)
		}
		exporter.counters = append(exporter.counters, observedCounter{id: def.id, instrument: ins})
		observables = append(observables, ins)
	}

	registration, err := meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		snapshot := exporter.source.MetricsSnapshot()
		for _, c := range exporter.counters {
			observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
		}
		return nil
	}, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	exporter.registration = registration
	return exporter, nil
}

// Close unregisters the collection callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
