// Package otel exports the engine's metrics registry through an
// OpenTelemetry meter. Registration is pull-based: a single callback
// snapshots the counters at collection time.
package otel
