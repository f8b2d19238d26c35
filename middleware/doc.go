// Package middleware adapts the engine to Fiber handlers: bearer-token
// authentication, role gating and per-route rate limiting.
//
// The package translates HTTP semantics into engine calls and nothing
// more; authentication and authorization decisions live in the engine and
// the contactbook.Authorize gate.
package middleware
