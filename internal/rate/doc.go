// Package rate implements the fixed-window request gate used by the HTTP
// middleware. Counters live in Redis; the increment is atomic, so the gate
// is safe under concurrent requests sharing a window key.
package rate
