// Package logger provides the structured logging contract used across the library.
package logger

import "context"

// Logger is the structured logging interface injected into adapters and the
// record access client. All methods take a message followed by key-value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// With returns a child logger carrying additional key-value pairs.
	With(args ...any) Logger

	// WithContext returns a child logger enriched with request-scoped fields
	// found in ctx (currently the request id, when present).
	WithContext(ctx context.Context) Logger
}
