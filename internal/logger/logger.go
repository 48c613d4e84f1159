// Package logger wraps the process-wide zerolog logger.
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const serviceName = "sixchat-backend"

var zlog = zerolog.New(os.Stdout).With().Timestamp().Str("service", serviceName).Logger()

type requestIDKey struct{}

// Init configures the global logger. Development environments get console
// output, everything else JSON.
func Init(env, level string) {
	var w io.Writer = os.Stdout
	if env == "development" || env == "dev" {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zlog = zerolog.New(w).Level(lvl).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// Get returns the global logger.
func Get() *zerolog.Logger {
	return &zlog
}

// WithRequestID stores the request id in ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the request id stored in ctx, or "".
func RequestID(ctx context.Context) string {
	if rid, ok := ctx.Value(requestIDKey{}).(string); ok {
		return rid
	}
	return ""
}

// FromContext returns the global logger tagged with the request id in ctx.
func FromContext(ctx context.Context) zerolog.Logger {
	if rid := RequestID(ctx); rid != "" {
		return zlog.With().Str("request_id", rid).Logger()
	}
	return zlog
}

// Operation returns a logger for one named operation of a component.
func Operation(ctx context.Context, component, operation string) zerolog.Logger {
	l := FromContext(ctx)
	return l.With().Str("component", component).Str("operation", operation).Logger()
}
