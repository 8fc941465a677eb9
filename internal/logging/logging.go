package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// New returns a logger writing to STDERR so decision records on STDOUT
// stay machine-parsable. CHAOS_LOG_FORMAT=json selects the JSON handler,
// CHAOS_LOG_LEVEL picks the minimum level (debug, info, warn, error);
// defaults are text at info.
func New() *slog.Logger {
	opts := &slog.HandlerOptions{Level: level()}
	var h slog.Handler
	if strings.EqualFold(os.Getenv("CHAOS_LOG_FORMAT"), "json") {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(h)
}

func level() slog.Level {
	switch strings.ToLower(os.Getenv("CHAOS_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

type ctxKey struct{}

// NewContext returns a copy of ctx with the logger stored.
func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext retrieves a logger from ctx or returns slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
