package core

import (
	"context"
	"log/slog"
)

// Context keys for ranking options
type contextKey string

const (
	loggerKey      contextKey = "logger"
	skipHistoryKey contextKey = "skipHistory"
	metricsKey     contextKey = "metrics"
)

// WithLogger attaches a logger used for skip and staleness warnings.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// loggerFrom returns the logger from context, falling back to slog.Default
func loggerFrom(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// WithSkipHistory disables history recording for rankings computed under ctx.
func WithSkipHistory(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipHistoryKey, true)
}

// shouldSkipHistory returns whether history recording is disabled in context
func shouldSkipHistory(ctx context.Context) bool {
	val := ctx.Value(skipHistoryKey)
	if val == nil {
		return false // default: record history
	}
	skip, ok := val.(bool)
	return ok && skip
}

// WithMetrics attaches ranking collectors to the context.
func WithMetrics(ctx context.Context, m *Metrics) context.Context {
	return context.WithValue(ctx, metricsKey, m)
}

// metricsFrom returns the collectors from context, or nil when none were attached
func metricsFrom(ctx context.Context) *Metrics {
	m, _ := ctx.Value(metricsKey).(*Metrics)
	return m
}
