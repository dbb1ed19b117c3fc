package core

import (
	"context"

	"github.com/huangsam/gitreport/internal/telemetry"
)

// Context keys for analysis options
type contextKey string

const (
	metricsKey   contextKey = "metrics"
	quietModeKey contextKey = "quietMode"
)

// WithMetrics attaches run metrics to the context for the pipeline goroutines.
func WithMetrics(ctx context.Context, m *telemetry.Metrics) context.Context {
	return context.WithValue(ctx, metricsKey, m)
}

// metricsFromContext returns the attached metrics, or nil which records nothing.
func metricsFromContext(ctx context.Context) *telemetry.Metrics {
	m, _ := ctx.Value(metricsKey).(*telemetry.Metrics)
	return m
}

// WithQuietMode suppresses the analysis header, for callers such as the MCP server
// whose stdout carries a protocol.
func WithQuietMode(ctx context.Context) context.Context {
	return context.WithValue(ctx, quietModeKey, true)
}

// isQuietMode returns whether the analysis header should be suppressed
func isQuietMode(ctx context.Context) bool {
	quiet, ok := ctx.Value(quietModeKey).(bool)
	return ok && quiet
}
