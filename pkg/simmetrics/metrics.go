// Package simmetrics defines the metrics recorded by the simulation engine.
package simmetrics

import (
	"context"
	"time"
)

// Metrics is the recording surface used by the sim services and infrastructure.
type Metrics interface {
	RecordOperationAttempt(ctx context.Context, operation string)
	RecordOperationSuccess(ctx context.Context, operation string)
	RecordOperationFailure(ctx context.Context, operation string)
	RecordOperationDuration(ctx context.Context, operation string, duration time.Duration)

	RecordGameSimulated(ctx context.Context, playoffs bool)
	RecordForceWinAttempts(ctx context.Context, attempts int, found bool)
	RecordInjury(ctx context.Context, gamesRemaining int)
	RecordDaySimulated(ctx context.Context, games int, duration time.Duration)
}

// NoOpMetrics discards everything. Used in tests and when metrics are disabled.
type NoOpMetrics struct{}

func (NoOpMetrics) RecordOperationAttempt(context.Context, string)                  {}
func (NoOpMetrics) RecordOperationSuccess(context.Context, string)                  {}
func (NoOpMetrics) RecordOperationFailure(context.Context, string)                  {}
func (NoOpMetrics) RecordOperationDuration(context.Context, string, time.Duration) {}
func (NoOpMetrics) RecordGameSimulated(context.Context, bool)                      {}
func (NoOpMetrics) RecordForceWinAttempts(context.Context, int, bool)              {}
func (NoOpMetrics) RecordInjury(context.Context, int)                              {}
func (NoOpMetrics) RecordDaySimulated(context.Context, int, time.Duration)         {}

var _ Metrics = NoOpMetrics{}
