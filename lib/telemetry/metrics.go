package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	pageCounter, _ = meter.Int64Counter("pages_fetched")
	phaseTimer, _  = meter.Float64Histogram("phase_seconds", metric.WithUnit("s"))
)

// RecordPage counts one page fetch against path.
func RecordPage(ctx context.Context, path string, err error) {
	pageCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("path", path),
		attribute.Bool("ok", err == nil),
	))
}

// TimePhase records how long a named phase took once the returned func
// is called.
func TimePhase(ctx context.Context, phase string) func(err error) {
	started := time.Now()
	return func(err error) {
		phaseTimer.Record(ctx, time.Since(started).Seconds(), metric.WithAttributes(
			attribute.String("phase", phase),
			attribute.Bool("ok", err == nil),
		))
	}
}
