package telemetry

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/process"
	"go.opentelemetry.io/otel"
)

var meter = otel.Meter("readstats")

var (
	cpuGauge, _       = meter.Float64Gauge("process_cpu_percent")
	rssGauge, _       = meter.Int64Gauge("process_rss_mb")
	goroutineGauge, _ = meter.Int64Gauge("goroutine_count")
)

// InstrumentPerfStats samples this process every minute until ctx is
// done. Only the long running daemon calls this.
func InstrumentPerfStats(ctx context.Context) {
	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		slog.Warn("process stats unavailable", "err", err)
		return
	}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				samplePerfStats(ctx, proc)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func samplePerfStats(ctx context.Context, proc *process.Process) {
	if percent, err := proc.CPUPercentWithContext(ctx); err == nil {
		cpuGauge.Record(ctx, percent)
	} else {
		slog.Debug("failed to read cpu usage", "err", err)
	}
	if mem, err := proc.MemoryInfoWithContext(ctx); err == nil {
		rssGauge.Record(ctx, int64(mem.RSS/1_000_000))
	} else {
		slog.Debug("failed to read memory usage", "err", err)
	}
	goroutineGauge.Record(ctx, int64(runtime.NumGoroutine()))
}
