package workers

import (
	"context"
	"log/slog"
	"time"

	"mod-ark/observability"
)

// StatsReporter periodically logs bus counters and process self stats. The
// same snapshot backs the terminal's stats command; this worker keeps a trace
// of it in the structured log for hosts running headless.
type StatsReporter struct {
	log      *slog.Logger
	stats    *observability.BusStats
	interval time.Duration
}

func NewStatsReporter(log *slog.Logger, stats *observability.BusStats, interval time.Duration) *StatsReporter {
	return &StatsReporter{log: log, stats: stats, interval: interval}
}

func (w *StatsReporter) Run(ctx context.Context) error {
	w.log.Info("Starting stats reporter worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			snap := w.stats.Collect()
			w.log.Info("Bus heartbeat",
				"online", snap.OnlineCount,
				"delivered", snap.Delivered,
				"failed", snap.DeliveryFailures,
				"rssMb", snap.RSSMb,
				"cpuPercent", snap.CPUPercent,
				"goroutines", snap.NumGoroutine,
			)
		}
	}
}
