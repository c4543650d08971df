package telemetry

import (
	"fmt"
	"log/slog"
)

// Reporter flushes perf windows to the log and to CSV on a fixed interval of
// simulated time.
type Reporter struct {
	perf     *PerfCollector
	out      *OutputManager
	logger   *slog.Logger
	logStats bool
	interval float64 // seconds

	elapsed float64
	scratch []float64
}

// NewReporter creates a reporter. out may be nil to disable CSV output.
func NewReporter(perf *PerfCollector, out *OutputManager, interval float64, logStats bool) *Reporter {
	if interval <= 0 {
		interval = 5
	}
	return &Reporter{
		perf:     perf,
		out:      out,
		logger:   slog.Default(),
		logStats: logStats,
		interval: interval,
	}
}

// Tick advances the reporter clock and flushes when a window has elapsed.
func (r *Reporter) Tick(dt float64, frame uint64, particles, edges, visible int) error {
	r.elapsed += dt
	if r.elapsed < r.interval {
		return nil
	}
	r.elapsed = 0
	return r.Flush(frame, particles, edges, visible)
}

// Flush logs and writes the current window immediately.
func (r *Reporter) Flush(frame uint64, particles, edges, visible int) error {
	stats := r.perf.Stats()

	r.scratch = r.perf.Durations(r.scratch[:0])
	summary := Summarize(r.scratch)
	summary.WindowEnd = frame
	summary.Particles = particles
	summary.Edges = edges
	summary.Visible = visible

	if r.logStats {
		stats.LogStats(r.logger)
		r.logger.Info("frames", "summary", summary)
	}

	if err := r.out.WritePerf(stats, frame); err != nil {
		return fmt.Errorf("flushing frame %d: %w", frame, err)
	}
	if err := r.out.WriteSummary(summary); err != nil {
		return fmt.Errorf("flushing frame %d: %w", frame, err)
	}
	return nil
}
