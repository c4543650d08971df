// Package telemetry collects frame timing and writes it to logs and CSV.
package telemetry

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// FrameSummary describes the distribution of frame costs over a window.
type FrameSummary struct {
	WindowEnd uint64  `csv:"window_end"`
	Frames    int     `csv:"frames"`
	MeanUS    float64 `csv:"mean_us"`
	StdUS     float64 `csv:"std_us"`
	P50US     float64 `csv:"p50_us"`
	P95US     float64 `csv:"p95_us"`
	Particles int     `csv:"particles"`
	Edges     int     `csv:"edges"`
	Visible   int     `csv:"visible"`
}

// Summarize computes the distribution of frame durations (in nanoseconds).
// values is sorted in place.
func Summarize(values []float64) FrameSummary {
	n := len(values)
	if n == 0 {
		return FrameSummary{}
	}
	sort.Float64s(values)

	mean, std := stat.MeanStdDev(values, nil)
	if math.IsNaN(std) {
		std = 0
	}
	p50 := stat.Quantile(0.50, stat.Empirical, values, nil)
	p95 := stat.Quantile(0.95, stat.Empirical, values, nil)

	us := float64(time.Microsecond)
	return FrameSummary{
		Frames: n,
		MeanUS: mean / us,
		StdUS:  std / us,
		P50US:  p50 / us,
		P95US:  p95 / us,
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s FrameSummary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("window_end", s.WindowEnd),
		slog.Int("frames", s.Frames),
		slog.Float64("mean_us", s.MeanUS),
		slog.Float64("std_us", s.StdUS),
		slog.Float64("p50_us", s.P50US),
		slog.Float64("p95_us", s.P95US),
		slog.Int("particles", s.Particles),
		slog.Int("edges", s.Edges),
		slog.Int("visible", s.Visible),
	)
}
