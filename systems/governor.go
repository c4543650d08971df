package systems

import (
	"time"

	"github.com/pthm-cable/backdrop/config"
)

// Governor decides per frame whether to render, skipping a bounded share of
// frames in a round-robin pattern while the rolling frame cost is over
// budget. State integration is never skipped; only rendering is.
type Governor struct {
	budget         time.Duration
	maxSkip        float64
	maxConsecutive int

	samples     []time.Duration // ring buffer of rendered-frame costs
	writeIndex  int
	sampleCount int
	sum         time.Duration

	acc         float64 // round-robin skip accumulator
	consecutive int     // skips in a row
	skipped     uint64
	frames      uint64
}

// NewGovernor creates a governor from config.
func NewGovernor(gc config.GovernorConfig, budget time.Duration) *Governor {
	window := gc.Window
	if window < 1 {
		window = 30
	}
	maxSkip := gc.MaxSkipFraction
	if maxSkip < 0 {
		maxSkip = 0
	}
	if maxSkip > 0.9 {
		maxSkip = 0.9
	}
	maxConsecutive := gc.MaxConsecutiveSkips
	if maxConsecutive < 1 {
		maxConsecutive = 1
	}
	return &Governor{
		budget:         budget,
		maxSkip:        maxSkip,
		maxConsecutive: maxConsecutive,
		samples:        make([]time.Duration, window),
	}
}

// Record adds the measured cost of a rendered frame to the rolling window.
// Skipped frames are not recorded, so the window always reflects full frames.
func (g *Governor) Record(cost time.Duration) {
	if g.sampleCount == len(g.samples) {
		g.sum -= g.samples[g.writeIndex]
	} else {
		g.sampleCount++
	}
	g.samples[g.writeIndex] = cost
	g.sum += cost
	g.writeIndex = (g.writeIndex + 1) % len(g.samples)
}

// Average returns the rolling mean rendered-frame cost.
func (g *Governor) Average() time.Duration {
	if g.sampleCount == 0 {
		return 0
	}
	return g.sum / time.Duration(g.sampleCount)
}

// SkipRatio returns the share of frames currently being skipped.
func (g *Governor) SkipRatio() float64 {
	avg := g.Average()
	if g.budget <= 0 || avg <= g.budget {
		return 0
	}
	r := 1 - float64(g.budget)/float64(avg)
	if r > g.maxSkip {
		r = g.maxSkip
	}
	return r
}

// Overloaded reports whether the rolling cost exceeds the budget.
func (g *Governor) Overloaded() bool {
	return g.SkipRatio() > 0
}

// ShouldRender decides whether the current frame is drawn.
func (g *Governor) ShouldRender() bool {
	g.frames++
	ratio := g.SkipRatio()
	if ratio == 0 {
		g.acc = 0
		g.consecutive = 0
		return true
	}

	g.acc += ratio
	if g.acc >= 1 && g.consecutive < g.maxConsecutive {
		g.acc -= 1
		g.consecutive++
		g.skipped++
		return false
	}
	if g.acc > 1 {
		// Carried-over debt beyond the consecutive cap is dropped.
		g.acc = 1
	}
	g.consecutive = 0
	return true
}

// Counts returns total frames decided and frames skipped.
func (g *Governor) Counts() (frames, skipped uint64) {
	return g.frames, g.skipped
}

// Budget returns the per-frame cost target.
func (g *Governor) Budget() time.Duration {
	return g.budget
}

// Reset clears the rolling window and counters.
func (g *Governor) Reset() {
	clear(g.samples)
	g.writeIndex = 0
	g.sampleCount = 0
	g.sum = 0
	g.acc = 0
	g.consecutive = 0
	g.skipped = 0
	g.frames = 0
}
