package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for one field frame.
const (
	PhasePointer = "pointer"
	PhaseMotion  = "motion"
	PhaseStreaks = "streaks"
	PhaseLOD     = "lod"
	PhaseRender  = "render"
)

// PhaseOrder is the fixed order phases are logged and displayed in.
var PhaseOrder = []string{PhasePointer, PhaseMotion, PhaseStreaks, PhaseLOD, PhaseRender}

// PerfSample holds timing data for a single frame.
type PerfSample struct {
	FrameDuration time.Duration
	Phases        map[string]time.Duration
	Rendered      bool
}

// PerfCollector tracks performance metrics over a rolling window.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	frameStart    time.Time
	phaseStart    time.Time
	lastPhase     string
	now           func() time.Time
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of frames to average over (e.g., 60 for 1 second at 60fps).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	samples := make([]PerfSample, windowSize)
	for i := range samples {
		samples[i].Phases = make(map[string]time.Duration, len(PhaseOrder))
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       samples,
		currentPhases: make(map[string]time.Duration, len(PhaseOrder)),
		now:           time.Now,
	}
}

// SetClock replaces the time source; used by tests.
func (p *PerfCollector) SetClock(now func() time.Time) {
	p.now = now
}

// StartFrame begins timing a new frame.
func (p *PerfCollector) StartFrame() {
	p.frameStart = p.now()
	clear(p.currentPhases)
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := p.now()
	// End previous phase if any
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndFrame finishes timing the current frame, records the sample and returns
// its total duration.
func (p *PerfCollector) EndFrame(rendered bool) time.Duration {
	now := p.now()
	// End final phase
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
		p.lastPhase = ""
	}

	s := &p.samples[p.writeIndex]
	s.FrameDuration = now.Sub(p.frameStart)
	s.Rendered = rendered
	clear(s.Phases)
	for k, v := range p.currentPhases {
		s.Phases[k] = v
	}

	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
	return s.FrameDuration
}

// Durations appends the frame durations of the current window to dst.
func (p *PerfCollector) Durations(dst []float64) []float64 {
	for i := 0; i < p.sampleCount; i++ {
		dst = append(dst, float64(p.samples[i].FrameDuration))
	}
	return dst
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgFrameDuration time.Duration
	MinFrameDuration time.Duration
	MaxFrameDuration time.Duration

	// Phase breakdown (average durations)
	PhaseAvg map[string]time.Duration

	// Phase percentages of total frame time
	PhasePct map[string]float64

	FramesPerSecond float64
	SkippedFrac     float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg: make(map[string]time.Duration),
			PhasePct: make(map[string]float64),
		}
	}

	var total time.Duration
	var minDur, maxDur time.Duration
	var skipped int
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.FrameDuration

		if i == 0 || s.FrameDuration < minDur {
			minDur = s.FrameDuration
		}
		if s.FrameDuration > maxDur {
			maxDur = s.FrameDuration
		}
		if !s.Rendered {
			skipped++
		}
		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avg := total / time.Duration(p.sampleCount)

	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avg > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avg) * 100
		}
	}

	var fps float64
	if avg > 0 {
		fps = float64(time.Second) / float64(avg)
	}

	return PerfStats{
		AvgFrameDuration: avg,
		MinFrameDuration: minDur,
		MaxFrameDuration: maxDur,
		PhaseAvg:         phaseAvg,
		PhasePct:         phasePct,
		FramesPerSecond:  fps,
		SkippedFrac:      float64(skipped) / float64(p.sampleCount),
	}
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{
		"avg_frame_us", s.AvgFrameDuration.Microseconds(),
		"min_frame_us", s.MinFrameDuration.Microseconds(),
		"max_frame_us", s.MaxFrameDuration.Microseconds(),
		"frames_per_sec", int(s.FramesPerSecond),
		"skipped_frac", s.SkippedFrac,
	}

	for _, phase := range PhaseOrder {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", float64(int(pct*10))/10)
		}
	}

	logger.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_frame_us", s.AvgFrameDuration.Microseconds()),
		slog.Int64("min_frame_us", s.MinFrameDuration.Microseconds()),
		slog.Int64("max_frame_us", s.MaxFrameDuration.Microseconds()),
		slog.Float64("frames_per_sec", s.FramesPerSecond),
		slog.Float64("skipped_frac", s.SkippedFrac),
	}

	for _, phase := range PhaseOrder {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd    uint64  `csv:"window_end"`
	AvgFrameUS   int64   `csv:"avg_frame_us"`
	MinFrameUS   int64   `csv:"min_frame_us"`
	MaxFrameUS   int64   `csv:"max_frame_us"`
	FramesPerSec float64 `csv:"frames_per_sec"`
	SkippedFrac  float64 `csv:"skipped_frac"`
	PointerPct   float64 `csv:"pointer_pct"`
	MotionPct    float64 `csv:"motion_pct"`
	StreaksPct   float64 `csv:"streaks_pct"`
	LODPct       float64 `csv:"lod_pct"`
	RenderPct    float64 `csv:"render_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd uint64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgFrameUS:   s.AvgFrameDuration.Microseconds(),
		MinFrameUS:   s.MinFrameDuration.Microseconds(),
		MaxFrameUS:   s.MaxFrameDuration.Microseconds(),
		FramesPerSec: s.FramesPerSecond,
		SkippedFrac:  s.SkippedFrac,
		PointerPct:   s.PhasePct[PhasePointer],
		MotionPct:    s.PhasePct[PhaseMotion],
		StreaksPct:   s.PhasePct[PhaseStreaks],
		LODPct:       s.PhasePct[PhaseLOD],
		RenderPct:    s.PhasePct[PhaseRender],
	}
}
