// Package engine drives one particle field: it owns the store, graph, systems
// and renderer and runs them in a fixed order each frame.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/backdrop/components"
	"github.com/pthm-cable/backdrop/config"
	"github.com/pthm-cable/backdrop/renderer"
	"github.com/pthm-cable/backdrop/systems"
	"github.com/pthm-cable/backdrop/telemetry"
)

// Surface describes the drawing surface an engine is mounted on.
type Surface struct {
	Width, Height    float32 // surface pixels
	Scale            float32 // device pixels per surface pixel
	OffsetX, OffsetY float32 // surface origin in host window coordinates
}

// Options configures an Engine beyond its field configuration.
type Options struct {
	Seed       int64 // overrides the preset seed when non-zero
	Logger     *slog.Logger
	Now        func() time.Time
	PerfWindow int // frames per telemetry window, 0 = 60
}

// Engine is one independent particle field. It is not safe for concurrent
// use except through its PointerBridge; Loop serialises access for hosts
// without their own frame callback.
type Engine struct {
	cfg    config.FieldConfig
	logger *slog.Logger
	now    func() time.Time
	seed   int64
	rng    *rand.Rand

	store    *systems.Store
	gen      *systems.Generator
	graph    *systems.GraphBuilder
	edges    []components.Connection
	motion   *systems.Integrator
	buckets  *systems.Buckets
	governor *systems.Governor
	streaks  *systems.StreakSystem
	pointer  *systems.PointerBridge
	renderer *renderer.FieldRenderer
	perf     *telemetry.PerfCollector

	surface    Surface
	mounted    bool
	visible    bool
	disposed   bool
	overloaded bool
	frames     uint64
	lastDraw   renderer.DrawStats
}

// New creates an unmounted engine for the given field.
func New(cfg config.FieldConfig, opts Options) (*Engine, error) {
	cfg = cfg.Clone()
	if len(cfg.Derived.Colors) == 0 {
		if err := cfg.Recompute(); err != nil {
			return nil, fmt.Errorf("field %q: %w", cfg.Name, err)
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	seed := opts.Seed
	if seed == 0 {
		seed = cfg.Seed
	}
	if seed == 0 {
		seed = now().UnixNano()
	}

	e := &Engine{
		cfg:     cfg,
		logger:  logger.With("field", cfg.Name),
		now:     now,
		seed:    seed,
		rng:     rand.New(rand.NewSource(seed)),
		store:   systems.NewStore(),
		graph:   systems.NewGraphBuilder(),
		buckets: systems.NewBuckets(),
		pointer: systems.NewPointerBridge(),
		perf:    telemetry.NewPerfCollector(opts.PerfWindow),
		visible: true,
	}
	e.gen = systems.NewGenerator(&e.cfg, e.rng)
	e.motion = systems.NewIntegrator(&e.cfg, e.rng, e.gen, seed)
	e.governor = systems.NewGovernor(e.cfg.Governor, e.cfg.Derived.Budget)
	e.streaks = systems.NewStreakSystem(e.cfg.Streaks, e.rng)
	e.renderer = renderer.NewFieldRenderer(&e.cfg)
	e.perf.SetClock(now)
	return e, nil
}

// Mount sizes the engine for a surface and seeds the field.
func (e *Engine) Mount(s Surface) {
	if e.disposed {
		return
	}
	if s.Scale <= 0 {
		s.Scale = 1
	}
	e.surface = s
	e.pointer.SetTransform(s.OffsetX, s.OffsetY, 1/s.Scale)
	e.mounted = true
	e.reseed()
}

// Resize reseeds the field for new surface dimensions. Old positions are
// not preserved.
func (e *Engine) Resize(width, height float32) {
	if e.disposed || !e.mounted {
		return
	}
	e.surface.Width, e.surface.Height = width, height
	e.reseed()
}

// Move updates the surface's on-screen offset used for pointer mapping.
func (e *Engine) Move(offsetX, offsetY float32) {
	e.surface.OffsetX, e.surface.OffsetY = offsetX, offsetY
	e.pointer.SetTransform(offsetX, offsetY, 1/e.surface.Scale)
}

// Reseed regenerates the field with a new seed. Zero picks a time-based seed.
func (e *Engine) Reseed(seed int64) {
	if e.disposed {
		return
	}
	if seed == 0 {
		seed = e.now().UnixNano()
	}
	e.seed = seed
	if e.mounted {
		e.reseed()
	}
}

func (e *Engine) reseed() {
	e.rng.Seed(e.seed)
	w, h := e.surface.Width, e.surface.Height

	e.gen.Seed(e.store, w, h)
	if e.cfg.Connections.Enabled {
		e.edges = e.graph.Build(e.store, e.cfg.Connections, e.edges[:0])
	} else {
		e.edges = e.edges[:0]
	}
	e.buckets.Reserve(e.store.Len())
	e.motion.Reset()
	e.streaks.Clear()
	e.governor.Reset()
	e.overloaded = false

	e.logger.Info("field seeded",
		"seed", e.seed,
		"width", w,
		"height", h,
		"particles", e.store.Len(),
		"edges", len(e.edges),
	)
}

// Frame advances the field by dt seconds and draws it onto c unless the
// governor skips rendering. It reports whether the frame was drawn. Hidden,
// unmounted or disposed engines and a nil canvas do no work.
func (e *Engine) Frame(dt float64, c renderer.Canvas) bool {
	if e.disposed || !e.mounted || !e.visible || c == nil {
		return false
	}
	if e.surface.Width <= 0 || e.surface.Height <= 0 {
		return false
	}

	e.perf.StartFrame()

	e.perf.StartPhase(telemetry.PhasePointer)
	px, py, active := e.pointer.Load()
	ptr := systems.Pointer{X: px, Y: py, Active: active}

	e.perf.StartPhase(telemetry.PhaseMotion)
	e.motion.Step(e.store, dt, ptr)

	e.perf.StartPhase(telemetry.PhaseStreaks)
	e.streaks.Update(e.motion.ClampDT(dt), e.surface.Width, e.surface.Height)

	e.perf.StartPhase(telemetry.PhaseLOD)
	e.buckets.Classify(e.store, e.cfg.LOD)

	render := e.governor.ShouldRender()
	if render {
		e.perf.StartPhase(telemetry.PhaseRender)
		e.lastDraw = e.renderer.Draw(c, renderer.Frame{
			Store:   e.store,
			Edges:   e.edges,
			Buckets: e.buckets,
			Streaks: e.streaks,
			Time:    e.motion.Elapsed(),
		})
	}
	cost := e.perf.EndFrame(render)
	if render {
		e.governor.Record(cost)
	}
	e.frames++
	e.trackGovernor()
	return render
}

// trackGovernor logs transitions into and out of the overloaded state.
func (e *Engine) trackGovernor() {
	over := e.governor.Overloaded()
	if over == e.overloaded {
		return
	}
	e.overloaded = over
	if over {
		e.logger.Info("governor engaged",
			"avg_cost_us", e.governor.Average().Microseconds(),
			"budget_us", e.governor.Budget().Microseconds(),
			"skip_ratio", e.governor.SkipRatio(),
		)
	} else {
		e.logger.Info("governor recovered",
			"avg_cost_us", e.governor.Average().Microseconds(),
		)
	}
}

// SetVisible pauses (false) or resumes (true) the engine.
func (e *Engine) SetVisible(visible bool) {
	if e.visible == visible {
		return
	}
	e.visible = visible
	e.logger.Debug("visibility changed", "visible", visible)
}

// Visible reports whether the engine is running frames.
func (e *Engine) Visible() bool {
	return e.visible
}

// Dispose releases the store, edges and ECS world. Further calls are no-ops.
func (e *Engine) Dispose() {
	if e.disposed {
		return
	}
	e.disposed = true
	e.mounted = false
	e.store.Release()
	e.edges = nil
	e.buckets.Reserve(0)
	e.streaks.Release()
	e.pointer.Leave()
	e.logger.Info("field disposed", "frames", e.frames)
}

// Disposed reports whether Dispose has been called.
func (e *Engine) Disposed() bool {
	return e.disposed
}

// Pointer returns the bridge hosts feed pointer events into.
func (e *Engine) Pointer() *systems.PointerBridge {
	return e.pointer
}

// Store returns the particle store.
func (e *Engine) Store() *systems.Store {
	return e.store
}

// Edges returns the current proximity graph.
func (e *Engine) Edges() []components.Connection {
	return e.edges
}

// Surface returns the mounted surface.
func (e *Engine) Surface() Surface {
	return e.surface
}

// Seed returns the seed of the current field.
func (e *Engine) Seed() int64 {
	return e.seed
}

// Config returns the engine's field configuration.
func (e *Engine) Config() *config.FieldConfig {
	return &e.cfg
}

// Perf returns the engine's frame timing collector.
func (e *Engine) Perf() *telemetry.PerfCollector {
	return e.perf
}

// Stats is a snapshot of engine counters.
type Stats struct {
	Frames    uint64
	Skipped   uint64
	Particles int
	Edges     int
	Visible   int
	Streaks   int
	AvgCost   time.Duration
}

// Stats returns current counters.
func (e *Engine) Stats() Stats {
	_, skipped := e.governor.Counts()
	return Stats{
		Frames:    e.frames,
		Skipped:   skipped,
		Particles: e.store.Len(),
		Edges:     len(e.edges),
		Visible:   e.buckets.Count(),
		Streaks:   e.streaks.Count(),
		AvgCost:   e.governor.Average(),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("frames", s.Frames),
		slog.Uint64("skipped", s.Skipped),
		slog.Int("particles", s.Particles),
		slog.Int("edges", s.Edges),
		slog.Int("visible", s.Visible),
		slog.Int("streaks", s.Streaks),
		slog.Int64("avg_cost_us", s.AvgCost.Microseconds()),
	)
}
