package renderer

import (
	"image/color"
	"math/rand"
	"testing"

	"github.com/pthm-cable/backdrop/components"
	"github.com/pthm-cable/backdrop/config"
	"github.com/pthm-cable/backdrop/systems"
)

func testField(t *testing.T, name string) *config.FieldConfig {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	fc, err := cfg.Field(name)
	if err != nil {
		t.Fatalf("selecting preset %q: %v", name, err)
	}
	return &fc
}

func particle(x, y, depth float32, c color.RGBA) components.Particle {
	return components.Particle{
		X:           x,
		Y:           y,
		Depth:       depth,
		Radius:      1.5,
		DrawRadius:  1.5,
		Opacity:     0.8,
		BaseOpacity: 0.8,
		Color:       c,
	}
}

// frameFor classifies the store and wraps it in a Frame.
func frameFor(fc *config.FieldConfig, store *systems.Store, edges []components.Connection) Frame {
	b := systems.NewBuckets()
	b.Classify(store, fc.LOD)
	return Frame{Store: store, Edges: edges, Buckets: b}
}

// plainCanvas forwards to a Recorder without exposing additive blending.
type plainCanvas struct{ rec *Recorder }

func (p plainCanvas) Clear(c color.RGBA) {
	p.rec.Clear(c)
}

func (p plainCanvas) FillCircle(x, y, r float32, c color.RGBA) {
	p.rec.FillCircle(x, y, r, c)
}

func (p plainCanvas) FillRect(x, y, w, h float32, c color.RGBA) {
	p.rec.FillRect(x, y, w, h, c)
}

func (p plainCanvas) StrokeLine(x0, y0, x1, y1, width float32, c color.RGBA) {
	p.rec.StrokeLine(x0, y0, x1, y1, width, c)
}

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

func TestFieldRenderer_NilCanvas(t *testing.T) {
	fc := testField(t, "constellation")
	store := systems.NewStore()
	store.Reset(1, 100, 100)
	store.Particles[0] = particle(50, 50, 1, white)

	stats := NewFieldRenderer(fc).Draw(nil, frameFor(fc, store, nil))
	if stats != (DrawStats{}) {
		t.Errorf("expected zero stats for nil canvas, got %+v", stats)
	}
}

func TestFieldRenderer_ClearsFirst(t *testing.T) {
	fc := testField(t, "drift")
	rec := NewRecorder()
	NewFieldRenderer(fc).Draw(rec, Frame{})
	if len(rec.Ops) != 1 || rec.Ops[0].Kind != OpClear {
		t.Fatalf("expected a single clear for an empty frame, got %v", rec.Ops)
	}
	if rec.Ops[0].Color != fc.Derived.Background {
		t.Errorf("clear colour = %v, want %v", rec.Ops[0].Color, fc.Derived.Background)
	}
}

func TestFieldRenderer_EdgesNeedVisibleEndpoints(t *testing.T) {
	fc := testField(t, "constellation")
	store := systems.NewStore()
	store.Reset(3, 400, 400)
	store.Particles[0] = particle(100, 100, 0.7, white)
	store.Particles[1] = particle(150, 100, 0.7, white)
	store.Particles[2] = particle(-500, 100, 0.7, white) // culled
	edges := []components.Connection{
		{A: 0, B: 1, Alpha: 0.5},
		{A: 1, B: 2, Alpha: 0.5},
		{A: 0, B: 7, Alpha: 0.5}, // stale index
	}

	rec := NewRecorder()
	stats := NewFieldRenderer(fc).Draw(rec, frameFor(fc, store, edges))
	if stats.Edges != 1 {
		t.Fatalf("expected 1 edge drawn, got %d", stats.Edges)
	}
	if n := rec.Count(OpLine); n != 1 {
		t.Fatalf("expected 1 line op, got %d", n)
	}
	for _, op := range rec.Ops {
		if op.Kind != OpLine {
			continue
		}
		if op.X0 != 100 || op.X1 != 150 {
			t.Errorf("line from %.0f to %.0f, want 100 to 150", op.X0, op.X1)
		}
		wantA := uint8(float32(fc.Derived.EdgeColor.A) * 0.5 * float32(fc.Connections.Alpha))
		if op.Color.A != wantA {
			t.Errorf("edge alpha = %d, want %d", op.Color.A, wantA)
		}
	}
	if stats.Particles != 2 {
		t.Errorf("expected 2 visible particles drawn, got %d", stats.Particles)
	}
}

func TestFieldRenderer_SkipsStretchedEdges(t *testing.T) {
	fc := testField(t, "constellation")
	fc.Connections.MaxDistance = 100
	store := systems.NewStore()
	store.Reset(4, 800, 400)
	store.Particles[0] = particle(20, 200, 0.7, white)
	store.Particles[1] = particle(780, 200, 0.7, white) // wrapped to the far side
	store.Particles[2] = particle(300, 100, 0.7, white)
	store.Particles[3] = particle(450, 100, 0.7, white) // drifted past max_distance
	edges := []components.Connection{
		{A: 0, B: 1, Alpha: 0.5},
		{A: 2, B: 3, Alpha: 0.5},
		{A: 0, B: 2, Alpha: 0.5},
	}

	tests := []struct {
		name  string
		edges []components.Connection
		want  int
	}{
		{"across the surface", edges[:1], 0},
		{"within twice max_distance", edges[1:2], 1},
		{"mixed", edges, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewRecorder()
			stats := NewFieldRenderer(fc).Draw(rec, frameFor(fc, store, tt.edges))
			if stats.Edges != tt.want {
				t.Errorf("expected %d edges drawn, got %d", tt.want, stats.Edges)
			}
			if n := rec.Count(OpLine); n != tt.want {
				t.Errorf("expected %d line ops, got %d", tt.want, n)
			}
		})
	}
}

func TestFieldRenderer_LayerOrder(t *testing.T) {
	fc := testField(t, "constellation")
	fc.LOD.TwinkleAmount = 0
	store := systems.NewStore()
	store.Reset(3, 400, 400)
	store.Particles[0] = particle(10, 10, 1, white)   // near
	store.Particles[1] = particle(20, 20, 0.7, white) // mid
	store.Particles[2] = particle(30, 30, 0.3, white) // far

	rec := NewRecorder()
	NewFieldRenderer(fc).Draw(rec, frameFor(fc, store, nil))

	var kinds []OpKind
	for _, op := range rec.Ops {
		kinds = append(kinds, op.Kind)
	}
	want := []OpKind{OpClear, OpRect, OpCircle, OpBeginAdditive, OpCircle, OpEndAdditive, OpCircle}
	if len(kinds) != len(want) {
		t.Fatalf("ops = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("op %d = %v, want %v (all: %v)", i, kinds[i], want[i], kinds)
		}
	}

	halo := rec.Ops[4]
	if want := 1.5 * float32(fc.LOD.HaloScale); halo.Size != want {
		t.Errorf("halo radius = %.3f, want %.3f", halo.Size, want)
	}
	far := rec.Ops[1]
	if far.Color.R != fc.Derived.FarColor.R || far.Color.G != fc.Derived.FarColor.G {
		t.Errorf("far particle colour = %v, want far colour %v", far.Color, fc.Derived.FarColor)
	}
}

func TestFieldRenderer_NoBlenderSkipsAdditive(t *testing.T) {
	fc := testField(t, "constellation")
	store := systems.NewStore()
	store.Reset(1, 400, 400)
	store.Particles[0] = particle(10, 10, 1, white)

	rec := NewRecorder()
	NewFieldRenderer(fc).Draw(plainCanvas{rec}, frameFor(fc, store, nil))
	if rec.Count(OpBeginAdditive) != 0 {
		t.Error("plain canvas should not receive additive ops")
	}
	// Halo and particle still drawn.
	if n := rec.Count(OpCircle); n != 2 {
		t.Errorf("expected 2 circles, got %d", n)
	}
}

func TestFieldRenderer_ColorBatching(t *testing.T) {
	fc := testField(t, "cursor")
	rng := rand.New(rand.NewSource(8))
	store := systems.NewStore()
	systems.NewGenerator(fc, rng).Seed(store, 1280, 800)

	rec := NewRecorder()
	stats := NewFieldRenderer(fc).Draw(rec, frameFor(fc, store, nil))
	if stats.Particles == 0 {
		t.Fatal("expected particles drawn")
	}
	// Mid, halo and near passes each walk a colour-sorted bucket.
	limit := 3 * len(fc.Derived.Colors)
	if got := rec.ColorSwitches(); got > limit {
		t.Errorf("%d colour switches, want at most %d", got, limit)
	}
}

func TestFieldRenderer_Streaks(t *testing.T) {
	fc := testField(t, "constellation")
	sc := fc.Streaks
	sc.Enabled = true
	sc.Chance = 1
	sc.Interval = 0.1
	sc.Duration = 1
	sc.MaxActive = 1
	streaks := systems.NewStreakSystem(sc, rand.New(rand.NewSource(1)))
	streaks.Update(0.2, 800, 600)
	streaks.Update(0.1, 800, 600)
	if streaks.Count() != 1 {
		t.Fatalf("expected a live streak, got %d", streaks.Count())
	}

	store := systems.NewStore()
	store.Reset(0, 800, 600)
	f := frameFor(fc, store, nil)
	f.Streaks = streaks

	rec := NewRecorder()
	r := NewFieldRenderer(fc)
	stats := r.Draw(rec, f)
	if stats.Streaks != 1 {
		t.Fatalf("expected 1 streak drawn, got %d", stats.Streaks)
	}
	if n := rec.Count(OpLine); n != len(r.streakRamp) {
		t.Errorf("expected %d streak segments, got %d", len(r.streakRamp), n)
	}
	if rec.Count(OpBeginAdditive) != 1 || rec.Count(OpEndAdditive) != 1 {
		t.Error("streaks should be wrapped in one additive pass")
	}

	// Segments fade toward the tail.
	var prev uint8 = 255
	for _, op := range rec.Ops {
		if op.Kind != OpLine {
			continue
		}
		if op.Color.A > prev {
			t.Errorf("segment alpha %d brighter than the one ahead %d", op.Color.A, prev)
		}
		prev = op.Color.A
	}
}

func TestWithAlpha(t *testing.T) {
	c := color.RGBA{R: 10, G: 20, B: 30, A: 200}
	tests := []struct {
		a    float32
		want uint8
	}{
		{-1, 0},
		{0, 0},
		{0.5, 100},
		{1, 200},
		{2.5, 200},
	}
	for _, tt := range tests {
		got := withAlpha(c, tt.a)
		if got.A != tt.want || got.R != 10 || got.G != 20 || got.B != 30 {
			t.Errorf("withAlpha(%v) = %v, want alpha %d", tt.a, got, tt.want)
		}
	}
}
