package systems

import (
	"math"
	"slices"
	"testing"

	"github.com/pthm-cable/backdrop/components"
	"github.com/pthm-cable/backdrop/config"
)

func TestGraphBuilder_KnownLayout(t *testing.T) {
	store := NewStore()
	store.Reset(4, 400, 400)
	store.Particles[0] = stillParticle(10, 10, 1)
	store.Particles[1] = stillParticle(20, 10, 1)
	store.Particles[2] = stillParticle(300, 300, 1)
	store.Particles[3] = stillParticle(330, 300, 1)

	cc := config.ConnectionConfig{Enabled: true, MaxDistance: 50, NeighborCells: true}
	b := NewGraphBuilder()
	edges := b.Build(store, cc, nil)
	if b.Grid().Occupancy() != 2 {
		t.Errorf("expected paired particles to share cells, occupancy %d", b.Grid().Occupancy())
	}

	want := []components.Connection{
		{A: 0, B: 1, Alpha: 1 - 100.0/2500.0},
		{A: 2, B: 3, Alpha: 1 - 900.0/2500.0},
	}
	if len(edges) != len(want) {
		t.Fatalf("expected %d edges, got %d: %v", len(want), len(edges), edges)
	}
	for i := range want {
		if edges[i].A != want[i].A || edges[i].B != want[i].B {
			t.Errorf("edge %d = (%d, %d), want (%d, %d)", i, edges[i].A, edges[i].B, want[i].A, want[i].B)
		}
		if math.Abs(float64(edges[i].Alpha-want[i].Alpha)) > 1e-5 {
			t.Errorf("edge %d alpha = %.4f, want %.4f", i, edges[i].Alpha, want[i].Alpha)
		}
	}
}

func TestGraphBuilder_MinWeight(t *testing.T) {
	store := NewStore()
	store.Reset(2, 200, 200)
	store.Particles[0] = stillParticle(10, 10, 1)
	store.Particles[1] = stillParticle(55, 10, 1) // weight 1 - 2025/2500 = 0.19

	cc := config.ConnectionConfig{Enabled: true, MaxDistance: 50, NeighborCells: true, MinWeight: 0.25}
	if edges := NewGraphBuilder().Build(store, cc, nil); len(edges) != 0 {
		t.Errorf("expected weak edge to be dropped, got %v", edges)
	}
}

func TestGraphBuilder_Disabled(t *testing.T) {
	fc := testField(t, "constellation")
	store, _, _ := seededStore(fc, 1, 800, 600)
	cc := fc.Connections
	cc.Enabled = false
	if edges := NewGraphBuilder().Build(store, cc, nil); len(edges) != 0 {
		t.Errorf("expected no edges when disabled, got %d", len(edges))
	}
}

func TestGraphBuilder_Deterministic(t *testing.T) {
	fc := testField(t, "constellation")
	store, _, _ := seededStore(fc, 42, 1280, 800)

	b := NewGraphBuilder()
	first := b.Build(store, fc.Connections, nil)
	second := NewGraphBuilder().Build(store, fc.Connections, nil)
	again := b.Build(store, fc.Connections, nil)

	if len(first) == 0 {
		t.Fatal("expected a non-empty graph")
	}
	if !slices.Equal(first, second) {
		t.Error("fresh builder produced a different graph for the same snapshot")
	}
	if !slices.Equal(first, again) {
		t.Error("reused builder produced a different graph for the same snapshot")
	}
}

func TestGraphBuilder_EdgesValid(t *testing.T) {
	tests := []struct {
		name   string
		preset string
		seed   int64
	}{
		{"constellation", "constellation", 1},
		{"cursor", "cursor", 2},
		{"constellation reseeded", "constellation", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := testField(t, tt.preset)
			store, _, _ := seededStore(fc, tt.seed, 1280, 800)
			cc := fc.Connections
			edges := NewGraphBuilder().Build(store, cc, nil)

			maxD := float32(cc.MaxDistance)
			for i, e := range edges {
				if !store.Valid(e.A) || !store.Valid(e.B) {
					t.Fatalf("edge %d has invalid index (%d, %d)", i, e.A, e.B)
				}
				if e.A >= e.B {
					t.Errorf("edge %d not canonical: (%d, %d)", i, e.A, e.B)
				}
				if e.Alpha < float32(cc.MinWeight) || e.Alpha > 1 {
					t.Errorf("edge %d alpha %.3f outside [%.2f, 1]", i, e.Alpha, cc.MinWeight)
				}
				pa, pb := &store.Particles[e.A], &store.Particles[e.B]
				dx, dy := pa.X-pb.X, pa.Y-pb.Y
				if d := sqrtf(dx*dx + dy*dy); d >= maxD {
					t.Errorf("edge %d spans %.1f >= max %.1f", i, d, maxD)
				}
				if i > 0 && edges[i-1].A == e.A && edges[i-1].B == e.B {
					t.Errorf("duplicate edge (%d, %d)", e.A, e.B)
				}
			}
		})
	}
}

func TestSourceStride(t *testing.T) {
	tests := []struct {
		n, maxSources, want int
	}{
		{100, 0, 1},
		{100, 200, 1},
		{100, 100, 1},
		{101, 100, 2},
		{1000, 300, 4},
	}
	for _, tt := range tests {
		if got := sourceStride(tt.n, tt.maxSources); got != tt.want {
			t.Errorf("sourceStride(%d, %d) = %d, want %d", tt.n, tt.maxSources, got, tt.want)
		}
	}
}

// ---------- SpatialGrid ----------

func TestSpatialGrid_CellOfClamps(t *testing.T) {
	g := NewSpatialGrid(100, 100, 10)
	cols, rows := g.Dims()
	if cols != 11 || rows != 11 {
		t.Fatalf("expected 11x11 grid, got %dx%d", cols, rows)
	}
	tests := []struct {
		x, y     float32
		col, row int
	}{
		{5, 5, 0, 0},
		{55, 15, 5, 1},
		{-30, -30, 0, 0},
		{500, 500, 10, 10},
	}
	for _, tt := range tests {
		col, row := g.CellOf(tt.x, tt.y)
		if col != tt.col || row != tt.row {
			t.Errorf("CellOf(%v, %v) = (%d, %d), want (%d, %d)", tt.x, tt.y, col, row, tt.col, tt.row)
		}
	}
	if g.Cell(-1, 0) != nil || g.Cell(0, 11) != nil {
		t.Error("expected nil for out-of-range cells")
	}
}

func TestSpatialGrid_InsertAndClear(t *testing.T) {
	g := NewSpatialGrid(100, 100, 10)
	g.Insert(0, 1, 1)
	g.Insert(1, 2, 2)
	g.Insert(2, 50, 50)
	if got := g.Occupancy(); got != 2 {
		t.Errorf("expected max occupancy 2, got %d", got)
	}
	if cell := g.Cell(0, 0); !slices.Equal(cell, []int32{0, 1}) {
		t.Errorf("cell (0,0) = %v, want [0 1]", cell)
	}
	g.Clear()
	if got := g.Occupancy(); got != 0 {
		t.Errorf("expected empty grid after Clear, got occupancy %d", got)
	}
}
