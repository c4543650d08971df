package systems

import (
	"image/color"
	"math"
	"testing"

	"github.com/pthm-cable/backdrop/components"
	"github.com/pthm-cable/backdrop/config"
)

func TestBuckets_Classify(t *testing.T) {
	lc := config.LODConfig{NearDepth: 1.0, FarDepth: 0.5, CullMargin: 5}

	store := NewStore()
	store.Reset(6, 200, 200)
	depths := []float32{1.2, 0.7, 0.3, 1.2, 0.7, 0.7}
	for i, d := range depths {
		store.Particles[i] = stillParticle(100, 100, 0.5)
		store.Particles[i].Depth = d
	}
	store.Particles[3].X = -50                 // culled
	store.Particles[4].Y = float32(math.NaN()) // skipped
	store.Particles[5].X = 203                 // inside the cull margin

	b := NewBuckets()
	b.Classify(store, lc)

	if len(b.Near) != 1 || b.Near[0] != 0 {
		t.Errorf("near = %v, want [0]", b.Near)
	}
	if len(b.Mid) != 2 || b.Mid[0] != 1 || b.Mid[1] != 5 {
		t.Errorf("mid = %v, want [1 5]", b.Mid)
	}
	if len(b.Far) != 1 || b.Far[0] != 2 {
		t.Errorf("far = %v, want [2]", b.Far)
	}
	if b.Count() != 4 {
		t.Errorf("visible count = %d, want 4", b.Count())
	}
	wantVisible := []bool{true, true, true, false, false, true}
	for i, want := range wantVisible {
		if b.Visible[i] != want {
			t.Errorf("Visible[%d] = %v, want %v", i, b.Visible[i], want)
		}
	}
}

func TestBuckets_ColorOrdered(t *testing.T) {
	fc := testField(t, "constellation")
	store, _, _ := seededStore(fc, 21, 1280, 800)

	b := NewBuckets()
	b.Classify(store, fc.LOD)

	for _, bucket := range [][]int32{b.Near, b.Mid} {
		for i := 1; i < len(bucket); i++ {
			prev := components.ColorKey(store.Particles[bucket[i-1]].Color)
			cur := components.ColorKey(store.Particles[bucket[i]].Color)
			if cur < prev {
				t.Fatalf("bucket not colour ordered at %d", i)
			}
			if cur == prev && bucket[i] < bucket[i-1] {
				t.Fatalf("equal colours not index ordered at %d", i)
			}
		}
	}
}

func TestBuckets_ReusedAcrossFrames(t *testing.T) {
	fc := testField(t, "constellation")
	store, _, _ := seededStore(fc, 4, 800, 600)

	b := NewBuckets()
	b.Reserve(store.Len())
	near := cap(b.Near)
	for i := 0; i < 5; i++ {
		b.Classify(store, fc.LOD)
	}
	if cap(b.Near) != near {
		t.Errorf("near bucket reallocated: cap %d -> %d", near, cap(b.Near))
	}
	if b.Count() != store.Len() {
		t.Errorf("expected every freshly seeded particle visible, got %d of %d", b.Count(), store.Len())
	}
}

func TestBuckets_EmptyStore(t *testing.T) {
	b := NewBuckets()
	b.Classify(NewStore(), config.LODConfig{})
	if b.Count() != 0 || len(b.Visible) != 0 {
		t.Errorf("expected empty buckets, got count %d", b.Count())
	}
}

func TestColorKey_Ordering(t *testing.T) {
	a := components.ColorKey(color.RGBA{R: 1})
	b := components.ColorKey(color.RGBA{R: 2})
	c := components.ColorKey(color.RGBA{R: 1, A: 255})
	if !(a < c && c < b) {
		t.Errorf("unexpected key order: %d %d %d", a, c, b)
	}
}
