package systems

import (
	"image/color"
	"math/rand"
	"testing"

	"github.com/pthm-cable/backdrop/components"
	"github.com/pthm-cable/backdrop/config"
)

// testField loads a preset from the embedded defaults.
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

// seededStore seeds a store for the given field and surface.
func seededStore(fc *config.FieldConfig, seed int64, width, height float32) (*Store, *Generator, *rand.Rand) {
	rng := rand.New(rand.NewSource(seed))
	gen := NewGenerator(fc, rng)
	store := NewStore()
	gen.Seed(store, width, height)
	return store, gen, rng
}

// stillParticle returns an immortal drift particle with no motion.
func stillParticle(x, y, opacity float32) components.Particle {
	return components.Particle{
		X:           x,
		Y:           y,
		Depth:       1,
		Radius:      1,
		DrawRadius:  1,
		Opacity:     opacity,
		BaseOpacity: opacity,
		Color:       color.RGBA{R: 255, G: 255, B: 255, A: 255},
		Motion:      components.Motion{Kind: components.MotionDrift},
	}
}
