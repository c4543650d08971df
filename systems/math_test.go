package systems

import (
	"math"
	"testing"
)

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		name string
		in   float32
	}{
		{"inside", 1.2},
		{"just over pi", 3.2},
		{"negative", -7},
		{"many turns", 50400},
		{"many negative turns", -241920},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := float64(normalizeAngle(tt.in))
			if got < -math.Pi-1e-6 || got > math.Pi+1e-6 {
				t.Fatalf("normalizeAngle(%v) = %v, outside [-pi, pi]", tt.in, got)
			}
			want := math.Sin(float64(tt.in))
			if diff := math.Abs(math.Sin(got) - want); diff > 1e-3 {
				t.Errorf("normalizeAngle(%v) = %v changed the phase, sin %v want %v", tt.in, got, math.Sin(got), want)
			}
		})
	}
}

func TestFastSin_LargeArguments(t *testing.T) {
	for _, x := range []float32{0.5, -2.5, 100, 50400, 241920, -86400.25} {
		got := float64(fastSin(x))
		want := math.Sin(float64(x))
		if diff := math.Abs(got - want); diff > 2e-3 {
			t.Errorf("fastSin(%v) = %.4f, want %.4f", x, got, want)
		}
	}
}
