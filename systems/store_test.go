package systems

import "testing"

func TestStore_ResetReusesCapacity(t *testing.T) {
	s := NewStore()
	s.Reset(100, 640, 480)
	s.Particles[5].X = 42
	first := &s.Particles[0]

	s.Reset(50, 320, 240)
	if s.Len() != 50 {
		t.Fatalf("Len = %d, want 50", s.Len())
	}
	if &s.Particles[0] != first {
		t.Error("shrinking reset should reuse the backing array")
	}
	if s.Particles[5].X != 0 {
		t.Error("reset should zero reused particles")
	}
	if w, h := s.Size(); w != 320 || h != 240 {
		t.Errorf("Size = (%v, %v), want (320, 240)", w, h)
	}

	s.Reset(-3, 10, 10)
	if s.Len() != 0 {
		t.Errorf("negative count should give an empty store, got %d", s.Len())
	}
}

func TestStore_Valid(t *testing.T) {
	s := NewStore()
	s.Reset(3, 10, 10)
	tests := []struct {
		i    int32
		want bool
	}{
		{-1, false},
		{0, true},
		{2, true},
		{3, false},
	}
	for _, tt := range tests {
		if got := s.Valid(tt.i); got != tt.want {
			t.Errorf("Valid(%d) = %v, want %v", tt.i, got, tt.want)
		}
	}
	s.Release()
	if s.Valid(0) || s.Len() != 0 {
		t.Error("released store should be empty")
	}
}
