package systems

import "github.com/pthm-cable/backdrop/components"

// Store is the flat particle collection of one field. It is sized once per
// surface and mutated in place every frame.
type Store struct {
	Particles []components.Particle
	width     float32
	height    float32
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Reset sizes the store for n particles on a width x height surface. The
// backing array is reused when it is large enough.
func (s *Store) Reset(n int, width, height float32) {
	if n < 0 {
		n = 0
	}
	if cap(s.Particles) >= n {
		s.Particles = s.Particles[:n]
		clear(s.Particles)
	} else {
		s.Particles = make([]components.Particle, n)
	}
	s.width = width
	s.height = height
}

// Release drops the particle slice.
func (s *Store) Release() {
	s.Particles = nil
	s.width, s.height = 0, 0
}

// Len returns the number of particles.
func (s *Store) Len() int {
	return len(s.Particles)
}

// Size returns the surface dimensions the store was seeded for.
func (s *Store) Size() (width, height float32) {
	return s.width, s.height
}

// Valid reports whether i indexes a particle.
func (s *Store) Valid(i int32) bool {
	return i >= 0 && int(i) < len(s.Particles)
}
