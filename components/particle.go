// Package components defines the data records owned by a particle field.
package components

import "image/color"

// MotionKind identifies a particle's motion behaviour. It is fixed at creation.
type MotionKind uint8

const (
	MotionDrift MotionKind = iota // constant drift velocity with rare jitter
	MotionOrbit                   // circles a slowly drifting centre
	MotionPulse                   // stays put, radius and opacity oscillate
)

// String returns the behaviour name used in logs and config.
func (k MotionKind) String() string {
	switch k {
	case MotionDrift:
		return "drift"
	case MotionOrbit:
		return "orbit"
	case MotionPulse:
		return "pulse"
	}
	return "unknown"
}

// Drift holds parameters for MotionDrift. Velocity is in px per 60 Hz frame
// before depth scaling.
type Drift struct {
	VX, VY float32
}

// Orbit holds parameters for MotionOrbit.
type Orbit struct {
	CX, CY float32 // orbit centre
	Radius float32
	Angle  float32
	AngVel float32 // radians per frame
}

// Pulse holds parameters for MotionPulse.
type Pulse struct {
	Rate   float32 // radians per second
	Amount float32 // relative radius and opacity amplitude, < 1
	Angle  float32 // current phase, kept in [-pi, pi]
}

// Motion is a tagged union: Kind selects which payload is meaningful.
// Payloads are stored inline so the particle slice stays flat.
type Motion struct {
	Kind  MotionKind
	Drift Drift
	Orbit Orbit
	Pulse Pulse
}

// Particle is one simulated point of a field.
type Particle struct {
	X, Y   float32
	VX, VY float32 // impulse velocity from pointer forces, damped every frame

	Depth      float32 // (0, ~1.5]; parallax speed and LOD bucket
	Radius     float32 // base radius
	SizeVar    float32 // twinkle amplitude, < 1
	DrawRadius float32 // radius after pulse and pointer modulation

	Opacity     float32
	BaseOpacity float32
	Boost       float32 // pointer highlight in [0, 1], decays toward 0
	Phase       float32 // twinkle phase offset

	Color  color.RGBA
	Motion Motion

	Life    float32 // seconds remaining; unused when MaxLife == 0
	MaxLife float32
}

// Mortal reports whether the particle has a finite life span.
func (p *Particle) Mortal() bool {
	return p.MaxLife > 0
}

// Connection is a proximity edge between two particles of the same store.
// Alpha is fixed when the graph is built.
type Connection struct {
	A, B  int32
	Alpha float32
}

// ColorKey packs a colour into a sortable key for batching.
func ColorKey(c color.RGBA) uint32 {
	return uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A)
}
