package systems

import (
	"image/color"
	"math"
	"math/rand"
	"sort"

	"github.com/pthm-cable/backdrop/components"
	"github.com/pthm-cable/backdrop/config"
)

// ParticleCount maps surface area to a particle count: round(w*h*density)
// clamped to [min, max]. A non-positive dimension yields zero. max <= 0 means
// no upper clamp.
func ParticleCount(width, height, density float64, min, max int) int {
	if width <= 0 || height <= 0 {
		return 0
	}
	n := int(math.Round(width * height * density))
	if n < min {
		n = min
	}
	if max > 0 && n > max {
		n = max
	}
	if n < 0 {
		n = 0
	}
	return n
}

// Generator seeds a Store from a field configuration.
type Generator struct {
	cfg *config.FieldConfig
	rng *rand.Rand
}

// NewGenerator creates a generator drawing from rng.
func NewGenerator(cfg *config.FieldConfig, rng *rand.Rand) *Generator {
	return &Generator{cfg: cfg, rng: rng}
}

// Seed fills the store for a width x height surface. Degenerate dimensions
// produce an empty store.
func (g *Generator) Seed(store *Store, width, height float32) {
	d := g.cfg.Density
	n := ParticleCount(float64(width), float64(height), d.PerPixel, d.Min, d.Max)
	store.Reset(n, width, height)
	if n == 0 {
		return
	}

	biased := g.biasedCount(n, height)
	anchors := g.anchors(width, height, biased)

	for i := range store.Particles {
		p := &store.Particles[i]
		g.initParticle(p)
		if i < biased {
			p.X, p.Y = g.clustered(anchors, width, height)
		} else {
			p.X, p.Y = g.uniform(width, height)
		}
		g.initMotion(p)
	}
}

// Respawn re-initialises p in place at a fresh uniform position. Used for
// finite-life rebirth and numeric recovery.
func (g *Generator) Respawn(p *components.Particle, width, height float32) {
	g.initParticle(p)
	p.X = g.rng.Float32() * width
	p.Y = g.rng.Float32() * height
	g.initMotion(p)
	p.Opacity = 0
}

func (g *Generator) initParticle(p *components.Particle) {
	pc := g.cfg.Particle
	*p = components.Particle{}

	p.Depth = g.rangef(pc.DepthMin, pc.DepthMax)
	if p.Depth <= 0 {
		p.Depth = 0.01
	}
	p.Radius = g.rangef(pc.RadiusMin, pc.RadiusMax)
	if p.Radius < float32(pc.MinRadius) {
		p.Radius = float32(pc.MinRadius)
	}
	p.DrawRadius = p.Radius
	p.SizeVar = g.rng.Float32() * float32(pc.SizeVariation)
	p.BaseOpacity = g.rangef(pc.OpacityMin, pc.OpacityMax)
	p.Opacity = p.BaseOpacity
	p.Phase = g.rng.Float32() * 2 * math.Pi
	p.Color = g.pickColor()

	if pc.LifeMax > 0 {
		p.MaxLife = g.rangef(pc.LifeMin, pc.LifeMax)
		// Stagger initial ages so rebirths do not arrive in waves.
		p.Life = g.rng.Float32() * p.MaxLife
	}
}

func (g *Generator) initMotion(p *components.Particle) {
	mc := g.cfg.Motion
	p.Motion = components.Motion{Kind: g.pickMotion()}

	switch p.Motion.Kind {
	case components.MotionDrift:
		angle := g.rng.Float64() * 2 * math.Pi
		speed := mc.DriftSpeed * (0.5 + g.rng.Float64())
		p.Motion.Drift = components.Drift{
			VX: float32(math.Cos(angle) * speed),
			VY: float32(math.Sin(angle) * speed),
		}
	case components.MotionOrbit:
		r := g.rangef(mc.OrbitRadiusMin, mc.OrbitRadiusMax)
		angle := g.rng.Float32() * 2 * math.Pi
		angVel := float32(mc.AngularSpeed) * (0.5 + g.rng.Float32())
		if g.rng.Intn(2) == 0 {
			angVel = -angVel
		}
		// Centre sits so that the particle starts at its seeded position.
		p.Motion.Orbit = components.Orbit{
			CX:     p.X - r*float32(math.Cos(float64(angle))),
			CY:     p.Y - r*float32(math.Sin(float64(angle))),
			Radius: r,
			Angle:  angle,
			AngVel: angVel,
		}
	case components.MotionPulse:
		p.Motion.Pulse = components.Pulse{
			Rate:   float32(mc.PulseRate) * (0.6 + 0.8*g.rng.Float32()),
			Amount: p.SizeVar,
			Angle:  normalizeAngle(p.Phase),
		}
	}
}

// biasedCount returns how many of n particles go into the bias band.
func (g *Generator) biasedCount(n int, height float32) int {
	b := g.cfg.Bias
	if !b.Enabled || b.Fraction <= 0 || b.Bottom <= b.Top || height <= 0 {
		return 0
	}
	k := int(math.Round(float64(n) * math.Min(b.Fraction, 1)))
	if k > n {
		k = n
	}
	return k
}

type point struct{ x, y float32 }

func (g *Generator) anchors(width, height float32, biased int) []point {
	if biased == 0 {
		return nil
	}
	top, bottom := g.band(height)
	n := g.cfg.Bias.Anchors
	if n < 1 {
		n = 1
	}
	out := make([]point, n)
	for i := range out {
		out[i] = point{
			x: g.rng.Float32() * width,
			y: top + g.rng.Float32()*(bottom-top),
		}
	}
	return out
}

// band returns the bias band in pixels.
func (g *Generator) band(height float32) (top, bottom float32) {
	b := g.cfg.Bias
	top = clampf(float32(b.Top), 0, 1) * height
	bottom = clampf(float32(b.Bottom), 0, 1) * height
	return top, bottom
}

// clusterRetries bounds how often a Gaussian sample is redrawn before falling
// back to a uniform point inside the band.
const clusterRetries = 8

// clustered samples a Gaussian offset around a random anchor. Samples that land
// outside the band or the surface are redrawn, never clamped onto an edge.
func (g *Generator) clustered(anchors []point, width, height float32) (float32, float32) {
	a := anchors[g.rng.Intn(len(anchors))]
	spread := float32(g.cfg.Bias.Spread)
	top, bottom := g.band(height)
	for range clusterRetries {
		x := a.x + float32(g.rng.NormFloat64())*spread
		y := a.y + float32(g.rng.NormFloat64())*spread
		if x > 0 && x < width && y > top && y < bottom {
			return x, y
		}
	}
	return g.interior(0, width), g.interior(top, bottom)
}

// interior returns a uniform value strictly inside (lo, hi).
func (g *Generator) interior(lo, hi float32) float32 {
	u := 0.001 + 0.998*g.rng.Float64()
	return lo + float32(u)*(hi-lo)
}

// uniform samples outside the bias band when one is configured and leaves room,
// otherwise across the whole surface.
func (g *Generator) uniform(width, height float32) (float32, float32) {
	x := g.rng.Float32() * width
	b := g.cfg.Bias
	if !b.Enabled || b.Bottom <= b.Top {
		return x, g.rng.Float32() * height
	}
	top, bottom := g.band(height)
	rest := height - (bottom - top)
	if rest <= 0 {
		return x, g.rng.Float32() * height
	}
	y := g.rng.Float32() * rest
	if y >= top {
		y += bottom - top
	}
	return x, clampf(y, 0, height)
}

func (g *Generator) pickColor() color.RGBA {
	d := &g.cfg.Derived
	if len(d.Colors) == 0 {
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	total := d.ColorCumWeights[len(d.ColorCumWeights)-1]
	r := g.rng.Float64() * total
	i := sort.SearchFloat64s(d.ColorCumWeights, r)
	if i >= len(d.Colors) {
		i = len(d.Colors) - 1
	}
	return d.Colors[i]
}

func (g *Generator) pickMotion() components.MotionKind {
	w := g.cfg.Derived.MotionCumWeight
	total := w[2]
	if total <= 0 {
		return components.MotionDrift
	}
	r := g.rng.Float64() * total
	switch {
	case r < w[0]:
		return components.MotionDrift
	case r < w[1]:
		return components.MotionOrbit
	default:
		return components.MotionPulse
	}
}

func (g *Generator) rangef(lo, hi float64) float32 {
	if hi <= lo {
		return float32(lo)
	}
	return float32(lo + g.rng.Float64()*(hi-lo))
}
