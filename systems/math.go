package systems

import "math"

// Fast math functions for hot-path physics calculations.
// These avoid float32->float64 conversions that Go's math package requires.

// normalizeAngle wraps angle to [-pi, pi] in constant time. The reduction runs
// in float64 so large arguments keep their phase.
func normalizeAngle(a float32) float32 {
	if a >= -math.Pi && a <= math.Pi {
		return a
	}
	r := math.Mod(float64(a)+math.Pi, 2*math.Pi)
	if r < 0 {
		r += 2 * math.Pi
	}
	return float32(r - math.Pi)
}

// fastSin approximates sin(x) using a polynomial. Accurate to ~0.001 once x is
// wrapped; float32 inputs beyond ~1e6 have already lost most of their phase.
func fastSin(x float32) float32 {
	x = normalizeAngle(x)
	const pi = math.Pi
	const pi2 = pi * pi
	ax := absf(x)
	y := 4 * x * (pi - ax) / pi2
	return 0.225*(y*absf(y)-y) + y
}

// fastCos approximates cos(x) using fastSin.
func fastCos(x float32) float32 {
	return fastSin(x + math.Pi/2)
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func sqrtf(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

func clampf(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// finite reports whether x is neither NaN nor ±Inf.
func finite(x float32) bool {
	f := float64(x)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// mod returns positive modulo (Go's % can return negative).
func mod(a, b float32) float32 {
	m := float32(math.Mod(float64(a), float64(b)))
	if m < 0 {
		m += b
	}
	return m
}

// wrapCoord maps v into [-margin, size+margin) periodically.
func wrapCoord(v, size, margin float32) float32 {
	if v >= -margin && v < size+margin {
		return v
	}
	return mod(v+margin, size+2*margin) - margin
}

// powf raises a per-frame factor to a frame-scale exponent so rates stay
// stable when dt varies.
func powf(base, exp float32) float32 {
	if exp == 1 {
		return base
	}
	return float32(math.Pow(float64(base), float64(exp)))
}
