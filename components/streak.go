package components

// Streak is a shooting star travelling in a straight line.
type Streak struct {
	X, Y   float32 // head position
	DX, DY float32 // unit direction
	Speed  float32 // px per second
	Length float32
}

// Lifetime tracks the age of a short-lived effect entity.
type Lifetime struct {
	Age      float32
	Duration float32
}

// Progress returns age as a fraction of duration in [0, 1].
func (l *Lifetime) Progress() float32 {
	if l.Duration <= 0 {
		return 1
	}
	t := l.Age / l.Duration
	if t > 1 {
		return 1
	}
	return t
}
