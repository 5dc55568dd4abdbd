package game

import "math"

// Vector2 is a position or a per-tick velocity on the play field
type Vector2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + o
func (v Vector2) Add(o Vector2) Vector2 {
	return Vector2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v - o
func (v Vector2) Sub(o Vector2) Vector2 {
	return Vector2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Scale returns v * s
func (v Vector2) Scale(s float64) Vector2 {
	return Vector2{X: v.X * s, Y: v.Y * s}
}

// Dot returns the dot product of v and o
func (v Vector2) Dot(o Vector2) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Len returns the exact (unrounded) magnitude of v
func (v Vector2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Ball is any circular body: the central ball or a player circle
type Ball struct {
	Radius    float64 `json:"radius"`
	Pos       Vector2 `json:"pos"`
	Color     string  `json:"color"`
	Name      string  `json:"name"`
	Touchable bool    `json:"touchable"`
}

// Distance returns the Euclidean distance between a and b rounded to the
// nearest integer. The rounding keeps the overlap test free of float jitter.
func Distance(a, b Vector2) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Round(math.Sqrt(dx*dx + dy*dy))
}

// CirclesOverlap reports whether two circles touch or intersect.
// The axis-aligned rejection must run before the exact distance test.
func CirclesOverlap(a, b Ball) bool {
	minDist := a.Radius + b.Radius

	if math.Abs(a.Pos.X-b.Pos.X) > minDist || math.Abs(a.Pos.Y-b.Pos.Y) > minDist {
		return false
	}

	return Distance(a.Pos, b.Pos) <= minDist
}

// ReflectVelocity bounces dir off a body at target, treating the target as
// immovable. Only the component along the line of centers is negated, so speed
// is preserved. If the bodies are already separating dir is returned unchanged.
func ReflectVelocity(dir, incident, target Vector2) Vector2 {
	delta := target.Sub(incident)
	if dir.Dot(delta) < 0 {
		return dir
	}

	angle := -math.Atan2(delta.Y, delta.X)

	// Rotate into the collision frame, x is now along the line of centers
	rotated := rotate(dir, angle)
	rotated.X = -rotated.X

	return rotate(rotated, -angle)
}

// rotate applies the matrix [cos -sin; sin cos] to v
func rotate(v Vector2, angle float64) Vector2 {
	sin, cos := math.Sincos(angle)
	return Vector2{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}
