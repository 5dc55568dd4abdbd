package game

import (
	"fmt"
	"math"

	"lastball/internal/game/spatial"
)

// DefaultMaxPlacementAttempts bounds rejection sampling so an over-packed
// field fails instead of spinning forever
const DefaultMaxPlacementAttempts = 10000

// gridThreshold is the occupied count above which candidates are tested
// through a spatial grid instead of a linear scan
const gridThreshold = 32

// Boundary is the play field size, origin at the top-left corner
type Boundary struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the midpoint of the field
func (b Boundary) Center() Vector2 {
	return Vector2{X: b.Width / 2, Y: b.Height / 2}
}

// Rand is the subset of golang.org/x/exp/rand.Rand the game needs.
// Tests may pass a seeded source for reproducible layouts.
type Rand interface {
	Float64() float64
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// Placer finds free spots for circles by rejection sampling
type Placer struct {
	rng         Rand
	maxAttempts int
}

// NewPlacer creates a placer. maxAttempts <= 0 selects the default bound.
func NewPlacer(rng Rand, maxAttempts int) *Placer {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxPlacementAttempts
	}
	return &Placer{rng: rng, maxAttempts: maxAttempts}
}

// PlaceNonOverlapping samples a position for a circle of the given radius that
// overlaps none of the existing circles. Callers placing a player include the
// central ball in existing.
func (pl *Placer) PlaceNonOverlapping(existing []Ball, radius float64, boundary Boundary) (Vector2, error) {
	if boundary.Width < radius*2 || boundary.Height < radius*2 {
		return Vector2{}, fmt.Errorf("%w: field %.0fx%.0f too small for radius %.0f",
			ErrPlacementExhausted, boundary.Width, boundary.Height, radius)
	}

	occupied := newOccupancy(existing, radius, boundary)
	candidate := Ball{Radius: radius}
	for attempt := 0; attempt < pl.maxAttempts; attempt++ {
		candidate.Pos = Vector2{
			X: pl.randomBetween(radius*2, boundary.Width) - radius,
			Y: pl.randomBetween(radius*2, boundary.Height) - radius,
		}

		if !occupied.overlaps(candidate) {
			return candidate.Pos, nil
		}
	}

	return Vector2{}, fmt.Errorf("%w after %d attempts", ErrPlacementExhausted, pl.maxAttempts)
}

// randomBetween keeps the legacy integer sampling: floor(r*(stop-start)+start)
func (pl *Placer) randomBetween(start, stop float64) float64 {
	return math.Floor(pl.rng.Float64()*(stop-start) + start)
}

func overlapsAny(c Ball, others []Ball) bool {
	for _, o := range others {
		if CirclesOverlap(c, o) {
			return true
		}
	}
	return false
}

// occupancy answers overlap queries against a fixed set of circles
type occupancy struct {
	circles []Ball
	grid    *spatial.Grid
	reach   float64 // candidate radius plus the largest occupied radius
}

func newOccupancy(circles []Ball, radius float64, boundary Boundary) occupancy {
	o := occupancy{circles: circles}
	if len(circles) <= gridThreshold {
		return o
	}

	largest := 0.0
	for _, c := range circles {
		largest = math.Max(largest, c.Radius)
	}
	o.reach = radius + largest

	o.grid = spatial.NewGrid(boundary.Width, boundary.Height, o.reach, len(circles))
	for i, c := range circles {
		o.grid.Insert(uint32(i), c.Pos.X, c.Pos.Y)
	}
	return o
}

func (o occupancy) overlaps(c Ball) bool {
	if o.grid == nil {
		return overlapsAny(c, o.circles)
	}
	for _, i := range o.grid.QueryRadius(c.Pos.X, c.Pos.Y, o.reach) {
		if CirclesOverlap(c, o.circles[i]) {
			return true
		}
	}
	return false
}
