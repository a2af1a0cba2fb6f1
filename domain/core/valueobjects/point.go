package valueobjects

import (
	"encoding/json"
	"fmt"
	"math"
)

// Point is a position in image-pixel coordinates.
// It travels over the wire as a two-element array [x, y].
type Point struct {
	X float64
	Y float64
}

// NewPoint creates a point, rejecting NaN and infinite coordinates
func NewPoint(x, y float64) (Point, error) {
	if !isValidCoordinate(x) || !isValidCoordinate(y) {
		return Point{}, fmt.Errorf("invalid coordinate (%v, %v)", x, y)
	}
	return Point{X: x, Y: y}, nil
}

// DistanceTo returns the Euclidean distance to another point
func (p Point) DistanceTo(other Point) float64 {
	return math.Hypot(other.X-p.X, other.Y-p.Y)
}

// Equals compares both coordinates exactly
func (p Point) Equals(other Point) bool {
	return p.X == other.X && p.Y == other.Y
}

// Sub returns the vector p - other
func (p Point) Sub(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// Dot returns the dot product of p and other treated as vectors
func (p Point) Dot(other Point) float64 {
	return p.X*other.X + p.Y*other.Y
}

// Length returns the magnitude of p treated as a vector
func (p Point) Length() float64 {
	return math.Hypot(p.X, p.Y)
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// MarshalJSON implements json.Marshaler
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

// UnmarshalJSON implements json.Unmarshaler
func (p *Point) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("point must be an [x, y] array: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("point must have exactly 2 coordinates, got %d", len(pair))
	}
	p.X, p.Y = pair[0], pair[1]
	return nil
}

// Polyline is an ordered sequence of points describing a path
type Polyline []Point

// Length returns the sum of the segment lengths
func (pl Polyline) Length() float64 {
	total := 0.0
	for i := 1; i < len(pl); i++ {
		total += pl[i-1].DistanceTo(pl[i])
	}
	return total
}

// First returns the first point, or false when empty
func (pl Polyline) First() (Point, bool) {
	if len(pl) == 0 {
		return Point{}, false
	}
	return pl[0], true
}

// Last returns the last point, or false when empty
func (pl Polyline) Last() (Point, bool) {
	if len(pl) == 0 {
		return Point{}, false
	}
	return pl[len(pl)-1], true
}

// Clone returns an independent copy
func (pl Polyline) Clone() Polyline {
	if pl == nil {
		return nil
	}
	out := make(Polyline, len(pl))
	copy(out, pl)
	return out
}

func isValidCoordinate(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
