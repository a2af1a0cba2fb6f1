// Package geometry turns freehand point sequences into compact polylines.
package geometry

import (
	"math"

	"wayfinder/domain/core/valueobjects"
)

// Point is re-exported for callers that only deal with geometry
type Point = valueobjects.Point

const (
	// DefaultAngleEpsilon is the largest turn, in degrees, treated as straight
	DefaultAngleEpsilon = 5.0
	// DefaultDistanceEpsilon is the largest gap, in pixels, treated as a duplicate
	DefaultDistanceEpsilon = 0.01
)

// SimplifyDefault runs Simplify with the default tolerances
func SimplifyDefault(points []Point) []Point {
	return Simplify(points, DefaultAngleEpsilon, DefaultDistanceEpsilon)
}

// Simplify reduces a drawn path to the points that matter.
//
// Consecutive near-duplicates are dropped, interior points whose turn
// angle is at most angleEpsilonDeg are collapsed, and coordinates are
// rounded to one decimal. The passes repeat on the rounded output until
// nothing more is removed, so the result is a fixed point: simplifying it
// again returns it unchanged. The first and last points always survive
// (after rounding). Input with fewer than two points is returned as-is.
func Simplify(points []Point, angleEpsilonDeg, distanceEpsilon float64) []Point {
	if len(points) < 2 {
		return append([]Point(nil), points...)
	}

	out := simplifyPass(points, angleEpsilonDeg, distanceEpsilon)
	for {
		next := simplifyPass(out, angleEpsilonDeg, distanceEpsilon)
		if len(next) == len(out) {
			return next
		}
		out = next
	}
}

func simplifyPass(points []Point, angleEpsilonDeg, distanceEpsilon float64) []Point {
	uniq := dedupe(points, distanceEpsilon)
	if len(uniq) < 2 {
		return roundAll(uniq)
	}
	return roundAll(collapse(uniq, angleEpsilonDeg, distanceEpsilon))
}

// dedupe drops every point within eps of its immediate predecessor.
// When the final point is such a duplicate it replaces the point that
// stood in for it, so the path still ends where the input ended.
func dedupe(points []Point, eps float64) []Point {
	uniq := make([]Point, 0, len(points))
	uniq = append(uniq, points[0])
	for i := 1; i < len(points); i++ {
		if points[i].DistanceTo(points[i-1]) > eps {
			uniq = append(uniq, points[i])
		}
	}

	last := points[len(points)-1]
	if tail := uniq[len(uniq)-1]; !tail.Equals(last) {
		if len(uniq) > 1 {
			uniq[len(uniq)-1] = last
		} else {
			uniq = append(uniq, last)
		}
	}
	return uniq
}

// collapse removes near-straight interior points. Each candidate is
// measured against the last kept point, not its raw predecessor.
func collapse(points []Point, angleEpsilonDeg, eps float64) []Point {
	out := make([]Point, 0, len(points))
	out = append(out, points[0])

	for i := 1; i < len(points)-1; i++ {
		a := out[len(out)-1]
		b := points[i]
		c := points[i+1]
		if !nearlyStraight(a, b, c, angleEpsilonDeg, eps) {
			out = append(out, b)
		}
	}

	return append(out, points[len(points)-1])
}

// nearlyStraight reports whether the turn at b is within the angle
// tolerance. Degenerate legs are never treated as straight.
func nearlyStraight(a, b, c Point, angleEpsilonDeg, eps float64) bool {
	v1 := b.Sub(a)
	v2 := c.Sub(b)
	n1, n2 := v1.Length(), v2.Length()
	if n1 <= eps || n2 <= eps {
		return false
	}
	return TurnAngle(v1, v2, n1, n2) <= angleEpsilonDeg
}

// TurnAngle returns the angle in degrees between two vectors of known
// length. The cosine is clamped so rounding never leaves acos's domain.
func TurnAngle(v1, v2 Point, n1, n2 float64) float64 {
	cos := v1.Dot(v2) / (n1 * n2)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// Round rounds to one decimal place, half away from zero
func Round(v float64) float64 {
	return math.Round(v*10) / 10
}

func roundAll(points []Point) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = Point{X: Round(p.X), Y: Round(p.Y)}
	}
	return out
}
