package geometry

import "wayfinder/domain/core/valueobjects"

// Length returns the total length of a path in pixels
func Length(points []Point) float64 {
	return valueobjects.Polyline(points).Length()
}

// Segment returns the straight two-point path from a to b
func Segment(a, b Point) []Point {
	return []Point{a, b}
}
