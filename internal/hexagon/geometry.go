// Package hexagon computes hexagon overlay geometry and renders it onto a map
// surface at constant screen size.
package hexagon

import "math"

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vertices returns the six corners of a regular hexagon centered on center.
// Vertex i sits at i*60 degrees plus rotationDegrees; the closing edge from
// vertex 5 back to vertex 0 is implicit. size must be > 0.
func Vertices(center Point, size, rotationDegrees float64) [6]Point {
	var out [6]Point
	offset := rotationDegrees * math.Pi / 180
	for i := range out {
		angle := float64(i)*math.Pi/3 + offset
		out[i] = Point{
			X: center.X + size*math.Cos(angle),
			Y: center.Y + size*math.Sin(angle),
		}
	}
	return out
}
