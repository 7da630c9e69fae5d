package hexagon

import "math"

// WorldSize is the width and height of the map-point world at zoom scale 1.
const WorldSize = 268435456.0

type Projector interface {
	Project(lat, lng float64) Point
	Unproject(p Point) (lat, lng float64)
}

// MapPoints is a spherical web-mercator projection onto a WorldSize square.
type MapPoints struct{}

func (MapPoints) Project(lat, lng float64) Point {
	lat = math.Max(-85.05112878, math.Min(85.05112878, lat))
	x := (lng + 180) / 360 * WorldSize
	rad := lat * math.Pi / 180
	y := (1 - math.Log(math.Tan(rad)+1/math.Cos(rad))/math.Pi) / 2 * WorldSize
	return Point{X: x, Y: y}
}

func (MapPoints) Unproject(p Point) (lat, lng float64) {
	lng = p.X/WorldSize*360 - 180
	n := math.Pi * (1 - 2*p.Y/WorldSize)
	lat = math.Atan(math.Sinh(n)) * 180 / math.Pi
	return lat, lng
}

// ZoomScale converts a 256px tile zoom level to screen points per map point.
func ZoomScale(zoom float64) float64 {
	return 256 * math.Pow(2, zoom) / WorldSize
}
