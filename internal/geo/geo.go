// Package geo holds the small amount of spherical math the service needs.
package geo

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
)

const EarthRadiusKm = 6371.0

// GridStep is the spacing between evaluated grid points, roughly 1.5 km.
const GridStep = 0.015

// MetersPerDegree approximates one degree of latitude.
const MetersPerDegree = 111000.0

type LatLng struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Baku city center.
var DefaultLocation = LatLng{Lat: 40.4093, Lon: 49.8671}

// DistanceKm is the great-circle distance between two points in kilometers.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// Azerbaijan is the default service area.
var Azerbaijan = Bounds{MinLat: 38.4, MaxLat: 41.9, MinLon: 44.8, MaxLon: 50.4}

// Contains reports whether the point lies inside b, edges included.
func (b Bounds) Contains(lat, lon float64) bool {
	return b.MinLat <= lat && lat <= b.MaxLat &&
		b.MinLon <= lon && lon <= b.MaxLon
}

func (b Bounds) Validate() error {
	if b.MinLat >= b.MaxLat || b.MinLon >= b.MaxLon {
		return fmt.Errorf("bounds must satisfy min<max (got %+v)", b)
	}
	if b.MinLat < -90 || b.MaxLat > 90 || b.MinLon < -180 || b.MaxLon > 180 {
		return fmt.Errorf("bounds out of range (got %+v)", b)
	}
	return nil
}

// Grid returns size*size points starting size*step/2 below and left of
// center, row by row in latitude.
func Grid(center LatLng, size int, step float64) []LatLng {
	if size <= 0 {
		return nil
	}
	startLat := center.Lat - float64(size)*step/2
	startLon := center.Lon - float64(size)*step/2
	out := make([]LatLng, 0, size*size)
	for i := range size {
		for j := range size {
			out = append(out, LatLng{
				Lat: startLat + float64(i)*step,
				Lon: startLon + float64(j)*step,
			})
		}
	}
	return out
}

// Round to n decimal places.
func Round(v float64, n int) float64 {
	p := math.Pow(10, float64(n))
	return math.Round(v*p) / p
}
