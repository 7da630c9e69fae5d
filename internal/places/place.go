// Package places looks up points of interest around a location.
package places

import "context"

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Geometry struct {
	Location Location `json:"location"`
}

// Place keeps the geometry/location nesting web clients already read.
type Place struct {
	Name     string            `json:"name"`
	Geometry Geometry          `json:"geometry"`
	Tags     map[string]string `json:"tags,omitempty"`
}

func (p Place) Lat() float64 { return p.Geometry.Location.Lat }
func (p Place) Lng() float64 { return p.Geometry.Location.Lng }

type Query struct {
	Type    string
	Lat     float64
	Lon     float64
	RadiusM int
}

type Finder interface {
	Find(ctx context.Context, q Query) ([]Place, error)
}
