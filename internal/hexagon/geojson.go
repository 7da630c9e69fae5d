package hexagon

import "encoding/json"

// GeoJSONCanvas collects drawn hexagons as GeoJSON polygons in lat/lng.
type GeoJSONCanvas struct {
	proj     Projector
	features []feature
}

type feature struct {
	Type       string         `json:"type"`
	Geometry   polygon        `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type polygon struct {
	Type        string         `json:"type"`
	Coordinates [][][2]float64 `json:"coordinates"`
}

func NewGeoJSONCanvas(proj Projector) *GeoJSONCanvas {
	return &GeoJSONCanvas{proj: proj}
}

func (g *GeoJSONCanvas) DrawPolygon(s Shape) {
	ring := make([][2]float64, 0, len(s.Vertices)+1)
	for _, v := range s.Vertices {
		lat, lng := g.proj.Unproject(v)
		ring = append(ring, [2]float64{lng, lat})
	}
	ring = append(ring, ring[0])

	props := map[string]any{
		"category":       s.Cell.Category().String(),
		"rotation":       s.Cell.RotationDegrees(),
		"fill":           s.Style.Fill.Hex(),
		"fill-opacity":   s.Style.Fill.A,
		"stroke":         s.Style.Stroke.Hex(),
		"stroke-opacity": s.Style.Stroke.A,
		"stroke-width":   s.Style.LineWidth,
	}
	for k, v := range s.Properties {
		props[k] = v
	}
	g.features = append(g.features, feature{
		Type:       "Feature",
		Geometry:   polygon{Type: "Polygon", Coordinates: [][][2]float64{ring}},
		Properties: props,
	})
}

func (g *GeoJSONCanvas) Len() int { return len(g.features) }

func (g *GeoJSONCanvas) MarshalJSON() ([]byte, error) {
	fc := struct {
		Type     string    `json:"type"`
		Features []feature `json:"features"`
	}{Type: "FeatureCollection", Features: g.features}
	if fc.Features == nil {
		fc.Features = []feature{}
	}
	return json.Marshal(fc)
}
