package hexagon

import (
	"encoding/json"
	"math"
	"testing"
)

type recordingCanvas struct {
	shapes []Shape
}

func (r *recordingCanvas) DrawPolygon(s Shape) { r.shapes = append(r.shapes, s) }

func TestCategoryColors(t *testing.T) {
	if Best.Color() == Moderate.Color() || Moderate.Color() == Low.Color() {
		t.Fatalf("categories must map to distinct colors")
	}
	if got := Best.Color().Hex(); got != "#34c759" {
		t.Fatalf("best color=%s", got)
	}
	if b, _ := Moderate.MarshalText(); string(b) != "moderate" {
		t.Fatalf("moderate text=%s", b)
	}
}

func TestOverlay_ConstantScreenSize(t *testing.T) {
	cell := NewCell(40.41, 49.867, 30, Best)
	for _, zoom := range []float64{10, 14, 18} {
		zs := ZoomScale(zoom)
		o := NewOverlay(cell, MapPoints{}, zs)
		vs := o.Vertices()
		// back to screen points
		r := math.Hypot(vs[0].X-o.Center().X, vs[0].Y-o.Center().Y) * zs
		almostEq(t, r, DefaultScreenSize, 1e-6)
		almostEq(t, o.LineWidth()*zs, DefaultLineWidth, 1e-9)
	}
}

func TestRenderer_StyleFromCategory(t *testing.T) {
	rc := &recordingCanvas{}
	o := NewOverlay(NewCell(40.4, 49.8, 0, Low), MapPoints{}, 1)
	Renderer{}.Draw(rc, o, map[string]any{"score": 12.5})

	if len(rc.shapes) != 1 {
		t.Fatalf("shapes=%d", len(rc.shapes))
	}
	s := rc.shapes[0]
	if s.Style.Fill.A != 0.6 || s.Style.Stroke.A != 0.8 {
		t.Fatalf("alpha fill=%v stroke=%v", s.Style.Fill.A, s.Style.Stroke.A)
	}
	if s.Style.Fill.Hex() != Low.Color().Hex() {
		t.Fatalf("fill=%s", s.Style.Fill.Hex())
	}
	if s.Properties["score"] != 12.5 {
		t.Fatalf("properties not forwarded: %v", s.Properties)
	}
}

func TestMapPoints_RoundTrip(t *testing.T) {
	p := MapPoints{}
	lat, lng := p.Unproject(p.Project(40.4093, 49.8671))
	almostEq(t, lat, 40.4093, 1e-9)
	almostEq(t, lng, 49.8671, 1e-9)
}

func TestGeoJSONCanvas_ClosedRings(t *testing.T) {
	g := NewGeoJSONCanvas(MapPoints{})
	o := NewOverlay(NewCell(40.41, 49.86, 45, Moderate), MapPoints{}, ZoomScale(14))
	Renderer{}.Draw(g, o, nil)

	b, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string         `json:"type"`
				Coordinates [][][2]float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 1 {
		t.Fatalf("unexpected collection: %s", b)
	}
	ring := fc.Features[0].Geometry.Coordinates[0]
	if len(ring) != 7 || ring[0] != ring[6] {
		t.Fatalf("ring must be closed with 7 positions, got %v", ring)
	}
	if fc.Features[0].Properties["category"] != "moderate" {
		t.Fatalf("category=%v", fc.Features[0].Properties["category"])
	}
}

func TestGeoJSONCanvas_EmptyHasFeaturesArray(t *testing.T) {
	b, err := json.Marshal(NewGeoJSONCanvas(MapPoints{}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"type":"FeatureCollection","features":[]}` {
		t.Fatalf("got %s", b)
	}
}
