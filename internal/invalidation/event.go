// Package invalidation consumes events that mark cached places stale and
// evicts the affected cells.
package invalidation

import (
	"fmt"
	"strings"
	"time"

	"github.com/millennium/areamatch/internal/geo"
)

// Event reports that places changed inside a bbox or a set of H3 cells.
// Seq orders events per cell; zero disables ordering.
type Event struct {
	Version int       `json:"version"`
	Op      string    `json:"op"`
	Layer   string    `json:"layer"`
	TS      time.Time `json:"ts"`
	Seq     uint64    `json:"seq,omitempty"`
	Source  string    `json:"source,omitempty"`
	BBox    *BBox     `json:"bbox,omitempty"`
	H3Cells []string  `json:"h3_cells,omitempty"`
}

type BBox struct {
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	X2   float64 `json:"x2"`
	Y2   float64 `json:"y2"`
	SRID string  `json:"srid"`
}

// Bounds converts lon/lat corners to geo.Bounds.
func (b BBox) Bounds() geo.Bounds {
	return geo.Bounds{MinLat: b.Y1, MaxLat: b.Y2, MinLon: b.X1, MaxLon: b.X2}
}

func (e Event) Validate() error {
	if e.Version != 1 {
		return fmt.Errorf("version must be 1")
	}
	switch e.Op {
	case "insert", "update", "delete":
	default:
		return fmt.Errorf("op must be insert|update|delete")
	}
	if strings.TrimSpace(e.Layer) == "" {
		return fmt.Errorf("layer is required")
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	hasBBox := e.BBox != nil
	hasCells := len(e.H3Cells) > 0
	if hasBBox == hasCells {
		return fmt.Errorf("exactly one of bbox or h3_cells is required")
	}
	if hasCells {
		for _, c := range e.H3Cells {
			if strings.TrimSpace(c) == "" {
				return fmt.Errorf("h3_cells must not contain empty cells")
			}
		}
		return nil
	}
	bb := *e.BBox
	if bb.SRID != "EPSG:4326" {
		return fmt.Errorf("bbox.srid must be EPSG:4326")
	}
	if !(bb.X1 >= -180 && bb.X1 <= 180 && bb.X2 >= -180 && bb.X2 <= 180) {
		return fmt.Errorf("bbox longitude out of range")
	}
	if !(bb.Y1 >= -90 && bb.Y1 <= 90 && bb.Y2 >= -90 && bb.Y2 <= 90) {
		return fmt.Errorf("bbox latitude out of range")
	}
	if !(bb.X2 > bb.X1 && bb.Y2 > bb.Y1) {
		return fmt.Errorf("bbox must satisfy x2>x1 and y2>y1")
	}
	return nil
}
