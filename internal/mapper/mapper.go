// Package mapper converts between coordinates and H3 cells.
package mapper

import "github.com/millennium/areamatch/internal/geo"

type Interface interface {
	CellForPoint(lat, lng float64, res int) (string, error)
	CellsForBBox(bb geo.Bounds, res int) ([]string, error)
}
