package h3mapper

import (
	"errors"
	"fmt"
	"sort"

	h3 "github.com/uber/h3-go/v4"

	"github.com/millennium/areamatch/internal/geo"
	"github.com/millennium/areamatch/internal/mapper"
)

type Mapper struct{}

var _ mapper.Interface = (*Mapper)(nil)

func New() *Mapper { return &Mapper{} }

func (m *Mapper) CellForPoint(lat, lng float64, res int) (string, error) {
	if err := validateRes(res); err != nil {
		return "", err
	}
	c, err := h3.LatLngToCell(h3.LatLng{Lat: lat, Lng: lng}, res)
	if err != nil {
		return "", fmt.Errorf("h3 cell for (%f,%f): %w", lat, lng, err)
	}
	return c.String(), nil
}

// CellsForBBox covers bb with cells at res. Cells whose centroid falls
// inside are included, as are the cells holding each corner and the
// center, so a small box never maps to nothing.
func (m *Mapper) CellsForBBox(bb geo.Bounds, res int) ([]string, error) {
	if err := validateRes(res); err != nil {
		return nil, err
	}
	if err := bb.Validate(); err != nil {
		return nil, err
	}
	outer := h3.GeoLoop{
		{Lat: bb.MinLat, Lng: bb.MinLon},
		{Lat: bb.MinLat, Lng: bb.MaxLon},
		{Lat: bb.MaxLat, Lng: bb.MaxLon},
		{Lat: bb.MaxLat, Lng: bb.MinLon},
	}
	indexes, err := h3.PolygonToCells(h3.GeoPolygon{GeoLoop: outer}, res)
	if err != nil {
		return nil, fmt.Errorf("h3 polyfill: %w", err)
	}

	seen := make(map[string]struct{}, len(indexes)+5)
	out := make([]string, 0, len(indexes)+5)
	add := func(s string) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, idx := range indexes {
		add(idx.String())
	}
	anchors := []h3.LatLng{
		{Lat: bb.MinLat, Lng: bb.MinLon},
		{Lat: bb.MinLat, Lng: bb.MaxLon},
		{Lat: bb.MaxLat, Lng: bb.MaxLon},
		{Lat: bb.MaxLat, Lng: bb.MinLon},
		{Lat: (bb.MinLat + bb.MaxLat) / 2, Lng: (bb.MinLon + bb.MaxLon) / 2},
	}
	for _, ll := range anchors {
		c, err := h3.LatLngToCell(ll, res)
		if err != nil {
			return nil, fmt.Errorf("h3 anchor cell: %w", err)
		}
		add(c.String())
	}
	if len(out) == 0 {
		return nil, errors.New("bbox produced no cells")
	}
	sort.Strings(out)
	return out, nil
}

func validateRes(res int) error {
	if res < 0 || res > 15 {
		return fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	return nil
}
