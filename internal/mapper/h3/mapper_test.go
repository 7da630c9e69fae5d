package h3mapper

import (
	"reflect"
	"sort"
	"testing"

	"github.com/millennium/areamatch/internal/geo"
)

func TestCellForPoint_StableAndValidated(t *testing.T) {
	m := New()
	a, err := m.CellForPoint(40.4093, 49.8671, 8)
	if err != nil {
		t.Fatalf("CellForPoint: %v", err)
	}
	b, err := m.CellForPoint(40.4093, 49.8671, 8)
	if err != nil {
		t.Fatalf("CellForPoint second call: %v", err)
	}
	if a == "" || a != b {
		t.Fatalf("expected identical non-empty cells, got %q and %q", a, b)
	}
	if _, err := m.CellForPoint(40.4, 49.8, 16); err == nil {
		t.Fatal("expected error for res=16")
	}
}

func TestBBox_SortedUniqueAndCoversPoints(t *testing.T) {
	m := New()
	bb := geo.Bounds{MinLat: 40.38, MaxLat: 40.44, MinLon: 49.82, MaxLon: 49.90}

	cells, err := m.CellsForBBox(bb, 8)
	if err != nil {
		t.Fatalf("CellsForBBox: %v", err)
	}
	if !sort.StringsAreSorted(cells) || hasDups(cells) {
		t.Fatalf("cells must be sorted + unique")
	}
	center, _ := m.CellForPoint(40.41, 49.86, 8)
	if !contains(cells, center) {
		t.Fatalf("bbox cover is missing the cell of an inner point")
	}

	again, err := m.CellsForBBox(bb, 8)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !reflect.DeepEqual(cells, again) {
		t.Fatalf("expected deterministic output")
	}
}

func TestBBox_TinyBoxStillMaps(t *testing.T) {
	m := New()
	bb := geo.Bounds{MinLat: 40.4093, MaxLat: 40.4094, MinLon: 49.8671, MaxLon: 49.8672}
	cells, err := m.CellsForBBox(bb, 8)
	if err != nil {
		t.Fatalf("CellsForBBox: %v", err)
	}
	if len(cells) == 0 {
		t.Fatal("expected at least one cell")
	}
}

func TestBBox_Invalid(t *testing.T) {
	m := New()
	if _, err := m.CellsForBBox(geo.Bounds{MinLat: 1, MaxLat: 0, MinLon: 0, MaxLon: 1}, 8); err == nil {
		t.Fatal("expected error for inverted bbox")
	}
	if _, err := m.CellsForBBox(geo.Azerbaijan, -1); err == nil {
		t.Fatal("expected error for res=-1")
	}
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func hasDups(s []string) bool {
	seen := map[string]struct{}{}
	for _, v := range s {
		if _, ok := seen[v]; ok {
			return true
		}
		seen[v] = struct{}{}
	}
	return false
}
