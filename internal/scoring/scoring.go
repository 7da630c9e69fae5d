// Package scoring rates locations by how close the amenities a buyer asked
// for are.
package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/millennium/areamatch/internal/core/observability"
	"github.com/millennium/areamatch/internal/geo"
	"github.com/millennium/areamatch/internal/hexagon"
	"github.com/millennium/areamatch/internal/mapper"
	"github.com/millennium/areamatch/internal/places"
)

const (
	// FullScoreKm is the distance within which an amenity earns its whole weight.
	FullScoreKm = 0.5

	// BaseRadiusM is the widest per-type scoring radius used to size grid fetches.
	BaseRadiusM = 1500

	DefaultGridSize = 5

	BestThreshold     = 70.0
	ModerateThreshold = 40.0
)

// Requirements maps an amenity key (school, market, ...) to its weight.
// Zero or missing means the buyer does not care.
type Requirements map[string]int

type AmenityHit struct {
	Distance *float64 `json:"distance"`
	Name     *string  `json:"name"`
	Count    int      `json:"count"`
}

type Result struct {
	Score     float64               `json:"score"`
	Amenities map[string]AmenityHit `json:"amenities"`
}

type Location struct {
	Lat       float64               `json:"lat"`
	Lon       float64               `json:"lon"`
	Score     float64               `json:"score"`
	Amenities map[string]AmenityHit `json:"amenities"`
	Cell      string                `json:"cell,omitempty"`
	Category  hexagon.Category      `json:"category"`
}

// CategoryFor buckets a 0..100 score.
func CategoryFor(score float64) hexagon.Category {
	switch {
	case score >= BestThreshold:
		return hexagon.Best
	case score >= ModerateThreshold:
		return hexagon.Moderate
	default:
		return hexagon.Low
	}
}

// Points is the share of weight*10 an amenity at distanceKm earns: full
// inside FullScoreKm, falling linearly to zero at radiusKm.
func Points(weight int, distanceKm, radiusKm float64) float64 {
	full := float64(weight) * 10
	switch {
	case distanceKm <= FullScoreKm:
		return full
	case distanceKm <= radiusKm:
		return full * (1 - (distanceKm-FullScoreKm)/(radiusKm-FullScoreKm))
	default:
		return 0
	}
}

// Nearest returns the closest place to (lat, lon) and its distance in km.
func Nearest(lat, lon float64, ps []places.Place) (places.Place, float64, bool) {
	if len(ps) == 0 {
		return places.Place{}, 0, false
	}
	best, bestD := ps[0], math.Inf(1)
	for _, p := range ps {
		if d := geo.DistanceKm(lat, lon, p.Lat(), p.Lng()); d < bestD {
			best, bestD = p, d
		}
	}
	return best, bestD, true
}

type Options struct {
	Bounds  geo.Bounds
	Res     int
	Workers int
}

type Scorer struct {
	logger *slog.Logger
	finder places.Finder
	types  []places.ScoredType
	cells  mapper.Interface
	opts   Options
}

func New(logger *slog.Logger, finder places.Finder, catalog *places.Catalog, cells mapper.Interface, opts Options) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	if catalog == nil {
		catalog = places.DefaultCatalog()
	}
	if opts.Bounds == (geo.Bounds{}) {
		opts.Bounds = geo.Azerbaijan
	}
	if opts.Res <= 0 {
		opts.Res = 8
	}
	return &Scorer{
		logger: logger,
		finder: finder,
		types:  catalog.Scored(),
		cells:  cells,
		opts:   opts,
	}
}

// Score rates one location. pois holds places already fetched per type;
// types missing from it are looked up at their own scoring radius.
func (s *Scorer) Score(ctx context.Context, lat, lon float64, req Requirements, pois map[string][]places.Place) (Result, error) {
	var score, maxScore float64
	amenities := map[string]AmenityHit{}

	for _, st := range s.types {
		w := req[st.Requirement]
		if w <= 0 {
			continue
		}
		maxScore += float64(w) * 10

		ps, ok := pois[st.Type]
		if !ok {
			var err error
			ps, err = s.finder.Find(ctx, places.Query{Type: st.Type, Lat: lat, Lon: lon, RadiusM: st.RadiusM})
			if err != nil {
				if ctx.Err() != nil {
					return Result{}, ctx.Err()
				}
				s.logger.WarnContext(ctx, "amenity lookup failed", "type", st.Type, "err", err)
				ps = nil
			}
		}

		nearest, d, found := Nearest(lat, lon, ps)
		if !found {
			amenities[st.Type] = AmenityHit{}
			continue
		}
		score += Points(w, d, float64(st.RadiusM)/1000)
		dist, name := geo.Round(d, 2), nearest.Name
		amenities[st.Type] = AmenityHit{Distance: &dist, Name: &name, Count: len(ps)}
	}

	var normalized float64
	if maxScore > 0 {
		normalized = score / maxScore * 100
	}
	return Result{Score: geo.Round(normalized, 2), Amenities: amenities}, nil
}

// FetchRadiusM is the lookup radius that covers every point of a gridSize
// grid plus the widest scoring radius.
func FetchRadiusM(gridSize int) int {
	return int(BaseRadiusM + float64(gridSize)*geo.GridStep*geo.MetersPerDegree/2)
}

// Evaluate scores a gridSize x gridSize grid around center. Places are
// fetched once for the whole area. A center outside the service bounds
// yields no locations.
func (s *Scorer) Evaluate(ctx context.Context, center geo.LatLng, req Requirements, gridSize int) ([]Location, error) {
	if !s.opts.Bounds.Contains(center.Lat, center.Lon) {
		return []Location{}, nil
	}
	if gridSize <= 0 {
		gridSize = DefaultGridSize
	}
	start := time.Now()
	defer func() { observability.ObserveEvaluation(time.Since(start).Seconds()) }()

	var types []string
	for _, st := range s.types {
		if req[st.Requirement] > 0 {
			types = append(types, st.Type)
		}
	}
	pois, err := places.FetchAll(ctx, s.logger, s.finder, center.Lat, center.Lon, types, FetchRadiusM(gridSize), s.opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("fetch places: %w", err)
	}

	grid := geo.Grid(center, gridSize, geo.GridStep)
	out := make([]Location, 0, len(grid))
	for _, p := range grid {
		r, err := s.Score(ctx, p.Lat, p.Lon, req, pois)
		if err != nil {
			return nil, err
		}
		loc := Location{
			Lat:       p.Lat,
			Lon:       p.Lon,
			Score:     r.Score,
			Amenities: r.Amenities,
			Category:  CategoryFor(r.Score),
		}
		if s.cells != nil {
			if cell, err := s.cells.CellForPoint(p.Lat, p.Lon, s.opts.Res); err == nil {
				loc.Cell = cell
			}
		}
		out = append(out, loc)
	}
	s.logger.InfoContext(ctx, "evaluation done",
		"grid", gridSize,
		"types", len(types),
		"duration_ms", time.Since(start).Milliseconds())
	return out, nil
}
