package listings

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/millennium/areamatch/internal/geo"
	"github.com/millennium/areamatch/internal/places"
	"github.com/millennium/areamatch/internal/scoring"
)

// Nearby is the closest place of one kind around a listing.
type Nearby struct {
	Distance *float64 `json:"distance"`
	Count    *int     `json:"count,omitempty"`
	Name     *string  `json:"name"`
}

type Match struct {
	Listing
	MatchScore float64           `json:"match_score"`
	Amenities  map[string]Nearby `json:"amenities"`
}

type SearchQuery struct {
	MinPrice     float64
	MaxPrice     *float64 // nil means unbounded
	Requirements scoring.Requirements
}

type probe struct {
	placeType string
	radiusM   int
	counted   bool
}

// Every search result reports these regardless of buyer requirements.
var probes = []probe{
	{"hospital", 3000, true},
	{"police", 3000, true},
	{"school", 2000, true},
	{"metro", 5000, false},
}

type Searcher struct {
	logger *slog.Logger
	store  *Store
	scorer *scoring.Scorer
	finder places.Finder
}

func NewSearcher(logger *slog.Logger, store *Store, scorer *scoring.Scorer, finder places.Finder) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{logger: logger, store: store, scorer: scorer, finder: finder}
}

// Search returns listings priced within the query range, ranked by match
// score (highest first, ties in insertion order).
func (s *Searcher) Search(ctx context.Context, q SearchQuery) ([]Match, error) {
	hi := math.MaxFloat64
	if q.MaxPrice != nil {
		hi = *q.MaxPrice
	}
	ls, err := s.store.InPriceRange(ctx, q.MinPrice, hi)
	if err != nil {
		return nil, err
	}

	out := make([]Match, len(ls))
	for i, l := range ls {
		r, err := s.scorer.Score(ctx, l.Latitude, l.Longitude, q.Requirements, nil)
		if err != nil {
			return nil, fmt.Errorf("score listing %d: %w", l.ID, err)
		}
		nearby, err := s.nearby(ctx, l.Latitude, l.Longitude)
		if err != nil {
			return nil, fmt.Errorf("amenities for listing %d: %w", l.ID, err)
		}
		out[i] = Match{Listing: l, MatchScore: r.Score, Amenities: nearby}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchScore > out[j].MatchScore })
	return out, nil
}

func (s *Searcher) nearby(ctx context.Context, lat, lon float64) (map[string]Nearby, error) {
	var mu sync.Mutex
	out := make(map[string]Nearby, len(probes))

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range probes {
		g.Go(func() error {
			ps, err := s.finder.Find(gctx, places.Query{Type: p.placeType, Lat: lat, Lon: lon, RadiusM: p.radiusM})
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.WarnContext(gctx, "nearby lookup failed", "type", p.placeType, "err", err)
			}
			n := Nearby{}
			if p.counted {
				c := len(ps)
				n.Count = &c
			}
			if nearest, d, ok := scoring.Nearest(lat, lon, ps); ok {
				dist, name := geo.Round(d, 2), nearest.Name
				n.Distance, n.Name = &dist, &name
			}
			mu.Lock()
			out[p.placeType] = n
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
