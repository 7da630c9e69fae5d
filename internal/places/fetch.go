package places

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultFetchWorkers caps concurrent upstream lookups in FetchAll.
const DefaultFetchWorkers = 5

// FetchAll looks up every type around (lat, lon) with at most workers
// lookups in flight. A failed lookup is logged and yields an empty slice for
// its type; only context cancellation is returned as an error.
func FetchAll(ctx context.Context, logger *slog.Logger, f Finder, lat, lon float64, types []string, radiusM, workers int) (map[string][]Place, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = DefaultFetchWorkers
	}

	var (
		mu  sync.Mutex
		out = make(map[string][]Place, len(types))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, t := range types {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			places, err := f.Find(gctx, Query{Type: t, Lat: lat, Lon: lon, RadiusM: radiusM})
			if err != nil {
				logger.WarnContext(gctx, "place lookup failed", "type", t, "err", err)
				places = []Place{}
			}
			mu.Lock()
			out[t] = places
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
