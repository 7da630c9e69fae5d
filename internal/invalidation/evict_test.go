package invalidation_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/millennium/areamatch/internal/cache/redisstore"
	"github.com/millennium/areamatch/internal/invalidation"
	h3mapper "github.com/millennium/areamatch/internal/mapper/h3"
	"github.com/millennium/areamatch/internal/places"
)

type countingFinder struct{ calls int }

func (c *countingFinder) Find(_ context.Context, q places.Query) ([]places.Place, error) {
	c.calls++
	return []places.Place{{Name: q.Type}}, nil
}

func TestBBoxEventForcesRefetch(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	store, err := redisstore.New(ctx, mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	next := &countingFinder{}
	m := h3mapper.New()
	cf := places.NewCachedFinder(nil, next, store, m, nil, places.CacheOptions{Res: 8, TTL: time.Minute})

	q := places.Query{Type: "school", Lat: 40.4093, Lon: 49.8671, RadiusM: 1500}
	_, err = cf.Find(ctx, q)
	require.NoError(t, err)
	_, err = cf.Find(ctx, q)
	require.NoError(t, err)
	require.Equal(t, 1, next.calls)

	r := invalidation.New(nil, invalidation.Config{}, cf, m)
	n, err := r.Apply(ctx, invalidation.Event{
		Version: 1, Op: "insert", Layer: invalidation.Layer, TS: time.Now().UTC(),
		BBox: &invalidation.BBox{X1: 49.85, Y1: 40.39, X2: 49.89, Y2: 40.43, SRID: "EPSG:4326"},
	})
	require.NoError(t, err)
	assert.Positive(t, n)

	_, err = cf.Find(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}
