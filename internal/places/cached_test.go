package places

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/millennium/areamatch/internal/cache/keys"
	"github.com/millennium/areamatch/internal/cache/redisstore"
	h3mapper "github.com/millennium/areamatch/internal/mapper/h3"
	"github.com/millennium/areamatch/internal/popularity"
)

func newStore(t *testing.T) (*redisstore.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	rc, err := redisstore.New(ctx, mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

var baku = Query{Type: "school", Lat: 40.4093, Lon: 49.8671, RadiusM: 1500}

func TestCachedFinder_LocalThenStore(t *testing.T) {
	store, mr := newStore(t)
	next := &stubFinder{}
	cf := NewCachedFinder(nil, next, store, h3mapper.New(), nil, CacheOptions{Res: 8, TTL: time.Minute})
	ctx := context.Background()

	first, err := cf.Find(ctx, baku)
	require.NoError(t, err)
	second, err := cf.Find(ctx, baku)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, next.count("school"))

	// a second instance shares only the store tier
	other := NewCachedFinder(nil, next, store, h3mapper.New(), nil, CacheOptions{Res: 8, TTL: time.Minute})
	third, err := other.Find(ctx, baku)
	require.NoError(t, err)
	assert.Equal(t, first, third)
	assert.Equal(t, 1, next.count("school"))

	cell, err := h3mapper.New().CellForPoint(baku.Lat, baku.Lon, 8)
	require.NoError(t, err)
	key := keys.Key("poi", 8, cell, keys.POIQuery(baku.Type, baku.RadiusM, baku.Lat, baku.Lon))
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))
}

func TestCachedFinder_HotCellsGetLongerTTL(t *testing.T) {
	store, mr := newStore(t)
	pop := popularity.New(time.Hour, 0.5)
	cf := NewCachedFinder(nil, &stubFinder{}, store, h3mapper.New(), pop, CacheOptions{Res: 8, TTL: time.Minute, HotTTL: time.Hour})

	_, err := cf.Find(context.Background(), baku)
	require.NoError(t, err)

	cell, _ := h3mapper.New().CellForPoint(baku.Lat, baku.Lon, 8)
	key := keys.Key("poi", 8, cell, keys.POIQuery(baku.Type, baku.RadiusM, baku.Lat, baku.Lon))
	assert.Equal(t, time.Hour, mr.TTL(key))
}

func TestCachedFinder_HotCellsOutliveTTLLocally(t *testing.T) {
	ctx := context.Background()
	next := &stubFinder{}
	pop := popularity.New(time.Hour, 0.5)
	cf := NewCachedFinder(nil, next, nil, h3mapper.New(), pop, CacheOptions{Res: 8, TTL: 30 * time.Millisecond, HotTTL: time.Hour})

	_, err := cf.Find(ctx, baku)
	require.NoError(t, err)
	time.Sleep(80 * time.Millisecond)
	_, err = cf.Find(ctx, baku)
	require.NoError(t, err)
	assert.Equal(t, 1, next.count("school"), "hot cell served from the local hot tier")

	cold := NewCachedFinder(nil, next, nil, h3mapper.New(), nil, CacheOptions{Res: 8, TTL: 30 * time.Millisecond, HotTTL: time.Hour})
	_, err = cold.Find(ctx, baku)
	require.NoError(t, err)
	time.Sleep(80 * time.Millisecond)
	_, err = cold.Find(ctx, baku)
	require.NoError(t, err)
	assert.Equal(t, 3, next.count("school"), "cold entries expire after TTL")

	cell, err := h3mapper.New().CellForPoint(baku.Lat, baku.Lon, 8)
	require.NoError(t, err)
	n, err := cf.Evict(ctx, []string{cell})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCachedFinder_ErrorsNotCached(t *testing.T) {
	next := &stubFinder{fail: map[string]bool{"school": true}}
	cf := NewCachedFinder(nil, next, nil, h3mapper.New(), nil, CacheOptions{Res: 8})

	_, err := cf.Find(context.Background(), baku)
	require.Error(t, err)
	_, err = cf.Find(context.Background(), baku)
	require.Error(t, err)
	assert.Equal(t, 2, next.count("school"))
}

func TestCachedFinder_EvictCell(t *testing.T) {
	store, mr := newStore(t)
	next := &stubFinder{}
	pop := popularity.New(time.Hour, 100)
	cf := NewCachedFinder(nil, next, store, h3mapper.New(), pop, CacheOptions{Res: 8, TTL: time.Minute})
	ctx := context.Background()

	cafe := baku
	cafe.Type = "cafe"
	_, err := cf.Find(ctx, baku)
	require.NoError(t, err)
	_, err = cf.Find(ctx, cafe)
	require.NoError(t, err)

	cell, _ := h3mapper.New().CellForPoint(baku.Lat, baku.Lon, 8)
	require.Greater(t, pop.Score(cell), 0.0)

	n, err := cf.Evict(ctx, []string{cell})
	require.NoError(t, err)
	assert.Equal(t, 4, n) // two local entries plus two store entries
	assert.False(t, mr.Exists(keys.IndexKey("poi", 8, cell)))
	assert.Zero(t, pop.Score(cell))

	_, err = cf.Find(ctx, baku)
	require.NoError(t, err)
	assert.Equal(t, 2, next.count("school"))
}
