package places

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/millennium/areamatch/internal/cache/keys"
	"github.com/millennium/areamatch/internal/core/observability"
	"github.com/millennium/areamatch/internal/logger"
	"github.com/millennium/areamatch/internal/mapper"
	"github.com/millennium/areamatch/internal/popularity"
)

const cacheLayer = "poi"

// Store is the shared cache tier. *redisstore.Client satisfies it.
type Store interface {
	MGet(ctx context.Context, keys []string) (map[string][]byte, error)
	SetIndexed(ctx context.Context, indexKey, key string, val []byte, ttl time.Duration) error
	EvictIndex(ctx context.Context, indexKey string) (int, error)
}

type CacheOptions struct {
	Res       int
	TTL       time.Duration
	HotTTL    time.Duration
	LocalSize int
	OpTimeout time.Duration
}

// CachedFinder serves lookups from an in-process LRU, then the shared store,
// then the wrapped finder. Entries are indexed by the H3 cell of the query
// point so a cell can be dropped as a unit. Lookups in hot cells live in a
// separate local LRU that expires after HotTTL.
type CachedFinder struct {
	next     Finder
	store    Store
	local    *expirable.LRU[string, []Place]
	localHot *expirable.LRU[string, []Place]
	cells    mapper.Interface
	pop      *popularity.Tracker
	opts     CacheOptions
	logger   *slog.Logger
}

var _ Finder = (*CachedFinder)(nil)

// NewCachedFinder wraps next. store and pop may be nil.
func NewCachedFinder(l *slog.Logger, next Finder, store Store, cells mapper.Interface, pop *popularity.Tracker, opts CacheOptions) *CachedFinder {
	if l == nil {
		l = slog.Default()
	}
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}
	if opts.HotTTL < opts.TTL {
		opts.HotTTL = opts.TTL
	}
	if opts.LocalSize <= 0 {
		opts.LocalSize = 2048
	}
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = 150 * time.Millisecond
	}
	return &CachedFinder{
		next:     next,
		store:    store,
		local:    expirable.NewLRU[string, []Place](opts.LocalSize, nil, opts.TTL),
		localHot: expirable.NewLRU[string, []Place](max(opts.LocalSize/4, 1), nil, opts.HotTTL),
		cells:    cells,
		pop:      pop,
		opts:     opts,
		logger:   l,
	}
}

func (c *CachedFinder) Find(ctx context.Context, q Query) ([]Place, error) {
	cell, err := c.cells.CellForPoint(q.Lat, q.Lon, c.opts.Res)
	if err != nil {
		c.logger.DebugContext(ctx, "cache bypass", "err", err)
		return c.next.Find(ctx, q)
	}
	ctx = logger.WithCell(ctx, cell)
	hot := false
	if c.pop != nil {
		c.pop.Touch(cell)
		hot = c.pop.Hot(cell)
	}
	key := keys.Key(cacheLayer, c.opts.Res, cell, keys.POIQuery(q.Type, q.RadiusM, q.Lat, q.Lon))

	if v, ok := c.fromLocal(key); ok {
		observability.CacheHit("local")
		return v, nil
	}
	observability.CacheMiss("local")

	if v, ok := c.fromStore(ctx, key); ok {
		c.toLocal(key, v, hot)
		return v, nil
	}

	places, err := c.next.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	c.logger.DebugContext(ctx, "poi lookup filled", "type", q.Type, "count", len(places), "hot", hot)
	c.toLocal(key, places, hot)
	c.toStore(ctx, cell, key, places, hot)
	return places, nil
}

func (c *CachedFinder) fromLocal(key string) ([]Place, bool) {
	if v, ok := c.localHot.Get(key); ok {
		return v, true
	}
	return c.local.Get(key)
}

func (c *CachedFinder) toLocal(key string, v []Place, hot bool) {
	if hot {
		c.localHot.Add(key, v)
		c.local.Remove(key)
		return
	}
	c.local.Add(key, v)
}

func (c *CachedFinder) fromStore(ctx context.Context, key string) ([]Place, bool) {
	if c.store == nil {
		return nil, false
	}
	opCtx, cancel := context.WithTimeout(ctx, c.opts.OpTimeout)
	defer cancel()

	got, err := c.store.MGet(opCtx, []string{key})
	if err != nil {
		c.logger.WarnContext(ctx, "cache read failed", "key", key, "err", err)
		return nil, false
	}
	raw, ok := got[key]
	if !ok {
		observability.CacheMiss("redis")
		return nil, false
	}
	var places []Place
	if err := json.Unmarshal(raw, &places); err != nil {
		c.logger.WarnContext(ctx, "cache entry corrupt", "key", key, "err", err)
		return nil, false
	}
	observability.CacheHit("redis")
	return places, true
}

func (c *CachedFinder) toStore(ctx context.Context, cell, key string, places []Place, hot bool) {
	if c.store == nil {
		return
	}
	payload, err := json.Marshal(places)
	if err != nil {
		c.logger.WarnContext(ctx, "cache encode failed", "key", key, "err", err)
		return
	}
	ttl := c.opts.TTL
	if hot {
		ttl = c.opts.HotTTL
	}
	opCtx, cancel := context.WithTimeout(ctx, c.opts.OpTimeout)
	defer cancel()

	if err := c.store.SetIndexed(opCtx, keys.IndexKey(cacheLayer, c.opts.Res, cell), key, payload, ttl); err != nil {
		c.logger.WarnContext(ctx, "cache write failed", "key", key, "err", err)
	}
}

// Evict drops every cached lookup whose query point lies in one of cells
// and resets their popularity. It returns the number of entries removed.
func (c *CachedFinder) Evict(ctx context.Context, cells []string) (int, error) {
	removed := 0
	for _, cell := range cells {
		prefix := cacheLayer + ":" + strconv.Itoa(c.opts.Res) + ":" + cell + ":"
		for _, lru := range []*expirable.LRU[string, []Place]{c.local, c.localHot} {
			for _, k := range lru.Keys() {
				if strings.HasPrefix(k, prefix) && lru.Remove(k) {
					removed++
				}
			}
		}
		if c.store == nil {
			continue
		}
		n, err := c.store.EvictIndex(ctx, keys.IndexKey(cacheLayer, c.opts.Res, cell))
		if err != nil {
			return removed, err
		}
		removed += n
	}
	if c.pop != nil {
		c.pop.Reset(cells...)
	}
	return removed, nil
}

// Res is the H3 resolution entries are indexed at.
func (c *CachedFinder) Res() int { return c.opts.Res }
