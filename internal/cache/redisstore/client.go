// Package redisstore wraps the Redis operations used by the POI cache.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	maintnotifications "github.com/redis/go-redis/v9/maintnotifications"

	"github.com/millennium/areamatch/internal/core/observability"
)

// Option tunes the client. Non-positive values keep the defaults.
type Option func(*redis.Options)

func WithPoolSize(n int) Option {
	return func(o *redis.Options) {
		if n > 0 {
			o.PoolSize = n
		}
	}
}

func WithDialTimeout(d time.Duration) Option {
	return func(o *redis.Options) {
		if d > 0 {
			o.DialTimeout = d
		}
	}
}

func WithReadTimeout(d time.Duration) Option {
	return func(o *redis.Options) {
		if d > 0 {
			o.ReadTimeout = d
		}
	}
}

type Client struct {
	rdb *redis.Client
}

func New(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}

	ro := &redis.Options{
		Addr:         addr,
		PoolSize:     32,
		MinIdleConns: 2,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	}
	for _, f := range opts {
		f(ro)
	}

	c := &Client{rdb: redis.NewClient(ro)}
	if err := c.Ping(ctx); err != nil {
		_ = c.rdb.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) Ping(ctx context.Context) error {
	start := time.Now()
	err := c.rdb.Ping(ctx).Err()
	observability.ObserveCacheOp("ping", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// MGet returns a map of found keys to their values
func (c *Client) MGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	start := time.Now()
	if len(keys) == 0 {
		return map[string][]byte{}, nil
	}

	vals, err := c.rdb.MGet(ctx, keys...).Result()
	observability.ObserveCacheOp("mget", err, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("redis MGET %d keys: %w", len(keys), err)
	}

	out := make(map[string][]byte, len(vals))
	for i, v := range vals {
		switch t := v.(type) {
		case nil:
			// missing key
		case string:
			out[keys[i]] = []byte(t)
		case []byte:
			out[keys[i]] = t
		default:
			out[keys[i]] = fmt.Append(nil, t)
		}
	}
	return out, nil
}

// SetIndexed stores key and records it in the set at indexKey, so every
// key under one index can be evicted together. The index outlives its
// members by one ttl.
func (c *Client) SetIndexed(ctx context.Context, indexKey, key string, val []byte, ttl time.Duration) error {
	start := time.Now()
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, key, val, ttl)
		p.SAdd(ctx, indexKey, key)
		if ttl > 0 {
			p.Expire(ctx, indexKey, 2*ttl)
		}
		return nil
	})
	observability.ObserveCacheOp("set_indexed", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("redis SET %q indexed by %q: %w", key, indexKey, err)
	}
	return nil
}

// EvictIndex deletes every key recorded under indexKey plus the index
// itself and reports how many members were removed.
func (c *Client) EvictIndex(ctx context.Context, indexKey string) (int, error) {
	start := time.Now()
	members, err := c.rdb.SMembers(ctx, indexKey).Result()
	if err != nil {
		observability.ObserveCacheOp("evict", err, time.Since(start).Seconds())
		return 0, fmt.Errorf("redis SMEMBERS %q: %w", indexKey, err)
	}
	err = c.rdb.Del(ctx, append(members, indexKey)...).Err()
	observability.ObserveCacheOp("evict", err, time.Since(start).Seconds())
	if err != nil {
		return 0, fmt.Errorf("redis DEL %d keys of %q: %w", len(members)+1, indexKey, err)
	}
	return len(members), nil
}

func (c *Client) Close() error {
	if err := c.rdb.Close(); err != nil {
		return fmt.Errorf("redis close: %w", err)
	}
	return nil
}
