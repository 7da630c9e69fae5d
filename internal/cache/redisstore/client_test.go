package redisstore

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

// creates new client connected to miniredis for testing
func newMini(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)

	rc, err := New(ctx, mr.Addr())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

func TestMGet_FiltersMissing(t *testing.T) {
	rc, _ := newMini(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := rc.SetIndexed(ctx, "idx", "k1", []byte("v1"), time.Minute); err != nil {
		t.Fatalf("SetIndexed: %v", err)
	}
	got, err := rc.MGet(ctx, []string{"k1", "nope"})
	if err != nil {
		t.Fatalf("MGet: %v", err)
	}
	if len(got) != 1 || string(got["k1"]) != "v1" {
		t.Fatalf("MGet got=%v", got)
	}
}

func TestNew_AppliesOptions(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rc, err := New(ctx, mr.Addr(), WithPoolSize(4), WithReadTimeout(200*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = rc.Close() }()
	o := rc.rdb.Options()
	if o.PoolSize != 4 || o.ReadTimeout != 200*time.Millisecond {
		t.Fatalf("options not applied: pool=%d read=%v", o.PoolSize, o.ReadTimeout)
	}

	rc2, err := New(ctx, mr.Addr(), WithPoolSize(0), WithDialTimeout(-1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = rc2.Close() }()
	if o := rc2.rdb.Options(); o.PoolSize != 32 || o.DialTimeout != 2*time.Second {
		t.Fatalf("defaults overridden: pool=%d dial=%v", o.PoolSize, o.DialTimeout)
	}
}

func TestSetIndexed_EvictIndex(t *testing.T) {
	rc, mr := newMini(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for _, k := range []string{"a", "b"} {
		if err := rc.SetIndexed(ctx, "idx:cell1", k, []byte(k), time.Minute); err != nil {
			t.Fatalf("SetIndexed: %v", err)
		}
	}
	if err := rc.SetIndexed(ctx, "idx:cell2", "c", []byte("c"), time.Minute); err != nil {
		t.Fatalf("SetIndexed: %v", err)
	}
	if ttl := mr.TTL("idx:cell1"); ttl != 2*time.Minute {
		t.Fatalf("index ttl=%v", ttl)
	}

	n, err := rc.EvictIndex(ctx, "idx:cell1")
	if err != nil {
		t.Fatalf("EvictIndex: %v", err)
	}
	if n != 2 {
		t.Fatalf("evicted=%d want 2", n)
	}
	got, _ := rc.MGet(ctx, []string{"a", "b", "c"})
	if len(got) != 1 || string(got["c"]) != "c" {
		t.Fatalf("only c should survive, got=%v", got)
	}
	if mr.Exists("idx:cell1") {
		t.Fatal("index key should be gone")
	}

	n, err = rc.EvictIndex(ctx, "idx:missing")
	if err != nil || n != 0 {
		t.Fatalf("evict missing n=%d err=%v", n, err)
	}
}

func TestNew_FailsWithoutServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := New(ctx, "127.0.0.1:1", WithDialTimeout(100*time.Millisecond)); err == nil {
		t.Fatal("expected ping error")
	}
	if _, err := New(ctx, ""); err == nil {
		t.Fatal("expected error for empty addr")
	}
}
