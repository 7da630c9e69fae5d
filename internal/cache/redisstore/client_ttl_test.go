package redisstore

import (
	"context"
	"testing"
	"time"
)

func TestTTLExpiry_IndexedEntriesExpire(t *testing.T) {
	rc, mr := newMini(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := rc.SetIndexed(ctx, "idx:c", "ttl-key", []byte("v"), 2*time.Second); err != nil {
		t.Fatalf("SetIndexed: %v", err)
	}
	got, err := rc.MGet(ctx, []string{"ttl-key"})
	if err != nil || string(got["ttl-key"]) != "v" {
		t.Fatalf("pre expiry got=%v err=%v", got, err)
	}

	mr.FastForward(3 * time.Second)

	got, err = rc.MGet(ctx, []string{"ttl-key"})
	if err != nil {
		t.Fatalf("MGet: %v", err)
	}
	if _, ok := got["ttl-key"]; ok {
		t.Fatalf("expected ttl-key to be absent after expiry; got=%v", got)
	}
	// index lives for 2*ttl
	if !mr.Exists("idx:c") {
		t.Fatal("index should outlive its members")
	}
	mr.FastForward(2 * time.Second)
	if mr.Exists("idx:c") {
		t.Fatal("index should expire")
	}
}
