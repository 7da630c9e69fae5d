package config

import (
	"testing"
	"time"

	"github.com/millennium/areamatch/internal/geo"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()
	if cfg.Addr != ":8090" || cfg.H3Res != 8 || cfg.FetchWorkers != 5 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Bounds != geo.Azerbaijan {
		t.Fatalf("bounds=%+v", cfg.Bounds)
	}
	if cfg.CacheTTLHot != 6*cfg.CacheTTL {
		t.Fatalf("hot ttl=%v ttl=%v", cfg.CacheTTLHot, cfg.CacheTTL)
	}
	if len(cfg.Kafka.Brokers) != 1 || cfg.Kafka.Brokers[0] != "localhost:9092" {
		t.Fatalf("brokers=%v", cfg.Kafka.Brokers)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("H3_RES", "9")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("CACHE_ENABLED", "no")
	t.Setenv("KAFKA_BROKERS", " a:1 , b:2 ,")
	t.Setenv("SHEET_MAX_OFFSET", "320")
	t.Setenv("LOG_CONSOLE", "true")
	t.Setenv("LOG_SAMPLE_N", "10")
	t.Setenv("REDIS_POOL_SIZE", "8")
	t.Setenv("REDIS_READ_TIMEOUT", "300ms")

	cfg := FromEnv()
	if cfg.RedisPoolSize != 8 || cfg.RedisReadTimeout != 300*time.Millisecond || cfg.RedisDialTimeout != 2*time.Second {
		t.Fatalf("redis pool=%d read=%v dial=%v", cfg.RedisPoolSize, cfg.RedisReadTimeout, cfg.RedisDialTimeout)
	}
	if !cfg.LogConsole || cfg.LogSampleN != 10 {
		t.Fatalf("log console=%v sample=%d", cfg.LogConsole, cfg.LogSampleN)
	}
	if cfg.H3Res != 9 {
		t.Fatalf("res=%d", cfg.H3Res)
	}
	if cfg.CacheTTL != 30*time.Second || cfg.CacheTTLHot != 3*time.Minute {
		t.Fatalf("ttl=%v hot=%v", cfg.CacheTTL, cfg.CacheTTLHot)
	}
	if cfg.CacheEnabled {
		t.Fatal("cache should be disabled")
	}
	if got := cfg.Kafka.Brokers; len(got) != 2 || got[0] != "a:1" || got[1] != "b:2" {
		t.Fatalf("brokers=%v", got)
	}
	if cfg.SheetMaxOffset != 320 {
		t.Fatalf("sheet max=%v", cfg.SheetMaxOffset)
	}
}

func TestFromEnv_RejectsBadValues(t *testing.T) {
	t.Setenv("H3_RES", "22")
	t.Setenv("BOUNDS_MIN_LAT", "45")
	t.Setenv("POI_FETCH_WORKERS", "many")

	cfg := FromEnv()
	if cfg.H3Res != 8 {
		t.Fatalf("res=%d", cfg.H3Res)
	}
	if cfg.Bounds != geo.Azerbaijan {
		t.Fatalf("inverted bounds should fall back, got %+v", cfg.Bounds)
	}
	if cfg.FetchWorkers != 5 {
		t.Fatalf("workers=%d", cfg.FetchWorkers)
	}
}
