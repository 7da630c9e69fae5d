package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/millennium/areamatch/internal/geo"
)

type KafkaCfg struct {
	Brokers []string
	GroupID string
	// listing events out
	ListingTopic   string
	PublishEnabled bool
	// poi invalidation in
	InvalidationTopic   string
	InvalidationEnabled bool
}

type Config struct {
	Addr       string
	LogLevel   string
	LogConsole bool
	LogSampleN int
	DBPath     string

	MetricsPath string

	OverpassURL     string
	OverpassTimeout time.Duration
	FetchWorkers    int

	Bounds          geo.Bounds
	DefaultLocation geo.LatLng

	RedisAddr        string
	RedisPoolSize    int
	RedisDialTimeout time.Duration
	RedisReadTimeout time.Duration

	CacheEnabled   bool
	CacheOpTimeout time.Duration
	CacheTTL       time.Duration
	CacheTTLHot    time.Duration
	CacheLocalSize int
	H3Res          int

	HotThreshold float64
	HotHalfLife  time.Duration

	SheetMaxOffset float64

	Kafka KafkaCfg
}

func FromEnv() Config {
	res := getint("H3_RES", 8)
	if res < 0 || res > 15 {
		res = 8
	}

	bounds := geo.Bounds{
		MinLat: getfloat("BOUNDS_MIN_LAT", geo.Azerbaijan.MinLat),
		MaxLat: getfloat("BOUNDS_MAX_LAT", geo.Azerbaijan.MaxLat),
		MinLon: getfloat("BOUNDS_MIN_LON", geo.Azerbaijan.MinLon),
		MaxLon: getfloat("BOUNDS_MAX_LON", geo.Azerbaijan.MaxLon),
	}
	if bounds.Validate() != nil {
		bounds = geo.Azerbaijan
	}

	ttl := getduration("CACHE_TTL", 10*time.Minute)
	brokers := getenv("KAFKA_BROKERS", "localhost:9092")

	return Config{
		Addr:       getenv("ADDR", ":8090"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
		LogConsole: getbool("LOG_CONSOLE", false),
		LogSampleN: getint("LOG_SAMPLE_N", 0),
		DBPath:     getenv("DB_PATH", "houses.db"),

		MetricsPath: getenv("METRICS_PATH", "/metrics"),

		OverpassURL:     getenv("OVERPASS_URL", "https://overpass.kumi.systems/api/interpreter"),
		OverpassTimeout: getduration("OVERPASS_TIMEOUT", 8*time.Second),
		FetchWorkers:    getint("POI_FETCH_WORKERS", 5),

		Bounds: bounds,
		DefaultLocation: geo.LatLng{
			Lat: getfloat("DEFAULT_LAT", geo.DefaultLocation.Lat),
			Lon: getfloat("DEFAULT_LON", geo.DefaultLocation.Lon),
		},

		RedisAddr:        getenv("REDIS_ADDR", "localhost:6379"),
		RedisPoolSize:    getint("REDIS_POOL_SIZE", 32),
		RedisDialTimeout: getduration("REDIS_DIAL_TIMEOUT", 2*time.Second),
		RedisReadTimeout: getduration("REDIS_READ_TIMEOUT", time.Second),

		CacheEnabled:   getbool("CACHE_ENABLED", true),
		CacheOpTimeout: getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
		CacheTTL:       ttl,
		CacheTTLHot:    getduration("CACHE_TTL_HOT", 6*ttl),
		CacheLocalSize: getint("CACHE_LOCAL_SIZE", 2048),
		H3Res:          res,

		HotThreshold: getfloat("HOT_THRESHOLD", 5.0),
		HotHalfLife:  getduration("HOT_HALF_LIFE", 10*time.Minute),

		SheetMaxOffset: getfloat("SHEET_MAX_OFFSET", 400),

		Kafka: KafkaCfg{
			Brokers:             split(brokers),
			GroupID:             getenv("KAFKA_GROUP_ID", "areamatch"),
			ListingTopic:        getenv("KAFKA_LISTING_TOPIC", "listing-events"),
			PublishEnabled:      getbool("LISTING_EVENTS_ENABLED", false),
			InvalidationTopic:   getenv("KAFKA_INVALIDATION_TOPIC", "poi-invalidation"),
			InvalidationEnabled: getbool("INVALIDATION_ENABLED", false),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func split(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if x := strings.TrimSpace(p); x != "" {
			out = append(out, x)
		}
	}
	return out
}
