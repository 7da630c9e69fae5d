package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/millennium/areamatch/internal/api"
	"github.com/millennium/areamatch/internal/cache/redisstore"
	"github.com/millennium/areamatch/internal/core/config"
	"github.com/millennium/areamatch/internal/core/health"
	"github.com/millennium/areamatch/internal/core/httpclient"
	"github.com/millennium/areamatch/internal/core/observability"
	"github.com/millennium/areamatch/internal/core/server"
	"github.com/millennium/areamatch/internal/events"
	"github.com/millennium/areamatch/internal/invalidation"
	"github.com/millennium/areamatch/internal/listings"
	"github.com/millennium/areamatch/internal/logger"
	h3mapper "github.com/millennium/areamatch/internal/mapper/h3"
	"github.com/millennium/areamatch/internal/metrics"
	"github.com/millennium/areamatch/internal/places"
	"github.com/millennium/areamatch/internal/popularity"
	"github.com/millennium/areamatch/internal/scoring"
	"github.com/millennium/areamatch/internal/sheetws"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// a missing .env is fine outside local dev
	_ = godotenv.Load()

	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Service:   "areamatch",
		Component: "server",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	mp := metrics.Init(metrics.Config{
		Path: cfg.MetricsPath,
		Build: metrics.BuildInfo{
			Version:   Version,
			Revision:  os.Getenv("BUILD_REVISION"),
			BuildDate: os.Getenv("BUILD_DATE"),
		},
	})
	observability.ExposeBuildInfo(Version)

	appLog.Info("starting areamatch",
		"addr", cfg.Addr,
		"version", Version,
		"overpass", cfg.OverpassURL,
		"db", cfg.DBPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := map[string]health.Check{}

	// redis is optional; without it the cache runs on the local tier only
	var shared places.Store
	if cfg.CacheEnabled {
		dialCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		rc, err := redisstore.New(dialCtx, cfg.RedisAddr,
			redisstore.WithPoolSize(cfg.RedisPoolSize),
			redisstore.WithDialTimeout(cfg.RedisDialTimeout),
			redisstore.WithReadTimeout(cfg.RedisReadTimeout))
		cancel()
		if err != nil {
			appLog.Warn("redis unavailable, using local cache only", "addr", cfg.RedisAddr, "err", err)
		} else {
			defer func() { _ = rc.Close() }()
			shared = rc
			checks["redis"] = rc.Ping
		}
	}

	cells := h3mapper.New()
	pop := popularity.New(cfg.HotHalfLife, cfg.HotThreshold)
	go pop.RunPruner(ctx, cfg.HotHalfLife)
	catalog := places.DefaultCatalog()

	overpass := places.NewOverpass(appLog, httpclient.NewOutbound(cfg.OverpassTimeout+2*time.Second), places.OverpassOptions{
		Endpoint: cfg.OverpassURL,
		Catalog:  catalog,
		Bounds:   cfg.Bounds,
		Timeout:  cfg.OverpassTimeout,
	})
	finder := places.NewCachedFinder(appLog, overpass, shared, cells, pop, places.CacheOptions{
		Res:       cfg.H3Res,
		TTL:       cfg.CacheTTL,
		HotTTL:    cfg.CacheTTLHot,
		LocalSize: cfg.CacheLocalSize,
		OpTimeout: cfg.CacheOpTimeout,
	})

	scorer := scoring.New(appLog, finder, catalog, cells, scoring.Options{
		Bounds:  cfg.Bounds,
		Res:     cfg.H3Res,
		Workers: cfg.FetchWorkers,
	})

	store, err := listings.Open(ctx, cfg.DBPath, cfg.Bounds)
	if err != nil {
		appLog.Error("failed to open listing store", "path", cfg.DBPath, "err", err)
		return 1
	}
	defer func() { _ = store.Close() }()
	checks["sqlite"] = store.Ping

	deps := api.Deps{
		Logger:       appLog,
		Finder:       finder,
		Catalog:      catalog,
		Evaluator:    scorer,
		Listings:     store,
		Searcher:     listings.NewSearcher(appLog, store, scorer, finder),
		Bounds:       cfg.Bounds,
		Center:       cfg.DefaultLocation,
		FetchWorkers: cfg.FetchWorkers,
	}

	if cfg.Kafka.PublishEnabled {
		pub, err := events.NewPublisher(appLog, cfg.Kafka.Brokers, cfg.Kafka.ListingTopic, 0)
		if err != nil {
			appLog.Warn("listing events disabled", "err", err)
		} else {
			defer func() { _ = pub.Close() }()
			deps.Publisher = pub
		}
	}

	inv := invalidation.New(appLog, invalidation.Config{
		Enabled: cfg.Kafka.InvalidationEnabled,
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.InvalidationTopic,
		GroupID: cfg.Kafka.GroupID + "-invalidator",
	}, finder, cells)
	if inv.Enabled() {
		if err := inv.Start(ctx); err != nil {
			appLog.Error("invalidation consumer failed to start", "err", err)
			return 1
		}
		defer inv.Stop()
		checks["invalidation"] = inv.Check
	}

	err = server.Run(ctx, server.Options{
		Addr:        cfg.Addr,
		Logger:      appLog,
		API:         api.New(deps),
		Sheet:       sheetws.NewHandler(appLog, cfg.SheetMaxOffset),
		Metrics:     mp.Handler(),
		MetricsPath: mp.Path(),
		Checks:      checks,
	})
	if err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
