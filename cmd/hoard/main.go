// Command hoard serves a sharded in-memory cache over HTTP, optionally
// fronting a Redis origin with a memoized lookup.
//
// Usage:
//
//	hoard -config hoard.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dmitrymomot/hoard/internal/server"
	"github.com/dmitrymomot/hoard/pkg/cache"
	"github.com/dmitrymomot/hoard/pkg/config"
	"github.com/dmitrymomot/hoard/pkg/events"
	"github.com/dmitrymomot/hoard/pkg/health"
	"github.com/dmitrymomot/hoard/pkg/logger"
	"github.com/dmitrymomot/hoard/pkg/memo"
	"github.com/dmitrymomot/hoard/pkg/redis"
	"github.com/dmitrymomot/hoard/pkg/shard"
	"github.com/dmitrymomot/hoard/pkg/source"
)

// saturationThreshold marks the entry cache not ready when it is over its
// limit, which only happens if eviction is broken.
const saturationThreshold = 1.0

func main() {
	path := flag.String("config", os.Getenv("HOARD_CONFIG"), "path to the YAML config file")
	flag.Parse()

	if err := run(context.Background(), *path); err != nil {
		fmt.Fprintln(os.Stderr, "hoard:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	log := logger.NewWithSentry(cfg.SentryLogger(),
		append(logger.CacheExtractors(), server.RequestIDExtractor())...,
	)
	defer logger.Flush(2 * time.Second)

	bus := events.NewBus(events.WithLogger(log))
	bus.Subscribe(events.Evict, func(ev events.Event) {
		log.Debug("entry evicted", slog.String("cache", ev.Source), slog.Any("cache_key", ev.Key), slog.Int64("size", ev.Size))
	})

	entries := shard.New[[]byte](cfg.Cache.Shards,
		append(cfg.CacheOptions(), cache.WithLogger(log), cache.WithEvents(bus))...,
	)

	checks := health.Checks{
		"entries": health.CacheCheck(entries, saturationThreshold),
	}
	runOpts := []server.RunOption{
		server.Address(cfg.Server.Addr),
		server.Logger(log),
		server.Timeouts(cfg.Server.ReadTimeout.Std(), cfg.Server.WriteTimeout.Std()),
		server.ShutdownTimeout(cfg.Server.ShutdownTimeout.Std()),
		server.ShutdownHook(func(context.Context) error { return entries.Close() }),
	}
	srvOpts := []server.Option{
		server.WithLogger(log),
		server.WithMaxBodySize(cfg.Server.MaxBodySize),
	}

	if cfg.Redis.URL != "" {
		client, err := redis.Open(ctx, cfg.Redis.URL,
			redis.WithRetry(cfg.Redis.Retries, time.Second),
			redis.WithTimeouts(cfg.Redis.Timeout.Std(), cfg.Redis.Timeout.Std(), 0),
			redis.WithLogger(log),
		)
		if err != nil {
			return err
		}

		origin := source.NewRedis[[]byte](client, source.Bytes{}, source.WithPrefix(cfg.Redis.Prefix))
		lookup := memo.Wrap(origin.Load, append(cfg.MemoOptions(),
			memo.WithName("lookup"),
			memo.WithLogger(log),
			memo.WithCacheOptions(cache.WithStats(), cache.WithEvents(bus)),
		)...)

		checks["redis"] = redis.Healthcheck(client)
		srvOpts = append(srvOpts, server.WithLookup(lookup))
		// Hooks run in order: stop refreshes before closing their client.
		runOpts = append(runOpts,
			server.ShutdownHook(func(context.Context) error { return lookup.Close() }),
			server.ShutdownHook(redis.Shutdown(client)),
		)
		log.Info("lookup enabled", slog.String("prefix", cfg.Redis.Prefix))
	}

	srvOpts = append(srvOpts, server.WithChecks(checks))
	srv := server.New(entries, srvOpts...)

	log.Info("cache ready",
		slog.String("cache", entries.Name()),
		slog.Int("shards", entries.Shards()),
		slog.Int("max_entries", entries.MaxEntries()),
	)
	return server.Run(ctx, srv.Handler(), runOpts...)
}
