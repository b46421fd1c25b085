package config

import (
	"log/slog"

	"github.com/dmitrymomot/hoard/pkg/cache"
	"github.com/dmitrymomot/hoard/pkg/logger"
	"github.com/dmitrymomot/hoard/pkg/memo"
)

// CacheOptions maps the cache section to cache options. Call it on a
// validated config.
func (c Config) CacheOptions() []cache.Option {
	layout, _ := cache.ParseLayout(c.Cache.Layout)

	opts := []cache.Option{
		cache.WithName(c.Cache.Name),
		cache.WithLayout(layout),
		cache.WithMaxEntries(c.Cache.MaxEntries),
		cache.WithMaxSize(c.Cache.MaxSize),
		cache.WithDefaultTTL(c.Cache.DefaultTTL.Std()),
		cache.WithSweepLimit(c.Cache.SweepLimit),
	}
	if c.Cache.SweepInterval > 0 {
		opts = append(opts, cache.WithSweepInterval(c.Cache.SweepInterval.Std()))
	}
	if c.Cache.SweepSchedule != "" {
		opts = append(opts, cache.WithSweepSchedule(c.Cache.SweepSchedule))
	}
	if c.Cache.Stats {
		opts = append(opts, cache.WithStats())
	}
	return opts
}

// MemoOptions maps the memo section to memo options.
func (c Config) MemoOptions() []memo.Option {
	opts := []memo.Option{
		memo.WithTTL(c.Memo.TTL.Std()),
		memo.WithSlidingTTL(c.Memo.SlidingTTL.Std()),
		memo.WithSWR(c.Memo.SWR.Std()),
		memo.WithJitter(c.Memo.Jitter),
		memo.WithMaxEntries(c.Memo.MaxEntries),
		memo.WithWarmConcurrency(c.Memo.WarmConcurrency),
	}
	if c.Memo.ErrorTTL > 0 {
		opts = append(opts, memo.WithCacheErrors(c.Memo.ErrorTTL.Std()))
	}
	return opts
}

// LoggerConfig returns the stdout logger configuration.
func (c Config) LoggerConfig() logger.Config {
	level, err := logger.ParseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	return logger.Config{Format: c.Log.Format, Level: level}
}

// SentryLogger returns the configuration for logger.NewWithSentry. Records at
// warn and above go to Sentry.
func (c Config) SentryLogger() logger.SentryConfig {
	return logger.SentryConfig{
		DSN:         c.Sentry.DSN,
		Environment: c.Sentry.Environment,
		Release:     c.Sentry.Release,
		Stdout:      c.LoggerConfig(),
		MinLevel:    slog.LevelWarn,
	}
}
