package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/hoard/pkg/cache"
	"github.com/dmitrymomot/hoard/pkg/logger"
)

// Config is the hoard service configuration.
type Config struct {
	Cache  CacheConfig  `yaml:"cache"`
	Memo   MemoConfig   `yaml:"memo"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Redis  RedisConfig  `yaml:"redis"`
	Sentry SentryConfig `yaml:"sentry"`
}

// CacheConfig configures the entry cache.
type CacheConfig struct {
	Name          string   `yaml:"name"`
	Layout        string   `yaml:"layout"`
	SweepSchedule string   `yaml:"sweep_schedule"`
	DefaultTTL    Duration `yaml:"default_ttl"`
	SweepInterval Duration `yaml:"sweep_interval"`
	MaxSize       int64    `yaml:"max_size"`
	MaxEntries    int      `yaml:"max_entries"`
	SweepLimit    int      `yaml:"sweep_limit"`
	Shards        int      `yaml:"shards"`
	Stats         bool     `yaml:"stats"`
}

// MemoConfig configures the memoized lookup.
type MemoConfig struct {
	TTL             Duration `yaml:"ttl"`
	SlidingTTL      Duration `yaml:"sliding_ttl"`
	SWR             Duration `yaml:"swr"`
	ErrorTTL        Duration `yaml:"error_ttl"`
	Jitter          float64  `yaml:"jitter"`
	MaxEntries      int      `yaml:"max_entries"`
	WarmConcurrency int      `yaml:"warm_concurrency"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	// MaxBodySize limits PUT request bodies, in bytes.
	MaxBodySize int64 `yaml:"max_body_size"`
}

// LogConfig configures stdout logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RedisConfig configures the optional lookup origin. Lookups are disabled
// when URL is empty.
type RedisConfig struct {
	URL     string   `yaml:"url"`
	Prefix  string   `yaml:"prefix"`
	Timeout Duration `yaml:"timeout"`
	Retries int      `yaml:"retries"`
}

// SentryConfig configures error reporting. Disabled when DSN is empty.
type SentryConfig struct {
	DSN         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
	Release     string `yaml:"release"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Cache: CacheConfig{
			Name:          "entries",
			Layout:        cache.LayoutNodes.String(),
			MaxEntries:    cache.DefaultMaxEntries,
			SweepLimit:    cache.DefaultSweepLimit,
			SweepInterval: Duration(time.Minute),
			Shards:        1,
			Stats:         true,
		},
		Memo: MemoConfig{
			TTL:             Duration(time.Minute),
			SWR:             Duration(30 * time.Second),
			Jitter:          0.1,
			MaxEntries:      cache.DefaultMaxEntries,
			WarmConcurrency: 8,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     Duration(10 * time.Second),
			WriteTimeout:    Duration(10 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
			MaxBodySize:     1 << 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Redis: RedisConfig{
			Prefix:  "hoard",
			Timeout: Duration(time.Second),
			Retries: 3,
		},
		Sentry: SentryConfig{
			Environment: "development",
		},
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Join(ErrReadFile, err)
		}
		if err := cfg.decode(data); err != nil {
			return Config{}, errors.Join(ErrReadFile, fmt.Errorf("%s: %w", path, err))
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse is like Load for YAML already in memory. Environment overrides are not
// applied.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return Config{}, errors.Join(ErrReadFile, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv overrides fields from the environment. lookup is os.LookupEnv
// outside tests.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set("HOARD_ADDR", &c.Server.Addr)
	set("HOARD_LOG_LEVEL", &c.Log.Level)
	set("REDIS_URL", &c.Redis.URL)
	set("SENTRY_DSN", &c.Sentry.DSN)
	set("SENTRY_ENVIRONMENT", &c.Sentry.Environment)
}

// Validate reports every invalid field at once. The returned error wraps
// ErrInvalidConfig.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Cache.MaxEntries <= 0 {
		add("cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
	}
	if c.Cache.MaxSize < 0 {
		add("cache.max_size must not be negative, got %d", c.Cache.MaxSize)
	}
	if c.Cache.Shards < 0 {
		add("cache.shards must not be negative, got %d", c.Cache.Shards)
	}
	if _, err := cache.ParseLayout(c.Cache.Layout); err != nil {
		add("cache.layout: %w", err)
	}
	if c.Cache.SweepSchedule != "" {
		if _, err := cache.ParseSchedule(c.Cache.SweepSchedule); err != nil {
			add("cache.sweep_schedule: %w", err)
		}
	}
	if c.Cache.DefaultTTL < 0 || c.Cache.SweepInterval < 0 {
		add("cache durations must not be negative")
	}

	if c.Memo.Jitter < 0 || c.Memo.Jitter > 1 {
		add("memo.jitter must be within [0, 1], got %v", c.Memo.Jitter)
	}
	if c.Memo.SWR > 0 && c.Memo.TTL <= 0 {
		add("memo.swr requires memo.ttl")
	}
	if c.Memo.TTL < 0 || c.Memo.SWR < 0 || c.Memo.SlidingTTL < 0 || c.Memo.ErrorTTL < 0 {
		add("memo durations must not be negative")
	}

	if c.Server.Addr == "" {
		add("server.addr is required")
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		add("log.level %q: %w", c.Log.Level, err)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		add("log.format must be json or text, got %q", c.Log.Format)
	}

	if c.Redis.URL != "" && c.Redis.Retries < 0 {
		add("redis.retries must not be negative, got %d", c.Redis.Retries)
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
}
