package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/hoard/pkg/logger"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	return rec
}

func TestCacheExtractors(t *testing.T) {
	t.Parallel()

	t.Run("adds cache name and key", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.NewWithConfig(logger.Config{Output: &buf}, logger.CacheExtractors()...)

		ctx := logger.WithCacheKey(logger.WithCacheName(context.Background(), "users"), "user:1")
		log.InfoContext(ctx, "hello")

		rec := decode(t, &buf)
		require.Equal(t, "users", rec["cache"])
		require.Equal(t, "user:1", rec["cache_key"])
	})

	t.Run("formats non-string keys", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.NewWithConfig(logger.Config{Output: &buf}, logger.CacheKeyExtractor())

		log.InfoContext(logger.WithCacheKey(context.Background(), 42), "hello")
		require.Equal(t, "42", decode(t, &buf)["cache_key"])
	})

	t.Run("skips missing values", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.NewWithConfig(logger.Config{Output: &buf}, logger.CacheExtractors()...)

		log.InfoContext(context.Background(), "hello")
		rec := decode(t, &buf)
		require.NotContains(t, rec, "cache")
		require.NotContains(t, rec, "cache_key")
	})
}

func TestNewWithConfig(t *testing.T) {
	t.Parallel()

	t.Run("respects level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.NewWithConfig(logger.Config{Output: &buf, Level: slog.LevelWarn})

		log.Info("dropped")
		require.Zero(t, buf.Len())
		log.Warn("kept")
		require.Equal(t, "kept", decode(t, &buf)["msg"])
	})

	t.Run("text format", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.NewWithConfig(logger.Config{Output: &buf, Format: "TEXT"})

		log.Info("hello", slog.Int("n", 1))
		require.Contains(t, buf.String(), "msg=hello")
		require.Contains(t, buf.String(), "n=1")
	})

	t.Run("extractors survive With", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.NewWithConfig(logger.Config{Output: &buf}, logger.CacheNameExtractor()).
			With(slog.String("component", "memo")).
			WithGroup("g")

		log.InfoContext(logger.WithCacheName(context.Background(), "c"), "hello")
		rec := decode(t, &buf)
		require.Equal(t, "memo", rec["component"])
		require.Equal(t, map[string]any{"cache": "c"}, rec["g"])
	})
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := logger.ParseLevel(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	_, err := logger.ParseLevel("loud")
	require.ErrorIs(t, err, logger.ErrInvalidLevel)
}

func TestNewWithSentry_FallsBackWithoutDSN(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewWithSentry(logger.SentryConfig{Stdout: logger.Config{Output: &buf}})

	log.Error("boom")
	require.Equal(t, "boom", decode(t, &buf)["msg"])
}

func TestNewNope(t *testing.T) {
	t.Parallel()

	log := logger.NewNope()
	require.NotNil(t, log)
	require.NotPanics(t, func() { log.Error("ignored") })
}

func TestLogHandlerDecorator(t *testing.T) {
	t.Parallel()

	ctx := logger.WithCacheName(context.Background(), "from-ctx")

	t.Run("explicit attributes win over extracted ones", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.NewWithConfig(logger.Config{Output: &buf}, logger.CacheNameExtractor())

		log.InfoContext(ctx, "hello", slog.String("cache", "explicit"))
		require.Equal(t, "explicit", decode(t, &buf)["cache"])
	})

	t.Run("logger attributes win over extracted ones", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.NewWithConfig(logger.Config{Output: &buf}, logger.CacheNameExtractor()).
			With(slog.String("cache", "bound"))

		log.InfoContext(ctx, "hello")
		require.Equal(t, "bound", decode(t, &buf)["cache"])
	})

	t.Run("nil extractors are ignored", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		h := logger.NewLogHandlerDecorator(slog.NewJSONHandler(&buf, nil), nil, logger.CacheNameExtractor())

		slog.New(h).InfoContext(ctx, "hello")
		require.Equal(t, "from-ctx", decode(t, &buf)["cache"])
	})
}
