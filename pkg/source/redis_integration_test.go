//go:build integration

package source_test

import (
	"context"
	"errors"
	"os"
	"sort"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/hoard/pkg/redis"
	"github.com/dmitrymomot/hoard/pkg/source"
)

const testRedisURL = "redis://localhost:6379/0"

func newTestRedisClient(t *testing.T) goredis.UniversalClient {
	t.Helper()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = testRedisURL
	}

	ctx := context.Background()
	client, err := redis.Open(ctx, url, redis.WithRetry(1, time.Second))
	require.NoError(t, err, "failed to connect to Redis")

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

func TestRedis_Load(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrNotFound for missing key", func(t *testing.T) {
		t.Parallel()

		s := source.NewRedis[string](newTestRedisClient(t), nil, source.WithPrefix("src-miss"))

		_, err := s.Load(context.Background(), "missing")
		require.ErrorIs(t, err, source.ErrNotFound)
	})

	t.Run("returns stored struct", func(t *testing.T) {
		t.Parallel()

		s := source.NewRedis[user](newTestRedisClient(t), nil, source.WithPrefix("src-hit"))
		ctx := context.Background()
		t.Cleanup(func() { _ = s.Remove(ctx, "1") })

		require.NoError(t, s.Store(ctx, "1", user{ID: "1", Name: "Ada"}, time.Minute))

		u, err := s.Load(ctx, "1")
		require.NoError(t, err)
		require.Equal(t, "Ada", u.Name)
	})

	t.Run("wraps decode failures", func(t *testing.T) {
		t.Parallel()

		client := newTestRedisClient(t)
		ctx := context.Background()
		require.NoError(t, client.Set(ctx, "src-bad:k", "not json", time.Minute).Err())
		t.Cleanup(func() { _ = client.Del(ctx, "src-bad:k").Err() })

		s := source.NewRedis[user](client, nil, source.WithPrefix("src-bad"))
		_, err := s.Load(ctx, "k")
		require.ErrorIs(t, err, source.ErrUnmarshal)
	})
}

func TestRedis_Store(t *testing.T) {
	t.Parallel()

	t.Run("zero TTL uses store default", func(t *testing.T) {
		t.Parallel()

		client := newTestRedisClient(t)
		s := source.NewRedis[int](client, nil,
			source.WithPrefix("src-ttl"),
			source.WithStoreTTL(time.Minute),
		)
		ctx := context.Background()
		t.Cleanup(func() { _ = s.Remove(ctx, "k") })

		require.NoError(t, s.Store(ctx, "k", 1, 0))

		ttl, err := client.TTL(ctx, "src-ttl:k").Result()
		require.NoError(t, err)
		require.Greater(t, ttl, 50*time.Second)
	})

	t.Run("custom marshaler errors are wrapped", func(t *testing.T) {
		t.Parallel()

		s := source.NewRedis[int](newTestRedisClient(t), failingMarshaler{}, source.WithPrefix("src-marshal"))
		err := s.Store(context.Background(), "k", 1, time.Minute)
		require.ErrorIs(t, err, source.ErrMarshal)
	})
}

func TestRedis_Keys(t *testing.T) {
	t.Parallel()

	s := source.NewRedis[int](newTestRedisClient(t), nil, source.WithPrefix("src-keys"))
	ctx := context.Background()
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, s.Store(ctx, k, 1, time.Minute))
	}
	t.Cleanup(func() {
		for _, k := range []string{"a", "b", "c"} {
			_ = s.Remove(ctx, k)
		}
	})

	keys, err := s.Keys(ctx, 0)
	require.NoError(t, err)
	sort.Strings(keys)
	require.Equal(t, []string{"a", "b", "c"}, keys)

	keys, err = s.Keys(ctx, 2)
	require.NoError(t, err)
	require.Len(t, keys, 2)
}

type failingMarshaler struct{}

func (failingMarshaler) Marshal(int) ([]byte, error)   { return nil, errors.New("nope") }
func (failingMarshaler) Unmarshal([]byte) (int, error) { return 0, errors.New("nope") }
