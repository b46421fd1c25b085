package source

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Option configures a Redis source.
type Option func(*options)

type options struct {
	prefix   string
	storeTTL time.Duration
}

// WithPrefix namespaces keys as "{prefix}:{key}".
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithStoreTTL sets the expiration used by Store when called with a zero TTL.
// Default: 0 (no expiration).
func WithStoreTTL(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.storeTTL = d
		}
	}
}

// Redis reads values from Redis. It is an origin, not a cache: nothing read
// from it is written back by this package.
type Redis[V any] struct {
	client    redis.UniversalClient
	marshaler Marshaler[V]
	opts      options
}

// NewRedis returns a source reading from client. A nil Marshaler means JSON.
// The client usually comes from pkg/redis.Open.
func NewRedis[V any](client redis.UniversalClient, m Marshaler[V], opts ...Option) *Redis[V] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if m == nil {
		m = JSON[V]{}
	}
	return &Redis[V]{client: client, marshaler: m, opts: o}
}

// Load returns the value stored under key, or ErrNotFound.
func (r *Redis[V]) Load(ctx context.Context, key string) (V, error) {
	var zero V
	if r.client == nil {
		return zero, ErrNoClient
	}

	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, ErrNotFound
		}
		return zero, err
	}

	v, err := r.marshaler.Unmarshal(data)
	if err != nil {
		return zero, errors.Join(ErrUnmarshal, err)
	}
	return v, nil
}

// Store writes value to the origin. A zero ttl uses WithStoreTTL; a negative
// ttl never expires.
func (r *Redis[V]) Store(ctx context.Context, key string, value V, ttl time.Duration) error {
	if r.client == nil {
		return ErrNoClient
	}

	data, err := r.marshaler.Marshal(value)
	if err != nil {
		return errors.Join(ErrMarshal, err)
	}

	if ttl == 0 {
		ttl = r.opts.storeTTL
	}
	return r.client.Set(ctx, r.key(key), data, max(ttl, 0)).Err()
}

// Remove deletes key from the origin. Removing a missing key is not an error.
func (r *Redis[V]) Remove(ctx context.Context, key string) error {
	if r.client == nil {
		return ErrNoClient
	}
	return r.client.Del(ctx, r.key(key)).Err()
}

// Keys lists up to limit keys under the prefix using SCAN, with the prefix
// stripped. A limit of zero or less lists everything.
func (r *Redis[V]) Keys(ctx context.Context, limit int) ([]string, error) {
	if r.client == nil {
		return nil, ErrNoClient
	}

	pattern := "*"
	if r.opts.prefix != "" {
		pattern = r.opts.prefix + ":*"
	}

	var (
		out    []string
		cursor uint64
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			out = append(out, r.strip(k))
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}

		cursor = next
		if cursor == 0 {
			return out, nil
		}
	}
}

func (r *Redis[V]) key(key string) string {
	if r.opts.prefix == "" {
		return key
	}
	return r.opts.prefix + ":" + key
}

func (r *Redis[V]) strip(key string) string {
	if r.opts.prefix == "" {
		return key
	}
	return key[len(r.opts.prefix)+1:]
}

var _ Loader[any] = (*Redis[any])(nil)
