package memo

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/hoard/pkg/cache"
)

// DefaultWarmConcurrency bounds how many loads Warm runs at once.
const DefaultWarmConcurrency = 8

// Option configures a memoized function.
type Option func(*options)

type options struct {
	clock           cache.Clock
	logger          *slog.Logger
	keyer           any // func(A) string, checked in Wrap
	name            string
	cacheOpts       []cache.Option
	ttl             time.Duration
	sliding         time.Duration
	swr             time.Duration
	errTTL          time.Duration
	jitter          float64
	maxEntries      int
	maxSize         int64
	warmConcurrency int
	cacheErrors     bool
}

func defaultOptions() *options {
	return &options{
		clock:           cache.SystemClock(),
		maxEntries:      cache.DefaultMaxEntries,
		warmConcurrency: DefaultWarmConcurrency,
	}
}

// WithTTL sets how long a computed value stays fresh.
// Default: 0 (fresh until evicted).
func WithTTL(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.ttl = d
		}
	}
}

// WithSlidingTTL drops values that have not been read for d.
func WithSlidingTTL(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.sliding = d
		}
	}
}

// WithSWR keeps serving a value for d after it goes stale while one background
// call refreshes it. Requires WithTTL.
func WithSWR(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.swr = d
		}
	}
}

// WithJitter spreads expirations by a uniform random offset within
// ±fraction of the TTL, so values loaded together do not expire together.
// fraction is clamped to [0, 1].
// Default: 0.
func WithJitter(fraction float64) Option {
	return func(o *options) {
		o.jitter = min(max(fraction, 0), 1)
	}
}

// WithCacheErrors caches failed calls for ttl and replays the error until it
// expires. Without it, failures are never cached.
func WithCacheErrors(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.cacheErrors = true
			o.errTTL = ttl
		}
	}
}

// WithKeyer replaces Key for deriving cache keys. Its argument type must match
// the wrapped function's; Wrap panics otherwise. For WrapArgs the argument is
// []any.
func WithKeyer[A any](fn func(A) string) Option {
	return func(o *options) {
		if fn != nil {
			o.keyer = fn
		}
	}
}

// WithMaxEntries bounds the number of memoized results.
// Default: 1000.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxEntries = n
		}
	}
}

// WithMaxSize bounds the total estimated size of memoized results.
// Default: 0 (unbounded).
func WithMaxSize(n int64) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxSize = n
		}
	}
}

// WithWarmConcurrency bounds the parallel loads started by Warm.
// Default: 8.
func WithWarmConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.warmConcurrency = n
		}
	}
}

// WithName labels the backing cache in logs, events and metrics.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithClock sets the time source shared with the backing cache.
func WithClock(c cache.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the logger for background refresh failures.
// Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCacheOptions passes extra options to the backing cache, such as
// cache.WithStats, cache.WithEvents or cache.WithLayout. They are applied after
// the options derived from this package.
func WithCacheOptions(opts ...cache.Option) Option {
	return func(o *options) {
		o.cacheOpts = append(o.cacheOpts, opts...)
	}
}
