package cache

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/hoard/pkg/events"
)

const (
	// DefaultMaxEntries is the default entry limit.
	DefaultMaxEntries = 1000

	// DefaultSweepLimit is how many tail entries are checked for expiry before
	// every insert.
	DefaultSweepLimit = 8
)

// Layout selects how entries are stored.
type Layout uint8

const (
	// LayoutNodes keeps one pooled object per entry. Default.
	LayoutNodes Layout = iota
	// LayoutFlat keeps entries in parallel arrays preallocated to MaxEntries.
	LayoutFlat
)

func (l Layout) String() string {
	switch l {
	case LayoutFlat:
		return "flat"
	default:
		return "nodes"
	}
}

// ParseLayout converts "nodes" or "flat" to a Layout. An empty string means
// LayoutNodes.
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "", "nodes":
		return LayoutNodes, nil
	case "flat":
		return LayoutFlat, nil
	default:
		return LayoutNodes, fmt.Errorf("%w: %q", ErrInvalidLayout, s)
	}
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	clock         Clock
	logger        *slog.Logger
	stats         StatsRecorder
	bus           *events.Bus
	sizer         any // func(V) int64, checked in New
	sweepSchedule string
	name          string
	defaultTTL    time.Duration
	sweepInterval time.Duration
	maxSize       int64
	maxEntries    int
	poolSize      int
	sweepLimit    int
	layout        Layout
}

func defaultOptions() *options {
	return &options{
		clock:      realClock{},
		maxEntries: DefaultMaxEntries,
		sweepLimit: DefaultSweepLimit,
		layout:     LayoutNodes,
	}
}

// WithName labels the cache in logs, events and metrics.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithMaxEntries sets the maximum number of entries.
// When the limit is reached, the least recently used entry is evicted.
// Values below 1 are ignored.
// Default: 1000.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxEntries = n
		}
	}
}

// WithMaxSize bounds the sum of entry sizes. Zero means unbounded.
// Default: 0 (unbounded).
func WithMaxSize(n int64) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxSize = n
		}
	}
}

// WithSizer sets the function estimating an entry's size when Set is called
// without WithSize. Its value type must match the cache's V; New panics
// otherwise.
// Default: EstimateSize.
func WithSizer[V any](fn func(V) int64) Option {
	return func(o *options) {
		if fn != nil {
			o.sizer = fn
		}
	}
}

// WithDefaultTTL sets the absolute expiration applied when Set is called
// without WithTTL.
// Default: 0 (no expiration).
func WithDefaultTTL(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.defaultTTL = d
		}
	}
}

// WithSweepInterval enables a background goroutine removing expired entries
// every d. Zero keeps expiration lazy.
// Default: 0.
func WithSweepInterval(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.sweepInterval = d
		}
	}
}

// WithSweepSchedule runs full expiry sweeps on a cron schedule
// ("*/5 * * * *", "@every 30s", ...). An unparsable schedule is logged and
// ignored.
func WithSweepSchedule(spec string) Option {
	return func(o *options) {
		o.sweepSchedule = spec
	}
}

// WithSweepLimit sets how many least recently used entries are checked for
// expiry before each insert.
// Default: 8.
func WithSweepLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.sweepLimit = n
		}
	}
}

// WithLayout selects the storage layout.
// Default: LayoutNodes.
func WithLayout(l Layout) Option {
	return func(o *options) {
		o.layout = l
	}
}

// WithPoolSize bounds how many freed nodes LayoutNodes keeps for reuse.
// Default: 1024.
func WithPoolSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.poolSize = n
		}
	}
}

// WithStats enables the built-in atomic counters reported by Cache.Stats.
func WithStats() Option {
	return func(o *options) {
		o.stats = new(Counters)
	}
}

// WithStatsRecorder sends cache activity to r instead of the built-in counters.
func WithStatsRecorder(r StatsRecorder) Option {
	return func(o *options) {
		if r != nil {
			o.stats = r
		}
	}
}

// WithEvents publishes cache activity to bus.
func WithEvents(bus *events.Bus) Option {
	return func(o *options) {
		o.bus = bus
	}
}

// WithClock sets the time source. Useful for testing expiration.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the logger for background work.
// Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// SetOption configures a single Set call.
type SetOption func(*setOptions)

type setOptions struct {
	ttl     time.Duration
	sliding time.Duration
	size    int64
	hasTTL  bool
	hasSize bool
}

// WithTTL expires the entry d after it is written.
// A negative d disables the cache's default TTL for this entry.
func WithTTL(d time.Duration) SetOption {
	return func(o *setOptions) {
		o.ttl = d
		o.hasTTL = true
	}
}

// WithSlidingTTL expires the entry once it has not been read for d.
func WithSlidingTTL(d time.Duration) SetOption {
	return func(o *setOptions) {
		if d > 0 {
			o.sliding = d
		}
	}
}

// WithSize sets the entry's size instead of asking the sizer.
func WithSize(n int64) SetOption {
	return func(o *setOptions) {
		if n >= 0 {
			o.size = n
			o.hasSize = true
		}
	}
}
