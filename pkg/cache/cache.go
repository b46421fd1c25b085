package cache

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/hoard/pkg/events"
)

// Cache is a bounded in-memory key-value cache with absolute and sliding
// expiration and least-recently-used eviction.
//
// Every operation on the underlying engine runs under one mutex. Stats and
// events are delivered after the mutex is released, so listeners may call
// back into the cache.
type Cache[K comparable, V any] struct {
	eng   *engine[K, V]
	opts  *options
	sizer func(V) int64
	cron  *cron.Cron
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

// New creates a cache.
//
// Example:
//
//	c := cache.New[string, *User](
//	    cache.WithMaxEntries(10000),
//	    cache.WithDefaultTTL(5 * time.Minute),
//	    cache.WithSweepInterval(30 * time.Second),
//	)
//	defer c.Close()
func New[K comparable, V any](opts ...Option) *Cache[K, V] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.name != "" {
		o.logger = o.logger.With(slog.String("cache", o.name))
	}

	sizer := func(v V) int64 { return EstimateSize(v) }
	if o.sizer != nil {
		fn, ok := o.sizer.(func(V) int64)
		if !ok {
			var zero V
			panic(fmt.Sprintf("cache: sizer %T does not accept %T", o.sizer, zero))
		}
		sizer = fn
	}

	c := &Cache[K, V]{
		eng:   newEngine[K, V](o),
		opts:  o,
		sizer: sizer,
		done:  make(chan struct{}),
	}

	if o.sweepInterval > 0 {
		go c.janitor()
	}
	if o.sweepSchedule != "" {
		c.schedule(o.sweepSchedule)
	}

	return c
}

// Get returns the value for key. Reading an entry marks it as most recently
// used and renews its sliding window. Expired entries are removed and
// reported as absent.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	now := c.now()

	c.mu.Lock()
	v, ok := c.eng.get(key, now)
	removed := c.eng.drain()
	c.mu.Unlock()

	c.notifyRemoved(removed)
	if ok {
		c.observe(func(s StatsRecorder) { s.RecordHit() }, events.Event{Type: events.Hit, Key: key, Value: v})
	} else {
		c.observe(func(s StatsRecorder) { s.RecordMiss() }, events.Event{Type: events.Miss, Key: key})
	}
	return v, ok
}

// Peek returns the value for key without changing its recency or sliding
// window. Expired entries are still removed.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	now := c.now()

	c.mu.Lock()
	v, ok := c.eng.peek(key, now)
	removed := c.eng.drain()
	c.mu.Unlock()

	c.notifyRemoved(removed)
	return v, ok
}

// Has reports whether key holds a live entry. Like Peek it has no recency
// side effects.
func (c *Cache[K, V]) Has(key K) bool {
	_, ok := c.Peek(key)
	return ok
}

// Set stores value under key. Without options the entry uses the cache's
// default TTL and the configured sizer.
//
// Set returns ErrClosed after Close and ErrTooLarge when the entry alone
// exceeds the size limit; in that case any previous entry for key is removed.
func (c *Cache[K, V]) Set(key K, value V, opts ...SetOption) error {
	var so setOptions
	for _, opt := range opts {
		opt(&so)
	}

	ttl := c.opts.defaultTTL
	if so.hasTTL {
		ttl = max(so.ttl, 0)
	}
	size := so.size
	if !so.hasSize {
		size = c.sizer(value)
	}
	now := c.now()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	err := c.eng.set(key, value, size, ttl, so.sliding, now)
	removed := c.eng.drain()
	c.mu.Unlock()

	c.notifyRemoved(removed)
	if err != nil {
		return err
	}

	c.observe(func(s StatsRecorder) { s.RecordSet() }, events.Event{Type: events.Set, Key: key, Value: value, Size: size})
	return nil
}

// Delete removes key and reports whether it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	ok := c.eng.delete(key)
	removed := c.eng.drain()
	c.mu.Unlock()

	c.notifyRemoved(removed)
	return ok
}

// Clear removes all entries.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	n := c.eng.clear()
	c.mu.Unlock()

	c.observe(nil, events.Event{Type: events.Clear, Count: n})
}

// Len returns the number of stored entries, including expired entries that
// have not been swept yet.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eng.count()
}

// TotalSize returns the sum of the sizes of stored entries.
func (c *Cache[K, V]) TotalSize() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eng.totalSize
}

// Keys returns keys from most to least recently used.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eng.keys()
}

// Name returns the name set with WithName.
func (c *Cache[K, V]) Name() string { return c.opts.name }

// MaxEntries returns the entry limit.
func (c *Cache[K, V]) MaxEntries() int { return c.opts.maxEntries }

// Recorder returns the stats recorder set with WithStats or
// WithStatsRecorder, or nil.
func (c *Cache[K, V]) Recorder() StatsRecorder { return c.opts.stats }

// Stats returns a snapshot of the counters together with the current entry
// count and total size. Counters stay zero unless WithStats is set or the
// configured recorder exposes a Snapshot method.
func (c *Cache[K, V]) Stats() StatsSnapshot {
	var snap StatsSnapshot
	if s, ok := c.opts.stats.(interface{ Snapshot() StatsSnapshot }); ok {
		snap = s.Snapshot()
	}

	c.mu.Lock()
	snap.Entries = c.eng.count()
	snap.TotalSize = c.eng.totalSize
	c.mu.Unlock()

	return snap
}

// Sweep removes every expired entry and returns how many were removed.
func (c *Cache[K, V]) Sweep() int {
	now := c.now()

	c.mu.Lock()
	n := c.eng.sweep(now, 0)
	removed := c.eng.drain()
	c.mu.Unlock()

	c.notifyRemoved(removed)
	if n > 0 {
		c.opts.logger.Debug("swept expired entries", slog.Int("expired", n))
	}
	return n
}

// Close stops background sweeps and rejects further writes.
// Close is idempotent.
func (c *Cache[K, V]) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	if c.cron != nil {
		<-c.cron.Stop().Done()
	}
	return nil
}

func (c *Cache[K, V]) now() int64 {
	return c.opts.clock.Now().UnixNano()
}

func (c *Cache[K, V]) notifyRemoved(removed []removal[K, V]) {
	for _, r := range removed {
		switch r.reason {
		case reasonEvicted:
			c.observe(func(s StatsRecorder) { s.RecordEviction() },
				events.Event{Type: events.Evict, Key: r.key, Value: r.value, Size: r.size})
		case reasonExpired:
			c.observe(func(s StatsRecorder) { s.RecordExpiration() },
				events.Event{Type: events.Expire, Key: r.key, Value: r.value, Size: r.size})
		default:
			c.observe(func(s StatsRecorder) { s.RecordDelete() },
				events.Event{Type: events.Delete, Key: r.key, Value: r.value, Size: r.size})
		}
	}
}

// observe feeds the stats recorder and the event bus. Neither may disturb the
// caller: a panicking recorder is logged and dropped.
func (c *Cache[K, V]) observe(record func(StatsRecorder), ev events.Event) {
	if record != nil && c.opts.stats != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.opts.logger.Error("stats recorder panicked", slog.String("panic", fmt.Sprint(r)))
				}
			}()
			record(c.opts.stats)
		}()
	}

	if c.opts.bus != nil {
		ev.Source = c.opts.name
		ev.At = time.Unix(0, c.now())
		c.opts.bus.Emit(ev)
	}
}
