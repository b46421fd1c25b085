// Package cache provides a bounded, generic in-memory cache with absolute and
// sliding expiration and least-recently-used eviction.
//
// # Usage
//
//	c := cache.New[string, *User](
//	    cache.WithMaxEntries(10000),
//	    cache.WithDefaultTTL(5 * time.Minute),
//	    cache.WithSweepInterval(30 * time.Second),
//	)
//	defer c.Close()
//
//	_ = c.Set("user:123", u)                                   // default TTL
//	_ = c.Set("session:abc", s, cache.WithSlidingTTL(time.Hour)) // renewed by Get
//	u, ok := c.Get("user:123")
//
// # Expiration
//
// An entry may carry an absolute TTL ([WithTTL]), a sliding TTL
// ([WithSlidingTTL]), both, or neither. It is expired once now reaches the
// absolute deadline, or once it has not been read for the sliding window.
// Only [Cache.Get] renews the sliding window; [Cache.Peek] and [Cache.Has] leave
// recency untouched.
//
// Expired entries are removed lazily when they are looked up, by a bounded
// sweep of the least recently used entries before every insert, and by full
// sweeps on an interval ([WithSweepInterval]) or cron schedule
// ([WithSweepSchedule]).
//
// # Capacity
//
// [WithMaxEntries] bounds the entry count and [WithMaxSize] bounds the sum of
// entry sizes as reported by the sizer ([WithSizer], [EstimateSize] by default)
// or [WithSize]. Room is always made before a new entry is stored, so neither
// limit is exceeded when Set returns. An entry larger than the whole size
// budget is rejected with [ErrTooLarge].
//
// # Layouts
//
// [LayoutNodes] stores one recycled object per entry. [LayoutFlat] stores entries
// in parallel arrays preallocated to the entry limit, which avoids per-entry
// objects entirely. Both behave identically.
//
// # Observability
//
// [WithStats] enables atomic counters read through [Cache.Stats];
// [WithStatsRecorder] plugs in any [StatsRecorder]. [WithEvents] publishes
// hit, miss, set, delete, evict, expire and clear notifications to an
// events.Bus. Both run after the cache lock is released and never affect
// cache state.
package cache
