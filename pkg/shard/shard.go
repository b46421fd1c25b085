package shard

import (
	"errors"
	"reflect"
	"sync/atomic"

	"github.com/spaolacci/murmur3"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/hoard/pkg/cache"
)

// DefaultShards is used when New is given a non-positive count.
const DefaultShards = 16

// Cache is a string-keyed cache split over independent cache.Cache shards.
type Cache[V any] struct {
	shards []*cache.Cache[string, V]
	name   string
}

// New creates n shards, each built with opts.
func New[V any](n int, opts ...cache.Option) *Cache[V] {
	if n <= 0 {
		n = DefaultShards
	}

	c := &Cache[V]{shards: make([]*cache.Cache[string, V], n)}
	for i := range c.shards {
		c.shards[i] = cache.New[string, V](opts...)
	}
	c.name = c.shards[0].Name()
	return c
}

// Index returns the shard number key maps to.
func (c *Cache[V]) Index(key string) int {
	return int(murmur3.Sum32([]byte(key)) % uint32(len(c.shards)))
}

func (c *Cache[V]) shard(key string) *cache.Cache[string, V] {
	return c.shards[c.Index(key)]
}

// Get returns the value for key from its shard.
func (c *Cache[V]) Get(key string) (V, bool) { return c.shard(key).Get(key) }

// Peek returns the value for key without touching recency.
func (c *Cache[V]) Peek(key string) (V, bool) { return c.shard(key).Peek(key) }

// Has reports whether key holds a live entry.
func (c *Cache[V]) Has(key string) bool { return c.shard(key).Has(key) }

// Set stores value under key in its shard.
func (c *Cache[V]) Set(key string, value V, opts ...cache.SetOption) error {
	return c.shard(key).Set(key, value, opts...)
}

// Delete removes key.
func (c *Cache[V]) Delete(key string) bool { return c.shard(key).Delete(key) }

// Clear empties every shard in parallel.
func (c *Cache[V]) Clear() {
	var g errgroup.Group
	for _, s := range c.shards {
		g.Go(func() error {
			s.Clear()
			return nil
		})
	}
	_ = g.Wait()
}

// Sweep removes expired entries from every shard in parallel and returns how
// many were removed.
func (c *Cache[V]) Sweep() int {
	var (
		g       errgroup.Group
		removed atomic.Int64
	)
	for _, s := range c.shards {
		g.Go(func() error {
			removed.Add(int64(s.Sweep()))
			return nil
		})
	}
	_ = g.Wait()
	return int(removed.Load())
}

// Len returns the number of entries across shards.
func (c *Cache[V]) Len() int {
	n := 0
	for _, s := range c.shards {
		n += s.Len()
	}
	return n
}

// TotalSize returns the summed size of all entries.
func (c *Cache[V]) TotalSize() int64 {
	var n int64
	for _, s := range c.shards {
		n += s.TotalSize()
	}
	return n
}

// Keys returns the keys of every shard, each shard ordered most recent first.
func (c *Cache[V]) Keys() []string {
	keys := make([]string, 0, c.Len())
	for _, s := range c.shards {
		keys = append(keys, s.Keys()...)
	}
	return keys
}

// Stats sums the snapshots of all shards. Counters are only kept when the
// shards were built with cache.WithStats or cache.WithStatsRecorder; a
// recorder shared by several shards is counted once.
func (c *Cache[V]) Stats() cache.StatsSnapshot {
	var (
		total cache.StatsSnapshot
		seen  []cache.StatsRecorder
	)
	for _, s := range c.shards {
		snap := s.Stats()
		if r := s.Recorder(); r != nil {
			if contains(seen, r) {
				snap = cache.StatsSnapshot{Entries: snap.Entries, TotalSize: snap.TotalSize}
			} else {
				seen = append(seen, r)
			}
		}
		total = total.Add(snap)
	}
	return total
}

// contains reports whether r is already in seen. Recorders of a type that
// cannot be compared are treated as distinct.
func contains(seen []cache.StatsRecorder, r cache.StatsRecorder) bool {
	if !reflect.TypeOf(r).Comparable() {
		return false
	}
	for _, s := range seen {
		if s == r {
			return true
		}
	}
	return false
}

// Name returns the name shared by the shards.
func (c *Cache[V]) Name() string { return c.name }

// MaxEntries returns the combined entry limit.
func (c *Cache[V]) MaxEntries() int {
	return c.shards[0].MaxEntries() * len(c.shards)
}

// Shards returns the shard count.
func (c *Cache[V]) Shards() int { return len(c.shards) }

// Close closes every shard.
func (c *Cache[V]) Close() error {
	var errs []error
	for _, s := range c.shards {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
