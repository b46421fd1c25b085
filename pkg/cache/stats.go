package cache

import "sync/atomic"

// StatsRecorder receives cache activity. Implementations must be safe for
// concurrent use; they are called outside the cache lock.
type StatsRecorder interface {
	RecordHit()
	RecordMiss()
	RecordSet()
	RecordDelete()
	RecordEviction()
	RecordExpiration()
}

// Counters is the built-in StatsRecorder backed by atomic counters.
type Counters struct {
	hits        atomic.Int64
	misses      atomic.Int64
	sets        atomic.Int64
	deletes     atomic.Int64
	evictions   atomic.Int64
	expirations atomic.Int64
}

func (c *Counters) RecordHit()        { c.hits.Add(1) }
func (c *Counters) RecordMiss()       { c.misses.Add(1) }
func (c *Counters) RecordSet()        { c.sets.Add(1) }
func (c *Counters) RecordDelete()     { c.deletes.Add(1) }
func (c *Counters) RecordEviction()   { c.evictions.Add(1) }
func (c *Counters) RecordExpiration() { c.expirations.Add(1) }

// Reset zeroes every counter.
func (c *Counters) Reset() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.sets.Store(0)
	c.deletes.Store(0)
	c.evictions.Store(0)
	c.expirations.Store(0)
}

// Snapshot returns the current counter values. Entries and TotalSize are left
// for the cache to fill in.
func (c *Counters) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Sets:        c.sets.Load(),
		Deletes:     c.deletes.Load(),
		Evictions:   c.evictions.Load(),
		Expirations: c.expirations.Load(),
	}
}

// StatsSnapshot is a point-in-time copy of cache statistics.
type StatsSnapshot struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Sets        int64 `json:"sets"`
	Deletes     int64 `json:"deletes"`
	Evictions   int64 `json:"evictions"`
	Expirations int64 `json:"expirations"`
	Entries     int   `json:"entries"`
	TotalSize   int64 `json:"total_size"`
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s StatsSnapshot) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// AvgSize returns the mean size of live entries, or 0 when empty.
func (s StatsSnapshot) AvgSize() float64 {
	if s.Entries == 0 {
		return 0
	}
	return float64(s.TotalSize) / float64(s.Entries)
}

// Add sums two snapshots. Used to aggregate shards.
func (s StatsSnapshot) Add(o StatsSnapshot) StatsSnapshot {
	return StatsSnapshot{
		Hits:        s.Hits + o.Hits,
		Misses:      s.Misses + o.Misses,
		Sets:        s.Sets + o.Sets,
		Deletes:     s.Deletes + o.Deletes,
		Evictions:   s.Evictions + o.Evictions,
		Expirations: s.Expirations + o.Expirations,
		Entries:     s.Entries + o.Entries,
		TotalSize:   s.TotalSize + o.TotalSize,
	}
}

var _ StatsRecorder = (*Counters)(nil)
