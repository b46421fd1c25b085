package cache

import (
	"time"

	"github.com/dmitrymomot/hoard/internal/lru"
	"github.com/dmitrymomot/hoard/internal/store"
)

// removalReason says why an entry left the engine.
type removalReason uint8

const (
	reasonDeleted removalReason = iota
	reasonEvicted
	reasonExpired
)

type removal[K comparable, V any] struct {
	key    K
	value  V
	size   int64
	reason removalReason
}

// engine is the unsynchronized core: an lru.Index over a store.Store.
// Callers serialize every method.
type engine[K comparable, V any] struct {
	index *lru.Index[K]
	store store.Store[V]

	totalSize  int64
	maxEntries int
	maxSize    int64 // 0 = unbounded
	sweepLimit int

	removed []removal[K, V]
}

func newEngine[K comparable, V any](o *options) *engine[K, V] {
	var s store.Store[V]
	switch o.layout {
	case LayoutFlat:
		s = store.NewFlat[V](o.maxEntries)
	default:
		s = store.NewNodes[V](o.poolSize)
	}

	return &engine[K, V]{
		index:      lru.New[K](min(o.maxEntries, 1024)),
		store:      s,
		maxEntries: o.maxEntries,
		maxSize:    o.maxSize,
		sweepLimit: o.sweepLimit,
	}
}

// get returns a live value, renewing its sliding window and recency.
// Expired entries are removed.
func (e *engine[K, V]) get(key K, now int64) (V, bool) {
	var zero V

	r, ok := e.index.Get(key)
	if !ok {
		return zero, false
	}

	s := e.index.Slot(r)
	if e.store.Expired(s, now) {
		e.remove(r, reasonExpired)
		return zero, false
	}

	e.store.Touch(s, now)
	e.index.MoveToFront(r)
	return e.store.Value(s), true
}

// peek is get without touching recency or the sliding window.
func (e *engine[K, V]) peek(key K, now int64) (V, bool) {
	var zero V

	r, ok := e.index.Get(key)
	if !ok {
		return zero, false
	}

	s := e.index.Slot(r)
	if e.store.Expired(s, now) {
		e.remove(r, reasonExpired)
		return zero, false
	}
	return e.store.Value(s), true
}

// set inserts or updates key. ttl and sliding of 0 mean no expiry of that kind.
func (e *engine[K, V]) set(key K, value V, size int64, ttl, sliding time.Duration, now int64) error {
	if e.maxSize > 0 && size > e.maxSize {
		if r, ok := e.index.Get(key); ok {
			e.remove(r, reasonDeleted)
		}
		return ErrTooLarge
	}

	var expiresAt int64
	if ttl > 0 {
		expiresAt = now + int64(ttl)
	}

	if r, ok := e.index.Get(key); ok {
		s := e.index.Slot(r)
		e.totalSize -= e.store.Size(s)
		e.store.SetValue(s, value)
		e.store.SetSize(s, size)
		e.store.SetExpiresAt(s, expiresAt)
		e.store.SetSliding(s, sliding)
		e.store.Touch(s, now)
		e.totalSize += size
		e.index.MoveToFront(r)
		e.evict(now, 0, false)
		return nil
	}

	// Make room first so the backend never holds more than maxEntries slots.
	e.evict(now, size, true)

	s := e.store.Allocate(value, size, now, expiresAt, sliding)
	e.index.PushFront(key, s)
	e.totalSize += size
	return nil
}

// evict applies the eviction policy: a bounded expiry sweep from the tail,
// then the size limit, then the entry limit. incoming is the size about to be
// added; inserting reserves one entry for a new key.
func (e *engine[K, V]) evict(now, incoming int64, inserting bool) {
	e.sweep(now, e.sweepLimit)

	if e.maxSize > 0 {
		for e.totalSize+incoming > e.maxSize {
			if !e.evictTail(inserting) {
				break
			}
		}
	}

	limit := e.maxEntries
	if inserting {
		limit--
	}
	for e.index.Len() > limit {
		if !e.evictTail(inserting) {
			break
		}
	}
}

// evictTail removes the least recently used entry. Unless a new key is being
// inserted, the most recent entry is kept even if it is the only one left.
func (e *engine[K, V]) evictTail(inserting bool) bool {
	r, ok := e.index.Back()
	if !ok {
		return false
	}
	if front, _ := e.index.Front(); !inserting && front == r {
		return false
	}
	e.remove(r, reasonEvicted)
	return true
}

// sweep removes expired entries walking from the tail. limit <= 0 walks the
// whole list. Returns the number of removed entries.
func (e *engine[K, V]) sweep(now int64, limit int) int {
	removed := 0
	r, ok := e.index.Back()
	for i := 0; ok && (limit <= 0 || i < limit); i++ {
		prev, hasPrev := e.index.Prev(r)
		if e.store.Expired(e.index.Slot(r), now) {
			e.remove(r, reasonExpired)
			removed++
		}
		r, ok = prev, hasPrev
	}
	return removed
}

func (e *engine[K, V]) delete(key K) bool {
	r, ok := e.index.Get(key)
	if !ok {
		return false
	}
	e.remove(r, reasonDeleted)
	return true
}

func (e *engine[K, V]) remove(r lru.Ref, reason removalReason) {
	key := e.index.Key(r)
	s := e.index.Remove(r)
	size := e.store.Size(s)
	value := e.store.Value(s)
	e.store.Free(s)
	e.totalSize -= size
	e.removed = append(e.removed, removal[K, V]{key: key, value: value, size: size, reason: reason})
}

// clear drops every entry without recording removals.
func (e *engine[K, V]) clear() int {
	n := e.index.Len()
	e.index.Reset()
	e.store.Reset()
	e.totalSize = 0
	return n
}

// drain hands the recorded removals to the caller.
func (e *engine[K, V]) drain() []removal[K, V] {
	if len(e.removed) == 0 {
		return nil
	}
	out := e.removed
	e.removed = nil
	return out
}

func (e *engine[K, V]) count() int { return e.index.Len() }

func (e *engine[K, V]) keys() []K { return e.index.Keys() }
