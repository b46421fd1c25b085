package store

import "time"

// Flat stores entries in parallel arrays preallocated to a fixed capacity.
// There are no per-entry objects; a slot is just an index into the arrays.
type Flat[V any] struct {
	values     []V
	sizes      []int64
	lastAccess []int64
	expiresAt  []int64
	sliding    []time.Duration

	free []Slot // LIFO
	high Slot   // next never-used index
	live int
}

// NewFlat returns a flat store holding at most capacity entries.
func NewFlat[V any](capacity int) *Flat[V] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Flat[V]{
		values:     make([]V, capacity),
		sizes:      make([]int64, capacity),
		lastAccess: make([]int64, capacity),
		expiresAt:  make([]int64, capacity),
		sliding:    make([]time.Duration, capacity),
		free:       make([]Slot, 0, capacity),
	}
}

// Cap returns the fixed capacity.
func (f *Flat[V]) Cap() int { return len(f.values) }

// Allocate panics with ErrCapacityExceeded when every slot is live.
func (f *Flat[V]) Allocate(value V, size int64, now, expiresAt int64, sliding time.Duration) Slot {
	var s Slot
	switch {
	case len(f.free) > 0:
		last := len(f.free) - 1
		s = f.free[last]
		f.free = f.free[:last]
	case int(f.high) < len(f.values):
		s = f.high
		f.high++
	default:
		panic(ErrCapacityExceeded)
	}

	f.values[s] = value
	f.sizes[s] = size
	f.lastAccess[s] = now
	f.expiresAt[s] = expiresAt
	f.sliding[s] = sliding
	f.live++
	return s
}

func (f *Flat[V]) Free(s Slot) {
	f.clear(s)
	f.free = append(f.free, s)
	f.live--
}

func (f *Flat[V]) clear(s Slot) {
	var zero V
	f.values[s] = zero
	f.sizes[s] = 0
	f.lastAccess[s] = 0
	f.expiresAt[s] = 0
	f.sliding[s] = 0
}

func (f *Flat[V]) Value(s Slot) V                     { return f.values[s] }
func (f *Flat[V]) SetValue(s Slot, v V)               { f.values[s] = v }
func (f *Flat[V]) Size(s Slot) int64                  { return f.sizes[s] }
func (f *Flat[V]) SetSize(s Slot, size int64)         { f.sizes[s] = size }
func (f *Flat[V]) LastAccess(s Slot) int64            { return f.lastAccess[s] }
func (f *Flat[V]) Touch(s Slot, now int64)            { f.lastAccess[s] = now }
func (f *Flat[V]) ExpiresAt(s Slot) int64             { return f.expiresAt[s] }
func (f *Flat[V]) SetExpiresAt(s Slot, at int64)      { f.expiresAt[s] = at }
func (f *Flat[V]) Sliding(s Slot) time.Duration       { return f.sliding[s] }
func (f *Flat[V]) SetSliding(s Slot, d time.Duration) { f.sliding[s] = d }

func (f *Flat[V]) Expired(s Slot, now int64) bool {
	return expired(now, f.lastAccess[s], f.expiresAt[s], f.sliding[s])
}

func (f *Flat[V]) Len() int { return f.live }

func (f *Flat[V]) Reset() {
	for s := Slot(0); s < f.high; s++ {
		f.clear(s)
	}
	f.free = f.free[:0]
	f.high = 0
	f.live = 0
}

var _ Store[any] = (*Flat[any])(nil)
