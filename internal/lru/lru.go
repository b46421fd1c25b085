// Package lru provides the recency index of the cache engine: a key map over a
// doubly linked list whose nodes live in an arena and link to each other by
// int32 handles instead of pointers.
//
// The API mirrors container/list: Front is the most recently used position,
// Back the least recently used one.
package lru

import "github.com/dmitrymomot/hoard/internal/store"

// Ref is a stable handle to a live position. It stays valid until the position
// is removed; after that the arena may hand it out again.
type Ref int32

const (
	head Ref = 0 // sentinel before the most recent position
	tail Ref = 1 // sentinel after the least recent position
)

type position[K comparable] struct {
	key        K
	slot       store.Slot
	prev, next Ref
}

// Index maps keys to positions in recency order.
// It is not safe for concurrent use.
type Index[K comparable] struct {
	nodes []position[K]
	free  []Ref
	keys  map[K]Ref
}

// New returns an empty index sized for sizeHint entries.
func New[K comparable](sizeHint int) *Index[K] {
	x := &Index[K]{}
	x.init(max(sizeHint, 0))
	return x
}

func (x *Index[K]) init(sizeHint int) {
	x.nodes = make([]position[K], 2, sizeHint+2)
	x.nodes[head] = position[K]{prev: head, next: tail, slot: store.NoSlot}
	x.nodes[tail] = position[K]{prev: head, next: tail, slot: store.NoSlot}
	x.free = x.free[:0]
	x.keys = make(map[K]Ref, sizeHint)
}

// Len returns the number of positions.
func (x *Index[K]) Len() int { return len(x.keys) }

// Get returns the position of key.
func (x *Index[K]) Get(key K) (Ref, bool) {
	r, ok := x.keys[key]
	return r, ok
}

// Key returns the key stored at r.
func (x *Index[K]) Key(r Ref) K { return x.nodes[r].key }

// Slot returns the backend slot stored at r.
func (x *Index[K]) Slot(r Ref) store.Slot { return x.nodes[r].slot }

// PushFront inserts key as the most recently used position.
// The key must not be present.
func (x *Index[K]) PushFront(key K, slot store.Slot) Ref {
	var r Ref
	if last := len(x.free) - 1; last >= 0 {
		r = x.free[last]
		x.free = x.free[:last]
		x.nodes[r] = position[K]{key: key, slot: slot}
	} else {
		r = Ref(len(x.nodes))
		x.nodes = append(x.nodes, position[K]{key: key, slot: slot})
	}
	x.link(r, head)
	x.keys[key] = r
	return r
}

// MoveToFront marks r as the most recently used position.
func (x *Index[K]) MoveToFront(r Ref) {
	if x.nodes[head].next == r {
		return
	}
	x.unlink(r)
	x.link(r, head)
}

// Remove drops r from the index and returns the slot it referenced.
func (x *Index[K]) Remove(r Ref) store.Slot {
	n := x.nodes[r]
	x.unlink(r)
	delete(x.keys, n.key)

	var zero K
	x.nodes[r] = position[K]{key: zero, slot: store.NoSlot}
	x.free = append(x.free, r)
	return n.slot
}

// Front returns the most recently used position.
func (x *Index[K]) Front() (Ref, bool) {
	r := x.nodes[head].next
	return r, r != tail
}

// Back returns the least recently used position.
func (x *Index[K]) Back() (Ref, bool) {
	r := x.nodes[tail].prev
	return r, r != head
}

// Next returns the position after r, toward the least recently used end.
func (x *Index[K]) Next(r Ref) (Ref, bool) {
	n := x.nodes[r].next
	return n, n != tail
}

// Prev returns the position before r, toward the most recently used end.
func (x *Index[K]) Prev(r Ref) (Ref, bool) {
	p := x.nodes[r].prev
	return p, p != head
}

// Keys returns all keys from most to least recently used.
func (x *Index[K]) Keys() []K {
	out := make([]K, 0, len(x.keys))
	for r, ok := x.Front(); ok; r, ok = x.Next(r) {
		out = append(out, x.nodes[r].key)
	}
	return out
}

// Reset drops every position.
func (x *Index[K]) Reset() {
	x.init(len(x.keys))
}

// link inserts r right after at.
func (x *Index[K]) link(r, at Ref) {
	next := x.nodes[at].next
	x.nodes[r].prev = at
	x.nodes[r].next = next
	x.nodes[at].next = r
	x.nodes[next].prev = r
}

func (x *Index[K]) unlink(r Ref) {
	n := &x.nodes[r]
	x.nodes[n.prev].next = n.next
	x.nodes[n.next].prev = n.prev
	n.prev, n.next = r, r
}
