package store

import "time"

// DefaultPoolSize bounds the number of recycled nodes kept by Nodes.
const DefaultPoolSize = 1024

type node[V any] struct {
	value      V
	size       int64
	lastAccess int64
	expiresAt  int64
	sliding    time.Duration
}

// Nodes stores one heap object per entry. Freed nodes are cleared and kept in a
// bounded pool so steady-state churn does not allocate.
type Nodes[V any] struct {
	table    []*node[V] // slot -> node, nil when free
	freeIdx  []Slot
	pool     []*node[V]
	poolSize int
	live     int
}

// NewNodes returns a node-per-entry store that recycles up to poolSize nodes.
// A poolSize of 0 or less uses DefaultPoolSize.
func NewNodes[V any](poolSize int) *Nodes[V] {
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	return &Nodes[V]{poolSize: poolSize}
}

func (n *Nodes[V]) Allocate(value V, size int64, now, expiresAt int64, sliding time.Duration) Slot {
	var nd *node[V]
	if last := len(n.pool) - 1; last >= 0 {
		nd = n.pool[last]
		n.pool[last] = nil
		n.pool = n.pool[:last]
	} else {
		nd = new(node[V])
	}
	nd.value = value
	nd.size = size
	nd.lastAccess = now
	nd.expiresAt = expiresAt
	nd.sliding = sliding

	var s Slot
	if last := len(n.freeIdx) - 1; last >= 0 {
		s = n.freeIdx[last]
		n.freeIdx = n.freeIdx[:last]
		n.table[s] = nd
	} else {
		s = Slot(len(n.table))
		n.table = append(n.table, nd)
	}
	n.live++
	return s
}

func (n *Nodes[V]) Free(s Slot) {
	nd := n.table[s]
	if nd == nil {
		return
	}
	*nd = node[V]{}
	n.table[s] = nil
	n.freeIdx = append(n.freeIdx, s)
	n.live--
	if len(n.pool) < n.poolSize {
		n.pool = append(n.pool, nd)
	}
}

func (n *Nodes[V]) Value(s Slot) V             { return n.table[s].value }
func (n *Nodes[V]) SetValue(s Slot, v V)       { n.table[s].value = v }
func (n *Nodes[V]) Size(s Slot) int64          { return n.table[s].size }
func (n *Nodes[V]) SetSize(s Slot, size int64) { n.table[s].size = size }
func (n *Nodes[V]) LastAccess(s Slot) int64    { return n.table[s].lastAccess }
func (n *Nodes[V]) Touch(s Slot, now int64)    { n.table[s].lastAccess = now }
func (n *Nodes[V]) ExpiresAt(s Slot) int64     { return n.table[s].expiresAt }
func (n *Nodes[V]) SetExpiresAt(s Slot, at int64) {
	n.table[s].expiresAt = at
}
func (n *Nodes[V]) Sliding(s Slot) time.Duration { return n.table[s].sliding }
func (n *Nodes[V]) SetSliding(s Slot, d time.Duration) {
	n.table[s].sliding = d
}

func (n *Nodes[V]) Expired(s Slot, now int64) bool {
	nd := n.table[s]
	return expired(now, nd.lastAccess, nd.expiresAt, nd.sliding)
}

func (n *Nodes[V]) Len() int { return n.live }

// Reset frees every live node, refilling the pool up to its bound.
func (n *Nodes[V]) Reset() {
	for i, nd := range n.table {
		if nd == nil {
			continue
		}
		*nd = node[V]{}
		if len(n.pool) < n.poolSize {
			n.pool = append(n.pool, nd)
		}
		n.table[i] = nil
	}
	n.table = n.table[:0]
	n.freeIdx = n.freeIdx[:0]
	n.live = 0
}

// Pooled returns the number of recycled nodes ready for reuse.
func (n *Nodes[V]) Pooled() int { return len(n.pool) }

var _ Store[any] = (*Nodes[any])(nil)
