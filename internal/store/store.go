// Package store holds the entry storage layouts used by the cache engine.
//
// Both layouts hand out integer slots. The engine keeps a slot per live key and
// never touches a slot after freeing it.
package store

import (
	"errors"
	"time"
)

// ErrCapacityExceeded is the panic value raised when a fixed-capacity layout is
// asked for more slots than it was built with. The engine evicts before it
// allocates, so reaching it means the engine is broken.
var ErrCapacityExceeded = errors.New("store: capacity exceeded")

// Slot addresses one entry inside a Store.
type Slot int32

// NoSlot is never returned by Allocate.
const NoSlot Slot = -1

// Store owns entry data and expiration metadata.
//
// Timestamps are UnixNano values. An expiresAt of 0 means no absolute expiry and
// a sliding window of 0 means no sliding expiry.
type Store[V any] interface {
	Allocate(value V, size int64, now, expiresAt int64, sliding time.Duration) Slot
	Free(s Slot)

	Value(s Slot) V
	SetValue(s Slot, v V)

	Size(s Slot) int64
	SetSize(s Slot, size int64)

	LastAccess(s Slot) int64
	Touch(s Slot, now int64)

	ExpiresAt(s Slot) int64
	SetExpiresAt(s Slot, at int64)

	Sliding(s Slot) time.Duration
	SetSliding(s Slot, d time.Duration)

	// Expired reports whether the entry is invalid at now.
	Expired(s Slot, now int64) bool

	// Len returns the number of live slots.
	Len() int

	// Reset releases every slot.
	Reset()
}

// expired is the shared expiry rule of both layouts.
func expired(now, lastAccess, expiresAt int64, sliding time.Duration) bool {
	if expiresAt != 0 && now >= expiresAt {
		return true
	}
	return sliding > 0 && now-lastAccess >= int64(sliding)
}
