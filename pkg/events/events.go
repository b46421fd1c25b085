package events

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type identifies a kind of cache event.
type Type string

// Event types published by the cache.
const (
	Hit    Type = "hit"
	Miss   Type = "miss"
	Set    Type = "set"
	Delete Type = "delete"
	Evict  Type = "evict"
	Expire Type = "expire"
	Clear  Type = "clear"

	// All subscribes a listener to every type.
	All Type = "*"
)

// Event is a single notification. Key and Value carry the cache's own types;
// Value is only set for hit, set, delete, evict and expire.
type Event struct {
	At     time.Time
	Key    any
	Value  any
	Type   Type
	Source string
	Size   int64
	// Count is the number of removed entries for Clear.
	Count int
}

// Listener receives events. It runs synchronously on the emitting goroutine.
type Listener func(Event)

type subscription struct {
	fn Listener
	id uuid.UUID
}

// Bus fans events out to subscribers. Subscriptions are copy-on-write, so
// Emit never blocks Subscribe for long and listeners may subscribe or
// unsubscribe from inside a callback.
type Bus struct {
	subs   map[Type][]subscription
	logger *slog.Logger
	mu     sync.RWMutex
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used to report failing listeners.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBus returns an empty bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		subs:   make(map[Type][]subscription),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers fn for events of type t (or All) and returns an id for
// Unsubscribe.
func (b *Bus) Subscribe(t Type, fn Listener) uuid.UUID {
	id := uuid.New()
	if fn == nil {
		return id
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	cur := b.subs[t]
	next := make([]subscription, len(cur), len(cur)+1)
	copy(next, cur)
	b.subs[t] = append(next, subscription{id: id, fn: fn})
	return id
}

// SubscribeAll registers fn for every event type.
func (b *Bus) SubscribeAll(fn Listener) uuid.UUID {
	return b.Subscribe(All, fn)
}

// Unsubscribe removes the subscription with the given id.
// It reports whether a subscription was removed.
func (b *Bus) Unsubscribe(id uuid.UUID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for t, subs := range b.subs {
		i := slices.IndexFunc(subs, func(s subscription) bool { return s.id == id })
		if i < 0 {
			continue
		}
		next := slices.Delete(slices.Clone(subs), i, i+1)
		if len(next) == 0 {
			delete(b.subs, t)
		} else {
			b.subs[t] = next
		}
		return true
	}
	return false
}

// Len returns the number of active subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for _, subs := range b.subs {
		n += len(subs)
	}
	return n
}

// Emit delivers ev to the listeners of its type, then to wildcard listeners.
// A panicking listener is logged and skipped.
func (b *Bus) Emit(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.RLock()
	typed := b.subs[ev.Type]
	wildcard := b.subs[All]
	b.mu.RUnlock()

	for _, s := range typed {
		b.deliver(s, ev)
	}
	for _, s := range wildcard {
		b.deliver(s, ev)
	}
}

func (b *Bus) deliver(s subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event listener panicked",
				slog.String("event", string(ev.Type)),
				slog.String("subscription", s.id.String()),
				slog.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	s.fn(ev)
}
