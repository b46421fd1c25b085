// Package events is a small in-process event bus for cache observability.
//
// The cache publishes typed notifications (hit, miss, set, delete, evict,
// expire, clear) after it releases its lock. Listeners subscribe per type or
// to all types with [All]:
//
//	bus := events.NewBus(events.WithLogger(log))
//	bus.Subscribe(events.Evict, func(ev events.Event) {
//	    log.Debug("evicted", slog.Any("key", ev.Key))
//	})
//	c := cache.New[string, []byte](cache.WithEvents(bus))
//
// Events are for observation only. A listener that panics is logged and
// skipped; the panic never reaches the cache.
package events
