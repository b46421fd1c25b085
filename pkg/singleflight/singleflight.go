package singleflight

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Func is a computation run at most once concurrently per key.
type Func[V any] func(ctx context.Context) (V, error)

// Result is delivered by DoChan.
type Result[V any] struct {
	Val    V
	Err    error
	Shared bool
}

// call marks one registration of a key. Its address is its identity.
type call struct{ _ byte }

// Group coordinates computations keyed by K on top of x/sync's singleflight.
// The zero value is ready to use.
type Group[K comparable, V any] struct {
	sf    singleflight.Group
	mu    sync.Mutex
	calls map[K]*call
}

// Do runs fn for key unless a computation for key is already in flight, in
// which case it waits for that one. shared reports whether the result went to
// more than one caller.
func (g *Group[K, V]) Do(ctx context.Context, key K, fn Func[V]) (v V, err error, shared bool) {
	r := <-g.DoChan(ctx, key, fn)
	return r.Val, r.Err, r.Shared
}

// DoChan is like Do but returns a channel that receives the result. The caller
// is registered before DoChan returns.
func (g *Group[K, V]) DoChan(ctx context.Context, key K, fn Func[V]) <-chan Result[V] {
	detached := context.WithoutCancel(ctx)

	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[K]*call)
	}
	c, ok := g.calls[key]
	if !ok {
		c = new(call)
		g.calls[key] = c
	}
	res := g.sf.DoChan(keyString(key), func() (any, error) {
		return invoke(detached, fn)
	})
	g.mu.Unlock()

	ch := make(chan Result[V], 1)
	go func() {
		select {
		case r := <-res:
			g.release(key, c)
			ch <- result[V](r)
		case <-ctx.Done():
			ch <- Result[V]{Err: ctx.Err()}
			<-res
			g.release(key, c)
		}
	}()

	return ch
}

// Forget releases key so the next call starts a new computation even if the
// current one has not settled. Callers already waiting keep waiting for it.
func (g *Group[K, V]) Forget(key K) {
	g.mu.Lock()
	delete(g.calls, key)
	g.sf.Forget(keyString(key))
	g.mu.Unlock()
}

// InFlight returns the number of keys with a registered computation.
func (g *Group[K, V]) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

// release drops key once its computation settled, unless Forget already
// handed the key to a newer call.
func (g *Group[K, V]) release(key K, c *call) {
	g.mu.Lock()
	if g.calls[key] == c {
		delete(g.calls, key)
	}
	g.mu.Unlock()
}

func result[V any](r singleflight.Result) Result[V] {
	v, _ := r.Val.(V)
	return Result[V]{Val: v, Err: r.Err, Shared: r.Shared}
}

// keyString maps key onto the string keys of x/sync. Go-syntax formatting
// keeps distinct values of one type apart, "1" and 1 included.
func keyString[K comparable](key K) string {
	var zero K
	if _, ok := any(zero).(string); ok {
		return any(key).(string)
	}
	return fmt.Sprintf("%#v", key)
}

// invoke runs fn and turns a panic into an error, so x/sync never re-panics
// on a waiter's goroutine.
func invoke[V any](ctx context.Context, fn Func[V]) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Join(ErrPanic, fmt.Errorf("%v\n%s", r, debug.Stack()))
		}
	}()
	val, err := fn(ctx)
	return val, err
}
