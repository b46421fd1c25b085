package memo

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/hoard/pkg/cache"
	"github.com/dmitrymomot/hoard/pkg/logger"
	"github.com/dmitrymomot/hoard/pkg/singleflight"
)

// Entry is what a memoized function keeps per key. FreshUntil is a UnixNano
// deadline; zero means the entry never goes stale.
type Entry[V any] struct {
	Value      V
	Err        error
	FreshUntil int64
}

// Fresh reports whether the entry can be served without a refresh.
func (e Entry[V]) Fresh(now time.Time) bool {
	return e.FreshUntil == 0 || now.UnixNano() < e.FreshUntil
}

// Func is a memoized function of one argument. It is safe for concurrent use.
type Func[A, V any] struct {
	fn      func(context.Context, A) (V, error)
	keyer   func(A) string
	cache   *cache.Cache[string, Entry[V]]
	opts    *options
	logger  *slog.Logger
	group   singleflight.Group[string, Entry[V]]
	refresh sync.WaitGroup
	mu      sync.Mutex
	closed  bool
}

// Wrap memoizes fn. Concurrent calls for the same key share one execution.
//
// Example:
//
//	find := memo.Wrap(repo.FindUser,
//	    memo.WithTTL(time.Minute),
//	    memo.WithSWR(30*time.Second),
//	    memo.WithJitter(0.1),
//	)
//	defer find.Close()
//
//	u, err := find.Call(ctx, "123")
func Wrap[A, V any](fn func(context.Context, A) (V, error), opts ...Option) *Func[A, V] {
	if fn == nil {
		panic(ErrNilFunc)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logger.NewNope()
	}

	keyer := func(a A) string { return Key(a) }
	if o.keyer != nil {
		k, ok := o.keyer.(func(A) string)
		if !ok {
			var zero A
			panic(fmt.Sprintf("memo: keyer %T does not accept %T", o.keyer, zero))
		}
		keyer = k
	}

	cacheOpts := []cache.Option{
		cache.WithMaxEntries(o.maxEntries),
		cache.WithMaxSize(o.maxSize),
		cache.WithClock(o.clock),
		cache.WithLogger(o.logger),
		cache.WithName(o.name),
		cache.WithSizer(func(e Entry[V]) int64 { return cache.EstimateSize(e.Value) }),
	}

	return &Func[A, V]{
		fn:     fn,
		keyer:  keyer,
		cache:  cache.New[string, Entry[V]](append(cacheOpts, o.cacheOpts...)...),
		opts:   o,
		logger: o.logger,
	}
}

// Call returns the memoized result for arg, computing it when needed.
//
// A fresh entry is returned as is. A stale entry still inside the
// stale-while-revalidate window is returned immediately while one background
// call refreshes it. Anything else is computed now; concurrent callers for the
// same key wait for the same computation.
func (f *Func[A, V]) Call(ctx context.Context, arg A) (V, error) {
	key := f.keyer(arg)
	now := f.opts.clock.Now()

	if e, ok := f.cache.Peek(key); ok {
		if e.Fresh(now) {
			if hit, ok := f.cache.Get(key); ok {
				return hit.Value, hit.Err
			}
		} else if e.Err == nil && f.opts.swr > 0 && now.UnixNano() < e.FreshUntil+int64(f.opts.swr) {
			f.revalidate(ctx, key, arg)
			return e.Value, nil
		}
	}

	e, err, _ := f.group.Do(ctx, key, f.compute(key, arg))
	if err != nil {
		var zero V
		return zero, err
	}
	return e.Value, e.Err
}

// Cache returns the backing cache.
func (f *Func[A, V]) Cache() *cache.Cache[string, Entry[V]] { return f.cache }

// Key returns the cache key used for arg.
func (f *Func[A, V]) Key(arg A) string { return f.keyer(arg) }

// Delete drops the memoized result for arg.
func (f *Func[A, V]) Delete(arg A) bool {
	return f.cache.Delete(f.keyer(arg))
}

// Clear drops every memoized result.
func (f *Func[A, V]) Clear() { f.cache.Clear() }

// Warm computes results for args that are missing or stale, running up to
// WithWarmConcurrency loads at once. It returns the first failure; a cancelled
// ctx stops loads that have not started.
func (f *Func[A, V]) Warm(ctx context.Context, args ...A) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.warmConcurrency)

	for _, arg := range args {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			_, err := f.Call(gctx, arg)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Wait blocks until background refreshes started so far have finished.
func (f *Func[A, V]) Wait() { f.refresh.Wait() }

// Close stops new background refreshes, waits for running ones and closes the
// backing cache. Stale values are still served after Close, without a refresh.
func (f *Func[A, V]) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()

	f.refresh.Wait()
	return f.cache.Close()
}

// compute returns the single-flight body for key: call fn, store the outcome,
// and hand it to every waiter. Failures are stored only with WithCacheErrors.
func (f *Func[A, V]) compute(key string, arg A) singleflight.Func[Entry[V]] {
	return func(ctx context.Context) (Entry[V], error) {
		v, err := f.fn(ctx, arg)
		now := f.opts.clock.Now().UnixNano()

		if err != nil {
			e := Entry[V]{Err: err}
			if f.opts.cacheErrors {
				e.FreshUntil = now + int64(f.opts.errTTL)
				f.store(ctx, key, e, f.opts.errTTL)
			}
			return e, nil
		}

		e := Entry[V]{Value: v}
		keep := time.Duration(-1)
		if f.opts.ttl > 0 {
			fresh := f.jittered(f.opts.ttl)
			e.FreshUntil = now + int64(fresh)
			keep = fresh + f.opts.swr
		}
		f.store(ctx, key, e, keep)
		return e, nil
	}
}

// store keeps e for ttl, or forever when ttl is negative. A result that cannot
// be cached is still returned to the caller.
func (f *Func[A, V]) store(ctx context.Context, key string, e Entry[V], ttl time.Duration) {
	opts := []cache.SetOption{cache.WithTTL(ttl)}
	if f.opts.sliding > 0 {
		opts = append(opts, cache.WithSlidingTTL(f.opts.sliding))
	}
	if err := f.cache.Set(key, e, opts...); err != nil {
		f.logger.DebugContext(logger.WithCacheKey(ctx, key), "result not cached", slog.Any("error", err))
	}
}

// revalidate starts a detached refresh for key. Concurrent stale reads join the
// same refresh. Nothing starts once the Func is closed.
func (f *Func[A, V]) revalidate(ctx context.Context, key string, arg A) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.refresh.Add(1)
	f.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	ch := f.group.DoChan(ctx, key, f.compute(key, arg))

	go func() {
		defer f.refresh.Done()

		r := <-ch
		err := r.Err
		if err == nil {
			err = r.Val.Err
		}
		if err != nil {
			f.logger.WarnContext(logger.WithCacheKey(ctx, key), "background refresh failed", slog.Any("error", err))
		}
	}()
}

// jittered returns ttl moved by a uniform random offset in ±jitter·ttl,
// never below 1ns.
func (f *Func[A, V]) jittered(ttl time.Duration) time.Duration {
	span := int64(float64(ttl) * f.opts.jitter)
	if span <= 0 {
		return ttl
	}
	d := ttl + time.Duration(rand.Int64N(2*span+1)-span)
	return max(d, 1)
}
