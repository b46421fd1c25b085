// Package memo memoizes functions on top of an in-process cache.
//
// A wrapped function keeps its results in a [cache.Cache] keyed by its
// arguments. Concurrent calls for the same key share one execution through a
// [singleflight.Group], so a cold key costs one call no matter how many
// goroutines ask for it.
//
//	find := memo.Wrap(repo.FindUser,
//	    memo.WithTTL(time.Minute),
//	    memo.WithSWR(30*time.Second),
//	    memo.WithJitter(0.1),
//	    memo.WithCacheErrors(5*time.Second),
//	)
//	defer find.Close()
//
//	u, err := find.Call(ctx, "123")
//
// # Freshness
//
// A result is fresh for its TTL, moved by up to ±jitter·TTL so results loaded
// together do not expire together. Once stale, it is still served for the
// [WithSWR] window while a single background call refreshes it; a failed
// refresh is logged and the stale value keeps being served until the window
// closes. Past the window, callers wait for a new computation.
//
// # Errors
//
// Errors are returned to every caller waiting on the failed computation and
// are not cached, so the next call retries. [WithCacheErrors] caches failures
// for their own TTL instead.
//
// # Keys
//
// [Key] renders primitives directly and everything else as canonical JSON.
// [WithKeyer] replaces it. [WrapArgs] memoizes variadic functions.
package memo
