// Package redis opens go-redis clients for use as a slow origin behind the
// in-process caches.
//
// [Open] parses a redis:// or rediss:// URL, applies pool and timeout options
// and pings the server, retrying with a linear backoff. Failed attempts are
// logged when [WithLogger] is set.
//
//	client, err := redis.Open(ctx, "redis://localhost:6379/0",
//	    redis.WithRetry(5, time.Second),
//	    redis.WithLogger(log),
//	)
//	if err != nil {
//	    return err
//	}
//
// [Healthcheck] adapts the client to a health.CheckFunc and [Shutdown] to a
// server shutdown hook.
package redis
