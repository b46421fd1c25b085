// Package health provides liveness and readiness probes for a service that
// keeps its working set in memory.
//
// [LivenessHandler] always answers 200. [ReadinessHandler] runs a set of
// [Checks] in parallel under one timeout and answers 503 if any fails.
// [CacheCheck] turns a cache into a check that fails once the cache holds more
// than a given fraction of its entry limit.
//
//	r.Get("/healthz", health.LivenessHandler())
//	r.Get("/readyz", health.ReadinessHandler(health.Checks{
//	    "redis": redis.Healthcheck(client),
//	    "users": health.CacheCheck(users, 0.95),
//	}, health.WithTimeout(2*time.Second), health.WithLogger(log)))
//
// Handlers answer plain text ("OK", "Service Unavailable") unless the request
// asks for JSON with ?format=json or an Accept: application/json header:
//
//	{"status":"unhealthy","checks":{"users":{"status":"unhealthy","error":"health: cache saturated: 98 of 100 entries"}}}
package health
