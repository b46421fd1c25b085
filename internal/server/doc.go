// Package server is the HTTP front of the hoard service: an entry API over a
// sharded in-memory cache, a memoized lookup over an optional Redis origin,
// Prometheus metrics and health probes.
//
//	GET    /v1/entries/{key}        200 with the value, 404 when absent
//	PUT    /v1/entries/{key}        store the body; ?ttl=1m&sliding=30s
//	DELETE /v1/entries/{key}        204, 404 when absent
//	GET    /v1/entries              keys, most recently used first per shard
//	DELETE /v1/entries              clear
//	GET    /v1/stats                counters of both caches
//	GET    /v1/lookup/{key}         memoized origin read
//	DELETE /v1/lookup/{key}         drop a memoized value
//	POST   /v1/lookup/warm          {"keys": [...]} preload
//	GET    /metrics                 Prometheus exposition
//	GET    /healthz, /readyz        probes
//
// [Run] serves a handler until the context ends or SIGINT/SIGTERM arrives and
// then shuts down gracefully.
package server
