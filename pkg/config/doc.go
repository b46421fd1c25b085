// Package config loads the hoard service configuration from YAML.
//
// [Load] starts from [Default], decodes the file over it (unknown keys are
// rejected), applies environment overrides and runs [Config.Validate].
// Durations are Go duration strings.
//
//	cache:
//	  name: entries
//	  max_entries: 10000
//	  layout: flat
//	  default_ttl: 5m
//	  sweep_schedule: "*/5 * * * *"
//	  shards: 8
//	memo:
//	  ttl: 1m
//	  swr: 30s
//	  jitter: 0.1
//	server:
//	  addr: ":8080"
//	log:
//	  level: debug
//	  format: text
//	redis:
//	  url: redis://localhost:6379/0
//
// Environment variables win over the file:
//
//	HOARD_ADDR          server.addr
//	HOARD_LOG_LEVEL     log.level
//	REDIS_URL           redis.url
//	SENTRY_DSN          sentry.dsn
//	SENTRY_ENVIRONMENT  sentry.environment
//
// [Config.CacheOptions] and [Config.MemoOptions] turn the sections into
// functional options for the cache and memo packages.
package config
