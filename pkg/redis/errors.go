package redis

import "errors"

var (
	// ErrEmptyConnectionURL is returned by Open for an empty URL.
	ErrEmptyConnectionURL = errors.New("redis: empty connection URL")
	// ErrFailedToParseURL is returned for URLs that are not redis:// or rediss://.
	ErrFailedToParseURL = errors.New("redis: failed to parse connection URL")
	// ErrConnectionFailed wraps the last ping error once retries run out.
	ErrConnectionFailed = errors.New("redis: failed to establish connection")
	// ErrHealthcheckFailed is reported by Healthcheck.
	ErrHealthcheckFailed = errors.New("redis: healthcheck failed")
)
