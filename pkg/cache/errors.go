package cache

import "errors"

// Sentinel errors for cache operations.
var (
	// ErrClosed is returned when an operation is attempted on a closed cache.
	ErrClosed = errors.New("cache: closed")

	// ErrTooLarge is returned by Set when a single entry is bigger than the
	// cache's size limit. Nothing is stored.
	ErrTooLarge = errors.New("cache: entry exceeds max size")

	// ErrInvalidSchedule is reported when a sweep schedule cannot be parsed.
	ErrInvalidSchedule = errors.New("cache: invalid sweep schedule")

	// ErrInvalidLayout is returned by ParseLayout for unknown names.
	ErrInvalidLayout = errors.New("cache: invalid layout")
)
