package source

import "errors"

var (
	// ErrNotFound is returned by Load when the origin has no value for the key.
	ErrNotFound = errors.New("source: not found")

	// ErrMarshal is returned when a value cannot be encoded for the origin.
	ErrMarshal = errors.New("source: failed to marshal value")

	// ErrUnmarshal is returned when a stored payload cannot be decoded.
	ErrUnmarshal = errors.New("source: failed to unmarshal value")

	// ErrNoClient is returned when a Redis source is built without a client.
	ErrNoClient = errors.New("source: redis client is nil")
)
