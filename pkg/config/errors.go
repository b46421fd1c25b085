package config

import "errors"

var (
	// ErrInvalidConfig wraps every problem reported by Validate.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrReadFile is returned when the config file cannot be read or parsed.
	ErrReadFile = errors.New("config: failed to read file")
)
