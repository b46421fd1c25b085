package server

import "errors"

var (
	ErrLookupDisabled = errors.New("server: lookup is not configured")
	ErrInvalidTTL     = errors.New("server: invalid ttl")
	ErrInvalidBody    = errors.New("server: invalid request body")
	ErrNoListener     = errors.New("server: no address to listen on")
)
