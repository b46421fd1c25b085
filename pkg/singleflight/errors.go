package singleflight

import "errors"

// ErrPanic wraps a panic raised by a computation. Every caller waiting on the
// computation receives it.
var ErrPanic = errors.New("singleflight: computation panicked")
