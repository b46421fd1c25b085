package memo

import "errors"

// ErrNilFunc is the panic value raised when Wrap is given a nil function.
var ErrNilFunc = errors.New("memo: nil function")
