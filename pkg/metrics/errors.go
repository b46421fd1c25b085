package metrics

import "errors"

// ErrDuplicateSource is returned when two sources share a name.
var ErrDuplicateSource = errors.New("metrics: duplicate source name")
