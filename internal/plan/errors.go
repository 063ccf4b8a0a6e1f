package plan

import "errors"

// ErrNotFound is returned when no plan exists for the requested identifier.
var ErrNotFound = errors.New("plan not found")
