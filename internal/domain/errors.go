package domain

import "errors"

// ErrNotFound is returned by sinks when no record exists for an
// identity.
var ErrNotFound = errors.New("record not found")
