package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")

	// ErrNoData marks an aggregation over a mode with no records at all,
	// as opposed to a mode whose counts happen to be zero.
	ErrNoData = errors.New("no data")

	ErrEmptyComment          = errors.New("empty comment")
	ErrClassifierUnavailable = errors.New("sentiment classifier unavailable")
)
