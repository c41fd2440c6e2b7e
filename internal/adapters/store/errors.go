package store

import "errors"

// Sentinel kinds for store errors.
var (
	ErrUnknownBackend    = errors.New("unknown store backend")
	ErrMissingEmployee   = errors.New("missing employee id")
	ErrMissingContribID  = errors.New("missing contribution id")
	ErrConnectionFailure = errors.New("store connection failure")
)
