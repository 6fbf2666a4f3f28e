package domain

import "errors"

// Sentinel errors shared across layers. Handlers map these to HTTP statuses.
var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrRateLimited = errors.New("attempt limit reached")
	ErrStore       = errors.New("store error")
)
