package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound        = errors.New("not found")
	ErrNoSnapshot      = errors.New("no snapshot loaded")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	ErrSourceRequired  = errors.New("data source is required")
)
