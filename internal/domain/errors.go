package domain

import "errors"

var (
	ErrInvalidID           = errors.New("invalid id")
	ErrInvalidScope        = errors.New("invalid scope")
	ErrInvalidBusinessArea = errors.New("invalid business area")
	ErrInvalidAppID        = errors.New("invalid app id")
	ErrInvalidTrendDay     = errors.New("invalid trend day")
)
