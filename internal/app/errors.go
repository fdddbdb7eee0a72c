package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNoLoader      = errors.New("no population loader configured")
	ErrLimitExceeded = errors.New("limit exceeds maximum")
)
