package source

import "errors"

// Sentinel kinds for data source errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported fantasy data format")
	ErrMalformedFantasy  = errors.New("malformed fantasy data")
	ErrFetch             = errors.New("fetch race results")
	ErrRiderUnknown      = errors.New("rider unknown to results site")
	ErrMalformedProfile  = errors.New("malformed rider profile")
)
