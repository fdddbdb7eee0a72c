package filter

import "errors"

var (
	ErrUnknownSortKey  = errors.New("unknown sort key")
	ErrInvalidCriteria = errors.New("invalid filter criteria")
)
