package rider

import (
	"errors"
	"fmt"
)

// Sentinel kinds for rider validation.
var (
	ErrInvalidRecord  = errors.New("invalid rider record")
	ErrDuplicateRider = errors.New("duplicate rider name")
)

// ValidationError identifies the rider and field that failed validation.
type ValidationError struct {
	Rider  string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Rider == "" {
		return fmt.Sprintf("%s: %s %s", ErrInvalidRecord, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: rider %q: %s %s", ErrInvalidRecord, e.Rider, e.Field, e.Reason)
}

// Unwrap lets errors.Is(err, ErrInvalidRecord) match.
func (e *ValidationError) Unwrap() error { return ErrInvalidRecord }
