package repository

import "errors"

// ErrNotFound is returned when a rider is not part of the population.
var ErrNotFound = errors.New("rider not found")
