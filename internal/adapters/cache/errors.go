package cache

import "errors"

// Sentinel kinds for cache lookups.
var (
	// ErrMiss means the key has never been stored or was deleted.
	ErrMiss = errors.New("cache miss")
	// ErrStale accompanies an entry older than the cache TTL.
	ErrStale = errors.New("cache entry stale")
)
