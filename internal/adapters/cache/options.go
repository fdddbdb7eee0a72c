package cache

import "time"

// DefaultTTL is how long a fetched race-result entry stays fresh.
const DefaultTTL = 7 * 24 * time.Hour

// Option applies a configuration option to the SQLiteCache.
type Option func(*SQLiteCache)

// WithClock sets the time source used for stamping and expiring entries.
func WithClock(now func() time.Time) Option {
	return func(c *SQLiteCache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithTTL sets the freshness window. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(c *SQLiteCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}
