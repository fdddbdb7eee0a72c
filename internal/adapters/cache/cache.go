// Package cache stores fetched race-result payloads with a freshness window.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/okian/peloton/pkg/metrics"

	_ "github.com/glebarez/go-sqlite" // registers the "sqlite" driver
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Entry is one cached payload.
type Entry struct {
	Key       string
	Payload   []byte
	FetchedAt time.Time
}

// Info summarizes the cache contents.
type Info struct {
	Path    string        `json:"path"`
	Entries int           `json:"entries"`
	Stale   int           `json:"stale"`
	Oldest  time.Time     `json:"oldest,omitzero"`
	Newest  time.Time     `json:"newest,omitzero"`
	TTL     time.Duration `json:"ttl"`
}

// Cache is the lookup surface used by the data source.
type Cache interface {
	// Get returns ErrMiss for unknown keys. An entry older than the TTL is
	// returned together with ErrStale.
	Get(ctx context.Context, key string) (Entry, error)
	Put(ctx context.Context, key string, payload []byte) error
	Delete(ctx context.Context, key string) error
	// Clear removes every entry and reports how many were removed.
	Clear(ctx context.Context) (int, error)
	Info(ctx context.Context) (Info, error)
}

// SQLiteCache is a Cache backed by a single SQLite table.
type SQLiteCache struct {
	db   *sql.DB
	path string
	ttl  time.Duration
	now  func() time.Time
}

var _ Cache = (*SQLiteCache)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS race_results (
	key        TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	fetched_at INTEGER NOT NULL
);`

// Open opens or creates the cache database at path.
func Open(ctx context.Context, path string, opts ...Option) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}

	c := &SQLiteCache{db: db, path: path, ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close releases the database.
func (c *SQLiteCache) Close() error { return c.db.Close() }

// TTL returns the freshness window.
func (c *SQLiteCache) TTL() time.Duration { return c.ttl }

// Get looks up key.
func (c *SQLiteCache) Get(ctx context.Context, key string) (Entry, error) {
	var (
		payload []byte
		fetched int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT payload, fetched_at FROM race_results WHERE key = ?`, key,
	).Scan(&payload, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordCacheLookup("miss")
		return Entry{}, ErrMiss
	}
	if err != nil {
		metrics.RecordCacheLookup("error")
		return Entry{}, fmt.Errorf("get %q: %w", key, err)
	}

	e := Entry{Key: key, Payload: payload, FetchedAt: time.Unix(0, fetched).UTC()}
	if c.now().Sub(e.FetchedAt) > c.ttl {
		metrics.RecordCacheLookup("stale")
		return e, ErrStale
	}
	metrics.RecordCacheLookup("hit")
	return e, nil
}

// Put stores payload under key, stamped with the current time.
func (c *SQLiteCache) Put(ctx context.Context, key string, payload []byte) error {
	_, err := c.db.ExecContext(ctx, `
INSERT INTO race_results (key, payload, fetched_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		key, payload, c.now().UnixNano())
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an unknown key is not an error.
func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM race_results WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Clear removes every entry.
func (c *SQLiteCache) Clear(ctx context.Context) (int, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM race_results`)
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	return int(n), nil
}

// Info reports entry counts and age bounds.
func (c *SQLiteCache) Info(ctx context.Context) (Info, error) {
	cutoff := c.now().Add(-c.ttl).UnixNano()
	var (
		count          int
		stale          sql.NullInt64
		oldest, newest sql.NullInt64
	)
	err := c.db.QueryRowContext(ctx, `
SELECT COUNT(*),
       SUM(CASE WHEN fetched_at < ? THEN 1 ELSE 0 END),
       MIN(fetched_at),
       MAX(fetched_at)
FROM race_results`, cutoff).Scan(&count, &stale, &oldest, &newest)
	if err != nil {
		return Info{}, fmt.Errorf("cache info: %w", err)
	}

	info := Info{Path: c.path, Entries: count, Stale: int(stale.Int64), TTL: c.ttl}
	if oldest.Valid {
		info.Oldest = time.Unix(0, oldest.Int64).UTC()
	}
	if newest.Valid {
		info.Newest = time.Unix(0, newest.Int64).UTC()
	}
	return info, nil
}
