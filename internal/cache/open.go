// Package cache implements the persistent response cache: a sqlite-backed
// key/value store with TTL expiry and hit/miss accounting. Keys are content
// hashes of the full model request, so a cache hit means the backend would
// have been asked the exact same question.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration
)

// defaultBusyTimeout is the sqlite busy_timeout in milliseconds.
const defaultBusyTimeout = 5000

// DefaultTTL is the entry lifetime used when the configuration does not
// override it.
const DefaultTTL = time.Hour

// Cache is a persistent response cache. It is safe for concurrent use: the
// database serialises writers per key and readers never observe a
// half-written value; hit/miss counters are atomic.
type Cache struct {
	db     *sql.DB
	ttl    time.Duration
	logger *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// Open creates the cache directory if needed and opens the sqlite store at
// <dir>/cache.db with WAL mode, a 5 s busy timeout, and a single connection
// (sqlite serialises writes). The schema is migrated automatically.
func Open(dir string, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("cache: create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, "cache.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	ctx := context.TODO()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache: enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", defaultBusyTimeout)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache: set busy_timeout: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Cache{db: db, ttl: ttl, logger: logger}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// TTL returns the configured entry lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}
