package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Get looks up a cached response. The boolean reports a hit; an entry older
// than the TTL counts as a miss and is deleted on the way out (lazy expiry),
// so an expired read always leaves the store without that entry.
func (c *Cache) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	var (
		value string
		ts    float64
	)
	err := c.db.QueryRowContext(ctx, "SELECT value, ts FROM cache WHERE key = ?", key).Scan(&value, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		c.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get: %w", err)
	}

	age := nowSeconds() - ts
	if age > c.ttl.Seconds() {
		if _, err := c.db.ExecContext(ctx, "DELETE FROM cache WHERE key = ?", key); err != nil {
			return nil, false, fmt.Errorf("cache: delete expired: %w", err)
		}
		c.misses.Add(1)
		c.logger.Debug("cache: entry expired", "key", shortKey(key), "age_seconds", age)
		return nil, false, nil
	}

	c.hits.Add(1)
	c.logger.Debug("cache: hit", "key", shortKey(key), "age_seconds", age)
	return json.RawMessage(value), true, nil
}

// Put stores a response under key. Inserting under an existing key replaces
// the prior value and timestamp (upsert).
func (c *Cache) Put(ctx context.Context, key string, value json.RawMessage) error {
	_, err := c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO cache (key, value, ts) VALUES (?, ?, ?)",
		key, string(value), nowSeconds(),
	)
	if err != nil {
		return fmt.Errorf("cache: put: %w", err)
	}
	return nil
}

// Stats is a point-in-time view of cache accounting.
type Stats struct {
	Hits          int64   `json:"hits"`
	Misses        int64   `json:"misses"`
	TotalRequests int64   `json:"totalRequests"`
	HitRate       float64 `json:"hitRate"`
	Entries       int     `json:"entries"`
}

// Stats reports cumulative hit/miss counts, the derived hit rate in percent,
// and the current entry count.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	hits := c.hits.Load()
	misses := c.misses.Load()
	total := hits + misses

	var rate float64
	if total > 0 {
		rate = float64(hits) / float64(total) * 100
	}

	var entries int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cache").Scan(&entries); err != nil {
		return Stats{}, fmt.Errorf("cache: count entries: %w", err)
	}

	return Stats{
		Hits:          hits,
		Misses:        misses,
		TotalRequests: total,
		HitRate:       rate,
		Entries:       entries,
	}, nil
}

// Clear removes all entries unconditionally and returns the count removed.
func (c *Cache) Clear(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, "DELETE FROM cache")
	if err != nil {
		return 0, fmt.Errorf("cache: clear: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cache: rows affected: %w", err)
	}
	c.logger.Info("cache: cleared", "removed", n)
	return n, nil
}

// PruneExpired removes all entries older than the TTL without reading them,
// returning the count removed.
func (c *Cache) PruneExpired(ctx context.Context) (int64, error) {
	cutoff := nowSeconds() - c.ttl.Seconds()
	res, err := c.db.ExecContext(ctx, "DELETE FROM cache WHERE ts < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("cache: prune: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cache: rows affected: %w", err)
	}
	if n > 0 {
		c.logger.Info("cache: pruned expired entries", "removed", n)
	}
	return n, nil
}

// nowSeconds returns the current time as float seconds since the epoch,
// matching the REAL ts column.
func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

// shortKey abbreviates a key for log output.
func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
