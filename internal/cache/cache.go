// Package cache stores compiled bundles in a SQLite database keyed by the
// hash of their source, so unchanged scripts skip compilation.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/funvibe/loxide/internal/config"
	"github.com/funvibe/loxide/internal/vm"
)

const schema = `
CREATE TABLE IF NOT EXISTS bundles (
	key         TEXT PRIMARY KEY,
	build_id    TEXT NOT NULL,
	source_file TEXT NOT NULL,
	data        BLOB NOT NULL,
	created_at  INTEGER NOT NULL
)`

// Cache is a compile cache backed by one SQLite file.
type Cache struct {
	db  *sql.DB
	log *logrus.Entry
}

// Open opens (creating if needed) the cache database at path.
func Open(ctx context.Context, path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cache: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: failed to open %s: %w", path, err)
	}
	// One writer; SQLite serializes anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: failed to ping %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: failed to create schema: %w", err)
	}

	return &Cache{
		db:  db,
		log: logrus.WithField("component", "cache"),
	}, nil
}

// SetLogger routes cache logs to entry.
func (c *Cache) SetLogger(entry *logrus.Entry) {
	if entry != nil {
		c.log = entry.WithField("component", "cache")
	}
}

// Key returns the cache key of source. It changes with the compiler version.
func Key(source string) string {
	h := sha256.New()
	h.Write([]byte(config.Version))
	h.Write([]byte{0})
	h.Write([]byte(source))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached bundle for source. A corrupt entry is dropped and
// reported as a miss.
func (c *Cache) Get(ctx context.Context, source string) (*vm.Bundle, bool, error) {
	key := Key(source)

	var data []byte
	err := c.db.QueryRowContext(ctx, `SELECT data FROM bundles WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		c.log.WithField("key", key[:12]).Debug("cache miss")
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: lookup failed: %w", err)
	}

	bundle, err := vm.Deserialize(data)
	if err != nil {
		c.log.WithError(err).WithField("key", key[:12]).Warn("dropping corrupt cache entry")
		if _, delErr := c.db.ExecContext(ctx, `DELETE FROM bundles WHERE key = ?`, key); delErr != nil {
			return nil, false, fmt.Errorf("cache: failed to drop corrupt entry: %w", delErr)
		}
		return nil, false, nil
	}

	c.log.WithFields(logrus.Fields{"key": key[:12], "build_id": bundle.BuildID}).Debug("cache hit")
	return bundle, true, nil
}

// Put stores bundle as the compiled form of source.
func (c *Cache) Put(ctx context.Context, source string, bundle *vm.Bundle) error {
	data, err := bundle.Serialize()
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO bundles (key, build_id, source_file, data, created_at) VALUES (?, ?, ?, ?, ?)`,
		Key(source), bundle.BuildID.String(), bundle.SourceFile, data, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("cache: store failed: %w", err)
	}
	return nil
}

// Len returns the number of cached bundles.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bundles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("cache: count failed: %w", err)
	}
	return n, nil
}

// Purge removes every entry.
func (c *Cache) Purge(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM bundles`); err != nil {
		return fmt.Errorf("cache: purge failed: %w", err)
	}
	return nil
}

// Close releases the database.
func (c *Cache) Close() error {
	return c.db.Close()
}
