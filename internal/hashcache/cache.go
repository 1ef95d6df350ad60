package hashcache

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; the cache is disposable, so a mismatched database is recreated.
const schemaVersion = 1

// Cache persists fingerprints keyed by absolute path, size, and mtime so
// repeated scans skip re-decoding unchanged files.
type Cache struct {
	db   *sql.DB
	path string
}

// Entry is a cached fingerprint with the decoded pixel dimensions.
type Entry struct {
	Hash   uint64
	Width  int
	Height int
}

// Open initializes or connects to the cache database inside dir.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, "fingerprints.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	cache := &Cache{db: db, path: dbPath}
	if err := cache.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return cache, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Path returns the database file location.
func (c *Cache) Path() string {
	return c.path
}

// Get returns the cached entry for path if size and mtime still match.
// A stale or missing row is reported as a miss, never an error.
func (c *Cache) Get(ctx context.Context, path string, size int64, mtime time.Time) (Entry, bool, error) {
	var (
		storedSize  int64
		storedMtime int64
		storedHash  int64
		entry       Entry
	)
	err := c.db.QueryRowContext(
		ctx,
		`SELECT size, mtime_ns, hash, width, height FROM fingerprints WHERE path = ?`,
		path,
	).Scan(&storedSize, &storedMtime, &storedHash, &entry.Width, &entry.Height)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("query fingerprint: %w", err)
	}
	if storedSize != size || storedMtime != mtime.UnixNano() {
		return Entry{}, false, nil
	}
	entry.Hash = uint64(storedHash)
	return entry, true, nil
}

// Put stores or replaces the entry for path.
func (c *Cache) Put(ctx context.Context, path string, size int64, mtime time.Time, entry Entry) error {
	_, err := c.db.ExecContext(
		ctx,
		`INSERT INTO fingerprints (path, size, mtime_ns, hash, width, height, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(path) DO UPDATE SET
             size = excluded.size,
             mtime_ns = excluded.mtime_ns,
             hash = excluded.hash,
             width = excluded.width,
             height = excluded.height,
             updated_at = excluded.updated_at`,
		path,
		size,
		mtime.UnixNano(),
		int64(entry.Hash),
		entry.Width,
		entry.Height,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("store fingerprint: %w", err)
	}
	return nil
}

// Prune removes entries whose files no longer exist on disk.
func (c *Cache) Prune(ctx context.Context) (int64, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT path FROM fingerprints`)
	if err != nil {
		return 0, fmt.Errorf("list fingerprints: %w", err)
	}
	defer rows.Close()

	var stale []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return 0, fmt.Errorf("scan fingerprint row: %w", err)
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			stale = append(stale, path)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate fingerprints: %w", err)
	}

	var removed int64
	for _, path := range stale {
		res, err := c.db.ExecContext(ctx, `DELETE FROM fingerprints WHERE path = ?`, path)
		if err != nil {
			return removed, fmt.Errorf("delete fingerprint: %w", err)
		}
		n, _ := res.RowsAffected()
		removed += n
	}
	return removed, nil
}

func (c *Cache) initSchema(ctx context.Context) error {
	var tableExists int
	err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return c.createSchema(ctx)
	}

	var version int
	err = c.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		// Cache contents are derivable; drop and recreate on mismatch.
		if _, err := c.db.ExecContext(ctx, "DROP TABLE IF EXISTS fingerprints"); err != nil {
			return fmt.Errorf("drop stale fingerprints: %w", err)
		}
		if _, err := c.db.ExecContext(ctx, "DROP TABLE IF EXISTS schema_version"); err != nil {
			return fmt.Errorf("drop stale schema_version: %w", err)
		}
		return c.createSchema(ctx)
	}
	return nil
}

func (c *Cache) createSchema(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}
