// Package store provides SQLite persistence for taskwire records.
//
// The database runs embedded with WAL mode for concurrent reads during
// writes. All queries are scoped to the owning user: a record belonging
// to another user is indistinguishable from a record that does not
// exist, so cross-user probes surface as ErrNotFound.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// ErrNotFound is returned when no record matches the given id and owner.
var ErrNotFound = errors.New("record not found")

// Page selects a slice of a user's records. The zero value means
// "no pagination": return everything.
type Page struct {
	Number int // 1-based
	Size   int
}

// IsZero reports whether pagination was requested.
func (p Page) IsZero() bool {
	return p.Number == 0 && p.Size == 0
}

// Normalize clamps out-of-range page parameters to their defaults.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = 10
	}
	return p
}

// Offset returns the number of records to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// TotalPages returns ceil(total/size) for a record count.
func (p Page) TotalPages(total int) int {
	return (total + p.Size - 1) / p.Size
}

// Store wraps the SQLite connection holding task and event records.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates a database connection at the specified path.
//
// The parent directory is created if missing. The caller MUST call
// Close() when done.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{conn: conn, path: path}

	// WAL for concurrent reads during request handling
	if _, err := s.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := s.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := s.conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return s, nil
}

// RawDB returns the underlying sql.DB connection.
func (s *Store) RawDB() *sql.DB {
	return s.conn
}

// Close closes the database connection after checkpointing the WAL.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}

	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.conn = nil
	return nil
}

// InitSchema creates the tasks and events tables if they don't exist.
// Idempotent - safe to call on every startup.
func (s *Store) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		due_date TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		recurrence TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Owner-scoped, newest-first listing is the hot query
	CREATE INDEX IF NOT EXISTS idx_tasks_user_created
	    ON tasks(user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_events_user_start
	    ON events(user_id, start_date DESC);
	`

	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// storedTimeLayout is fixed-width (no trailing-zero trimming) and always
// UTC, so lexicographic ordering of the TEXT column matches time order.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z"

// formatStoredTime renders a timestamp for storage.
func formatStoredTime(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}

// parseStoredTime reads an RFC 3339 timestamp column.
func parseStoredTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt timestamp %q: %w", s, err)
	}
	return t, nil
}
