// Package store persists emitted artifacts between compilation passes.
//
// Each pass is recorded with its full hash. Each emitted file is recorded
// with the content hash of the chunk it was rendered from, so a later pass
// can skip writing files whose content did not change.
//
// SQLite in WAL mode, one connection. Schema and migrations are applied on
// Open and are idempotent.
package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - initial schema
// 1 - index on artifacts.content_hash
const currentSchemaVersion = 1

// Store is the artifact cache backed by one SQLite file.
// A Store is safe for use by one process; the pool holds a single
// connection, so concurrent callers are serialized.
type Store struct {
	db *sql.DB
}

// Open creates or opens the cache database at path. The file is created
// if it does not exist; pragmas, schema and migrations are applied every
// time, so opening an existing cache is safe.
//
// The database is configured with:
//   - WAL mode, so a reader (a concurrent inspect of the cache) does not
//     block the build writing artifacts
//   - NORMAL synchronous mode; a lost cache only costs a full rewrite
//   - 5-second busy timeout for lock contention between processes
//   - foreign key enforcement, so an artifact always names a recorded pass
func Open(path string) (*Store, error) {
	// sql.Open only validates arguments; Ping makes the first connection.
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer at a time. A single pooled connection keeps
	// database/sql from opening a second one and hitting SQLITE_BUSY, and
	// keeps per-connection pragmas in effect for every query.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1) // keep the configured connection alive

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection. Closing a zero Store is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// applyPragmas sets the connection configuration described on Open.
// journal_mode is persistent in the file; the others are per connection.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates missing tables from the embedded schema, then brings
// older files up to date. Both steps are idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// runMigrations applies incremental migrations based on PRAGMA user_version,
// then records the current version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	// Apply migrations sequentially.
	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// migrateToV1 indexes artifacts by content hash, for caches created before
// lookups by hash existed.
func migrateToV1(db *sql.DB) error {
	// IF NOT EXISTS makes this a no-op on a file that already has the index.
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_artifacts_content_hash ON artifacts(content_hash)`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// pragma returns the current value of a pragma. Used by tests to check
// the configuration applied by Open.
func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return "", fmt.Errorf("failed to query %s: %w", name, err)
	}
	return value, nil
}
