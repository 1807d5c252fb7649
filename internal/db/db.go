// Package db provides database connection management for the local
// record store.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps sql.DB with vistoria-specific configuration.
type DB struct {
	*sql.DB
}

// Open opens the local SQLite database with WAL mode and foreign keys
// enabled, creating the schema on first use. modernc.org/sqlite is
// pure Go, no CGO.
func Open(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "vistoria.db")

	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't support multiple writers
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	db := &DB{sqlDB}
	if err := db.ensureSchema(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// OpenInMemory opens an in-memory database with the schema applied.
// Used by tests.
func OpenInMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	db := &DB{sqlDB}
	if err := db.ensureSchema(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// ensureSchema creates the record-store tables if they don't exist.
// The schema is a fixed single version; there is nothing to migrate
// between.
func (db *DB) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS inspections (
		namespace  TEXT NOT NULL,
		id         TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'in-progress',
		payload    TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (namespace, id)
	);

	CREATE TABLE IF NOT EXISTS tombstones (
		namespace  TEXT NOT NULL,
		id         TEXT NOT NULL,
		deleted_at INTEGER NOT NULL,
		PRIMARY KEY (namespace, id)
	);

	CREATE TABLE IF NOT EXISTS session (
		namespace  TEXT PRIMARY KEY,
		current_id TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_inspections_updated
		ON inspections (namespace, updated_at DESC);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.DB.Close()
}
