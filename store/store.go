// Package store persists the indicator catalog and its data points in a
// single SQLite database file.
//
// The (indicator, day) pair is the points table's primary key, so the
// at-most-one-value-per-indicator-per-date invariant is a schema-level
// guarantee: concurrent writers racing on the same key serialize into a
// last-write-wins outcome, never a duplicate row.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS categories (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	name      TEXT NOT NULL UNIQUE,
	sector    TEXT NOT NULL,
	ordinal   INTEGER NOT NULL UNIQUE,
	parent_id INTEGER REFERENCES categories(id)
);
CREATE TABLE IF NOT EXISTS indicators (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	code        TEXT NOT NULL UNIQUE,
	category_id INTEGER NOT NULL REFERENCES categories(id),
	name        TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	units       TEXT NOT NULL DEFAULT '',
	frequency   TEXT NOT NULL DEFAULT '',
	seasonal    TEXT NOT NULL DEFAULT '',
	url         TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS points (
	indicator_id INTEGER NOT NULL REFERENCES indicators(id) ON DELETE CASCADE,
	day          TEXT NOT NULL,
	value        TEXT NOT NULL,
	PRIMARY KEY (indicator_id, day)
);
`

// Store is a SQLite-backed implementation of fredsync.Store.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	if path == "" {
		path = "fredsync.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Serialize writers instead of failing fast when two runs overlap.
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000; PRAGMA foreign_keys = ON;`); err != nil {
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
