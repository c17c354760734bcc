// Package db opens the SQLite store shared by tasks and the local calendar,
// applies its schema and provides the transaction boundary used by services.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// busyTimeoutMs lets the HTTP server and the background sweep wait on each
// other's write locks instead of failing with SQLITE_BUSY.
const busyTimeoutMs = 5000

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA foreign_keys = ON",
	fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMs),
}

// OpenDB opens (creating if needed) the database at path and migrates it.
func OpenDB(path string) (*sql.DB, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Each new connection to ":memory:" would see its own empty database.
	if path == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	// File databases also get these through the DSN on every pooled
	// connection; executing them here covers the in-memory case.
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", p, err)
		}
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// dsn carries the per-connection pragmas for file databases.
func dsn(path string) string {
	if path == MemoryPath {
		return path
	}
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)", path, busyTimeoutMs)
}
