// Package testutil holds the shared database, fixtures and fault injectors
// used by repository, service and CLI tests.
package testutil

import (
	"database/sql"
	"testing"

	"github.com/alexanderramin/solace/internal/db"
	"github.com/stretchr/testify/require"
)

// NewTestDB returns a migrated private in-memory store, closed on cleanup.
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()
	conn, err := db.OpenDB(db.MemoryPath)
	require.NoError(t, err, "opening test database")
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// NewTestUoW wraps conn in the production unit of work.
func NewTestUoW(conn *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(conn)
}
