package db_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/solace/internal/db"
)

func openUoW(t *testing.T) (*sql.DB, *db.SQLiteUnitOfWork) {
	t.Helper()
	database, err := db.OpenDB(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database, db.NewSQLiteUnitOfWork(database)
}

const insertTask = `INSERT INTO tasks (id, user_id, title, status, source_timezone, duration_min,
	is_recurring, recurrence_interval, created_at, updated_at)
	VALUES (?, 'u1', ?, 'pending', '', 0, 0, 1, '2024-06-10T12:00:00Z', '2024-06-10T12:00:00Z')`

func countTasks(t *testing.T, database *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM tasks`).Scan(&n))
	return n
}

func TestWithinTx_Commits(t *testing.T) {
	database, uow := openUoW(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx, insertTask, "t1", "Dentist"); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, insertTask, "t2", "Gym")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, countTasks(t, database))
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	database, uow := openUoW(t)
	failure := errors.New("calendar unavailable")

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx, insertTask, "t1", "Dentist"); err != nil {
			return err
		}
		return failure
	})
	assert.ErrorIs(t, err, failure)
	assert.Zero(t, countTasks(t, database))
}

func TestWithinTx_RollsBackOnPanic(t *testing.T) {
	database, uow := openUoW(t)

	assert.PanicsWithValue(t, "boom", func() {
		_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
			_, _ = tx.ExecContext(ctx, insertTask, "t1", "Dentist")
			panic("boom")
		})
	})
	assert.Zero(t, countTasks(t, database))
}

func TestWithinTx_CancelledContext(t *testing.T) {
	_, uow := openUoW(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := uow.WithinTx(ctx, func(context.Context, db.DBTX) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestOpenDB_FileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "solace.db")
	database, err := db.OpenDB(path)
	require.NoError(t, err)
	defer database.Close()

	var timeout int
	require.NoError(t, database.QueryRow(`PRAGMA busy_timeout`).Scan(&timeout))
	assert.Equal(t, 5000, timeout)

	var mode string
	require.NoError(t, database.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)
}
