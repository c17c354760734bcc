package testutil

import (
	"context"
	"database/sql"
	"sync/atomic"

	"github.com/alexanderramin/solace/internal/db"
)

// FailingUoW wraps a UnitOfWork and fails the FailOnExec-th ExecContext
// call (counting from 1) inside each transaction with Err. Reads pass
// through, so a test can break the second write of a multi-write use case
// and check that the first one was rolled back.
type FailingUoW struct {
	Inner      db.UnitOfWork
	FailOnExec int32
	Err        error
}

func (u *FailingUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	return u.Inner.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, &failingExec{DBTX: tx, failOn: u.FailOnExec, err: u.Err})
	})
}

type failingExec struct {
	db.DBTX
	calls  atomic.Int32
	failOn int32
	err    error
}

func (f *failingExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if f.calls.Add(1) == f.failOn {
		return nil, f.err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
