package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Repositories take a Querier so the same code runs inside or outside a
// unit of work; the handle is always an explicit argument, never ambient.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// RunAtomic executes fn inside a single transaction. If fn returns an
// error every write staged so far is rolled back and fn's error is
// returned unchanged. On success all writes become visible together.
func RunAtomic(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		// keep fn's error even if rollback itself fails
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// RunAtomicTimeout is RunAtomic with a ceiling on how long the unit may
// hold a pool slot. Acquiring a connection also counts against the
// deadline, so a caller waiting on an exhausted pool fails bounded.
func RunAtomicTimeout(ctx context.Context, db *sql.DB, timeout time.Duration, fn func(tx *sql.Tx) error) error {
	if timeout <= 0 {
		return RunAtomic(ctx, db, fn)
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return RunAtomic(tctx, db, fn)
}
