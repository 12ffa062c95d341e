// Package dbx owns the ledger's embedded SQLite database: a Store handle that
// keeps one exclusive connection to a working file and can temporarily detach
// from it, plus the DBTX interface and WithTx helper that repositories build on.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql used by the ledger repositories.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxFunc is the body of a transaction.
type TxFunc func(ctx context.Context, tx DBTX) error

// Beginner starts transactions. *sql.DB and *sql.Conn satisfy it.
type Beginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// WithTx runs fn inside one transaction on db. It commits when fn returns nil
// and rolls back when fn fails or panics; panics are rethrown.
//
// An error returned by fn comes back unchanged. Failures to begin or commit
// are reported as a *StoreError of KindSQL, so callers can tell the two apart.
//
//	err := dbx.WithTx(ctx, db, func(ctx context.Context, tx dbx.DBTX) error {
//	    _, err := tx.ExecContext(ctx, "UPDATE accounts SET description = ? WHERE id = ?", d, id)
//	    return err
//	})
func WithTx(ctx context.Context, db Beginner, fn TxFunc) error {
	return withTx(ctx, db, "", fn)
}

func withTx(ctx context.Context, db Beginner, path string, fn TxFunc) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return newStoreError(KindSQL, "begin", path, err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		_ = tx.Rollback()
		if p := recover(); p != nil {
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	committed = true
	if err := tx.Commit(); err != nil {
		return newStoreError(KindSQL, "commit", path, err)
	}
	return nil
}
