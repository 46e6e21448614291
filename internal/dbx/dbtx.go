// Package dbx lets a repository run against either a live connection or an
// open transaction without knowing which it got: DBTX is the query surface
// shared by *sql.DB and *sql.Tx, and WithTx wraps a multi-repository
// operation in one transaction.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the part of database/sql the repositories actually call.
// Satisfied by *sql.DB and *sql.Tx alike.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx opens a transaction, hands its DBTX to fn, and commits when fn
// returns nil. An error or panic from fn rolls everything back; panics are
// rethrown after the rollback.
//
// Deleting a note together with detaching its files looks like:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    if err := rm.Files(tx).DetachFromNote(ctx, noteID, userID); err != nil {
//	        return err
//	    }
//	    return rm.Notes(tx).Delete(ctx, noteID)
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
