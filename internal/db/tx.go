package db

import (
	"context"
	"database/sql"
)

// MakeTx begins a transaction bound to ctx. discard is a no-op once commit succeeded.
type MakeTx = func(ctx context.Context) (tx *Queries, discard, commit func() error, err error)

func NewMakeTx(sqlite *sql.DB) MakeTx {
	return func(ctx context.Context) (*Queries, func() error, func() error, error) {
		sqltx, err := sqlite.BeginTx(ctx, nil)
		if err != nil {
			return nil, nil, nil, err
		}
		return New(sqltx), sqltx.Rollback, sqltx.Commit, nil
	}
}
