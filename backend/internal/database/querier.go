package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxQuerier lets store functions run against either the pool or an
// open transaction.
type PgxQuerier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
}

// Querier returns the transaction if not nil, otherwise the pool.
func Querier(tx pgx.Tx) PgxQuerier {
	if tx != nil {
		return tx
	}
	return DB
}
