// Package dbx holds the minimal database/sql abstraction shared by the
// sessiond repositories. DBTX is satisfied by both *sql.DB and *sql.Tx, so
// repository code never needs to know whether it runs inside a transaction.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql used by the repositories.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
