package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque storage handle. Repositories accept NoTX (nil) for the
// pool path and an infra-defined value (pgx.Tx for Postgres) inside WithTx.
type Tx interface{}

var NoTX interface{}

// TransactionManager runs fn inside one storage transaction. Every repository
// call made with the tx handed to fn commits or rolls back together, which is
// how status flips, credit changes and counter increments stay all-or-nothing.
//
// Inside a tx, Find* methods of row-locking repositories use SELECT ... FOR UPDATE.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
