package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle passed through repository methods.
// Repositories accept nil to mean "run against the pool directly".
type Tx = any

// TransactionManager begins a transaction, invokes the callback and
// commits or rolls back depending on the callback's error.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
