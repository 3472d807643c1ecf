package pg

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/sablepay/coffee-pos/pkg/retry"
)

// maxTxAttempts bounds how often a transaction is rerun after a
// serialization failure.
const maxTxAttempts = 5

// ExecuteInTx runs fn in a transaction at the requested isolation level,
// committing when fn succeeds and rolling back otherwise. The whole
// transaction is rerun when Postgres reports a serialization failure, so fn
// must not have side effects outside of tx.
func ExecuteInTx(ctx context.Context, db *sqlx.DB, isolation sql.IsolationLevel, fn func(tx *sqlx.Tx) error) error {
	if isolation == sql.LevelDefault {
		isolation = sql.LevelReadCommitted
	}

	_, err := retry.Do(
		ctx,
		func(ctx context.Context) error {
			return executeOnce(ctx, db, isolation, fn)
		},
		retry.Limit(maxTxAttempts),
		retry.RetriableIf(IsSerializationFailure),
	)
	return err
}

func executeOnce(ctx context.Context, db *sqlx.DB, isolation sql.IsolationLevel, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: isolation})
	if err != nil {
		return errors.Wrap(err, "error starting transaction")
	}

	if err := fn(tx); err != nil {
		// Rollback releases the connection back to the pool.
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return errors.Wrapf(err, "rollback also failed: %v", rollbackErr)
		}
		return err
	}

	return tx.Commit()
}
