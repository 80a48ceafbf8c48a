package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"content-commerce/internal/domain"
	"content-commerce/internal/domain/ports/repository"
)

var _ repository.TransactionManager = (*TxManager)(nil)

// SQLSTATE codes after which a whole transaction may simply be replayed.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

const defaultTxAttempts = 3

// TxManager runs callbacks inside a pgx transaction. Callbacks must only touch
// the database through tx because they are replayed on serialization failures.
type TxManager struct {
	pool     *pgxpool.Pool
	attempts int
}

func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool, attempts: defaultTxAttempts}
}

func (m *TxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	var err error
	for attempt := 1; attempt <= m.attempts; attempt++ {
		err = m.runOnce(ctx, txOpt, fn)
		if !retryable(err) || ctx.Err() != nil {
			return err
		}
	}
	return fmt.Errorf("%w: transaction aborted after %d attempts: %v", domain.ErrOperationFailed, m.attempts, err)
}

func (m *TxManager) runOnce(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) (err error) {
	tx, err := m.pool.BeginTx(ctx, txOpt)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", domain.ErrOperationFailed, err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		// Rollback must still reach the server when the caller has gone away.
		_ = tx.Rollback(context.WithoutCancel(ctx))
		if p := recover(); p != nil {
			panic(p)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		if retryable(err) {
			return err
		}
		return fmt.Errorf("%w: commit tx: %v", domain.ErrOperationFailed, err)
	}
	committed = true
	return nil
}

func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codeSerializationFailure || pgErr.Code == codeDeadlockDetected
}

type executor interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// getExecutor resolves the repository.Tx handed to a repository method.
// A nil tx means autocommit on the pool.
func getExecutor(pool *pgxpool.Pool, tx repository.Tx) (executor, error) {
	if tx == nil {
		if pool == nil {
			return nil, fmt.Errorf("%w: no pool configured", domain.ErrInvalidArgument)
		}
		return pool, nil
	}
	if ex, ok := tx.(executor); ok {
		return ex, nil
	}
	return nil, fmt.Errorf("%w: %T", domain.ErrInvalidExecContext, tx)
}
