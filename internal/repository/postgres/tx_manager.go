package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TxManager implements domain.TxManager on a pgx connection pool.
type TxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager creates a new TxManager
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// WithinTx begins a transaction, runs fn and commits. Any error from fn or
// from commit rolls the whole transaction back.
func (m *TxManager) WithinTx(ctx context.Context, fn func(tx any) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
