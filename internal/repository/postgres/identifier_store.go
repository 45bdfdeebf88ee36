package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/surendharS49/MotoCredit--sub000/internal/idgen"
)

// IdentifierStore backs the identifier generator with live probes across the
// collections that carry generated IDs.
type IdentifierStore struct {
	pool *pgxpool.Pool
}

// NewIdentifierStore creates a new IdentifierStore
func NewIdentifierStore(pool *pgxpool.Pool) *IdentifierStore {
	return &IdentifierStore{pool: pool}
}

var _ idgen.Store = (*IdentifierStore)(nil)

// MaxSequence returns the highest numeric suffix among IDs with the given
// prefix, or 0 when no rows exist.
func (s *IdentifierStore) MaxSequence(ctx context.Context, prefix string) (int64, error) {
	var table, column string
	switch prefix {
	case idgen.Loan.Prefix:
		table, column = "loans", "loan_id"
	case idgen.Guarantor.Prefix:
		table, column = "guarantors", "guarantor_id"
	default:
		return 0, fmt.Errorf("no sequential collection for prefix %q", prefix)
	}

	var max pgtype.Int8
	query := fmt.Sprintf(`
		SELECT MAX(CAST(SUBSTRING(%s FROM $1) AS BIGINT))
		FROM %s
		WHERE %s LIKE $2`, column, table, column)
	err := s.pool.QueryRow(ctx, query, `^`+prefix+`-(\d+)$`, prefix+"-%").Scan(&max)
	if err != nil {
		return 0, err
	}
	if !max.Valid {
		return 0, nil
	}
	return max.Int64, nil
}

// Exists reports whether id is already in use in the payments collection.
func (s *IdentifierStore) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM payments WHERE payment_id = $1)`, id,
	).Scan(&exists)
	return exists, err
}
