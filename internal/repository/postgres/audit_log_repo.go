package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/surendharS49/MotoCredit--sub000/internal/domain"
)

// AuditLogRepository implements domain.AuditLogRepository using PostgreSQL.
// The table is append-only: no update or delete statement exists here.
type AuditLogRepository struct {
	pool *pgxpool.Pool
}

// NewAuditLogRepository creates a new AuditLogRepository
func NewAuditLogRepository(pool *pgxpool.Pool) *AuditLogRepository {
	return &AuditLogRepository{pool: pool}
}

// CreateTx appends an entry inside tx, assigning ID and PerformedAt when zero
func (r *AuditLogRepository) CreateTx(ctx context.Context, tx any, entry *domain.AuditLog) (*domain.AuditLog, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.PerformedAt.IsZero() {
		entry.PerformedAt = time.Now().UTC()
	}

	_, err = pgxTx.Exec(ctx, `
		INSERT INTO audit_logs (id, action, entity_type, entity_id, loan_id, details, performed_by, performed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, string(entry.Action), string(entry.EntityType), entry.EntityID,
		entry.LoanID, entry.Details, entry.PerformedBy, entry.PerformedAt,
	)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// GetByLoanID returns entries for a loan newest first, optionally filtered by
// action kinds
func (r *AuditLogRepository) GetByLoanID(ctx context.Context, loanID string, actions []domain.AuditAction) ([]*domain.AuditLog, error) {
	var filter []string
	for _, a := range actions {
		filter = append(filter, string(a))
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, action, entity_type, entity_id, loan_id, details, performed_by, performed_at
		FROM audit_logs
		WHERE loan_id = $1 AND ($2::text[] IS NULL OR action = ANY($2))
		ORDER BY performed_at DESC`,
		loanID, filter,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*domain.AuditLog{}
	for rows.Next() {
		var (
			entry      domain.AuditLog
			action     string
			entityType string
		)
		err := rows.Scan(&entry.ID, &action, &entityType, &entry.EntityID,
			&entry.LoanID, &entry.Details, &entry.PerformedBy, &entry.PerformedAt)
		if err != nil {
			return nil, err
		}
		entry.Action = domain.AuditAction(action)
		entry.EntityType = domain.AuditEntityType(entityType)
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
