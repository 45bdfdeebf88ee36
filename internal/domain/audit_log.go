package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	ActionPaymentCreated  AuditAction = "PAYMENT_CREATED"
	ActionPaymentUpdated  AuditAction = "PAYMENT_UPDATED"
	ActionPaymentReverted AuditAction = "PAYMENT_REVERTED"
)

type AuditEntityType string

const (
	EntityPayment AuditEntityType = "payment"
	EntityLoan    AuditEntityType = "loan"
)

// AuditLog is an append-only record of a balance-affecting action. Entries
// are never mutated or deleted, even after the payment they document is
// tombstoned.
type AuditLog struct {
	ID          uuid.UUID       `json:"id"`
	Action      AuditAction     `json:"action"`
	EntityType  AuditEntityType `json:"entityType"`
	EntityID    string          `json:"entityId"`
	LoanID      string          `json:"loanId"`
	Details     map[string]any  `json:"details,omitempty"`
	PerformedBy string          `json:"performedBy"`
	PerformedAt time.Time       `json:"performedAt"`
}

type AuditLogRepository interface {
	// CreateTx appends the entry inside tx, assigning ID and PerformedAt when
	// zero. Audit rows commit or roll back with the mutation they describe.
	CreateTx(ctx context.Context, tx any, entry *AuditLog) (*AuditLog, error)
	// GetByLoanID returns entries newest first, optionally filtered to a
	// subset of actions. Empty filter means all actions.
	GetByLoanID(ctx context.Context, loanID string, actions []AuditAction) ([]*AuditLog, error)
}
