package service

import (
	"context"

	"github.com/surendharS49/MotoCredit--sub000/internal/domain"
)

// AuditService exposes read-only projections over the audit trail. Appends
// happen only inside ledger transactions; no update or delete exists.
type AuditService struct {
	auditRepo domain.AuditLogRepository
}

// NewAuditService creates a new AuditService
func NewAuditService(auditRepo domain.AuditLogRepository) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

// QueryByLoan returns a loan's audit entries newest first, optionally
// restricted to a subset of action kinds.
func (s *AuditService) QueryByLoan(ctx context.Context, loanID string, actions ...domain.AuditAction) ([]*domain.AuditLog, error) {
	return s.auditRepo.GetByLoanID(ctx, loanID, actions)
}
