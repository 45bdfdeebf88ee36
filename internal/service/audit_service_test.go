package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surendharS49/MotoCredit--sub000/internal/domain"
	"github.com/surendharS49/MotoCredit--sub000/internal/testutil"
)

func seedAuditEntries(t *testing.T, repo *testutil.MockAuditLogRepository) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	entries := []*domain.AuditLog{
		{Action: domain.ActionPaymentCreated, EntityType: domain.EntityPayment, EntityID: "PAY-000001", LoanID: "LO-0001", PerformedBy: "priya", PerformedAt: base},
		{Action: domain.ActionPaymentUpdated, EntityType: domain.EntityPayment, EntityID: "PAY-000001", LoanID: "LO-0001", PerformedBy: "priya", PerformedAt: base.Add(time.Hour)},
		{Action: domain.ActionPaymentReverted, EntityType: domain.EntityPayment, EntityID: "PAY-000001", LoanID: "LO-0001", PerformedBy: "arun", PerformedAt: base.Add(2 * time.Hour)},
		{Action: domain.ActionPaymentCreated, EntityType: domain.EntityPayment, EntityID: "PAY-000002", LoanID: "LO-0002", PerformedBy: "priya", PerformedAt: base.Add(3 * time.Hour)},
	}
	for _, entry := range entries {
		_, err := repo.CreateTx(ctx, nil, entry)
		require.NoError(t, err)
	}
}

func TestQueryByLoan_NewestFirst(t *testing.T) {
	repo := testutil.NewMockAuditLogRepository()
	seedAuditEntries(t, repo)
	svc := NewAuditService(repo)

	entries, err := svc.QueryByLoan(context.Background(), "LO-0001")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, domain.ActionPaymentReverted, entries[0].Action)
	assert.Equal(t, domain.ActionPaymentUpdated, entries[1].Action)
	assert.Equal(t, domain.ActionPaymentCreated, entries[2].Action)
}

func TestQueryByLoan_FiltersByAction(t *testing.T) {
	repo := testutil.NewMockAuditLogRepository()
	seedAuditEntries(t, repo)
	svc := NewAuditService(repo)

	entries, err := svc.QueryByLoan(context.Background(), "LO-0001",
		domain.ActionPaymentCreated, domain.ActionPaymentReverted)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ActionPaymentReverted, entries[0].Action)
	assert.Equal(t, domain.ActionPaymentCreated, entries[1].Action)
}

func TestQueryByLoan_EmptyForUnknownLoan(t *testing.T) {
	repo := testutil.NewMockAuditLogRepository()
	seedAuditEntries(t, repo)
	svc := NewAuditService(repo)

	entries, err := svc.QueryByLoan(context.Background(), "LO-0404")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
