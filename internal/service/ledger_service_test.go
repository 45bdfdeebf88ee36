package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surendharS49/MotoCredit--sub000/internal/domain"
	"github.com/surendharS49/MotoCredit--sub000/internal/idgen"
	"github.com/surendharS49/MotoCredit--sub000/internal/testutil"
)

type ledgerFixture struct {
	svc         *PaymentLedgerService
	loanRepo    *testutil.MockLoanRepository
	paymentRepo *testutil.MockPaymentRepository
	auditRepo   *testutil.MockAuditLogRepository
}

func newLedgerFixture() *ledgerFixture {
	loanRepo := testutil.NewMockLoanRepository()
	paymentRepo := testutil.NewMockPaymentRepository()
	auditRepo := testutil.NewMockAuditLogRepository()
	ids := idgen.New(testutil.NewMockIdentifierStore())
	svc := NewPaymentLedgerService(testutil.NewMockTxManager(), loanRepo, paymentRepo, auditRepo, ids)
	return &ledgerFixture{svc: svc, loanRepo: loanRepo, paymentRepo: paymentRepo, auditRepo: auditRepo}
}

func (f *ledgerFixture) addLoan(loanID string, tenure int32) *domain.Loan {
	loan := &domain.Loan{
		LoanID:             loanID,
		CustomerID:         "CU-0001",
		Principal:          decimal.NewFromInt(3000),
		InterestRate:       decimal.NewFromFloat(9.5),
		TenureInstallments: tenure,
		InstallmentAmount:  decimal.NewFromInt(1000),
		PaymentFrequency:   domain.FrequencyMonthly,
		AmountPaid:         decimal.Zero,
		NextDueDate:        time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Status:             domain.LoanStatusPending,
		Payments:           []string{},
	}
	f.loanRepo.AddLoan(loan)
	return loan
}

func record(t *testing.T, f *ledgerFixture, loanID string, installment int32, amount int64) *domain.Payment {
	t.Helper()
	payment, outcome, err := f.svc.RecordPayment(context.Background(), loanID, RecordPaymentInput{
		InstallmentNumber: installment,
		Amount:            decimal.NewFromInt(amount),
		PaymentMethod:     "UPI",
	}, "tester")
	require.NoError(t, err)
	require.Equal(t, RecordCreated, outcome)
	return payment
}

func TestRecordPayment_CreatesFirstInstallment(t *testing.T) {
	f := newLedgerFixture()
	f.addLoan("LO-0001", 3)

	payment, outcome, err := f.svc.RecordPayment(context.Background(), "LO-0001", RecordPaymentInput{
		InstallmentNumber: 1,
		Amount:            decimal.NewFromInt(1000),
		PenaltyAmount:     decimal.NewFromInt(50),
		PaymentMethod:     "Cash",
	}, "tester")
	require.NoError(t, err)

	assert.Equal(t, RecordCreated, outcome)
	assert.Equal(t, "LO-0001", payment.LoanID)
	assert.True(t, payment.TotalAmount.Equal(decimal.NewFromInt(1050)))
	assert.Equal(t, domain.PaymentStatusPaid, payment.Status)

	loan := f.loanRepo.Loans["LO-0001"]
	assert.True(t, loan.AmountPaid.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, []string{payment.PaymentID}, loan.Payments)
	// Monthly loan: due date advanced by one month.
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), loan.NextDueDate)

	created := f.auditRepo.ByAction(domain.ActionPaymentCreated)
	require.Len(t, created, 1)
	assert.Equal(t, payment.PaymentID, created[0].EntityID)
	assert.Equal(t, "tester", created[0].PerformedBy)
	assert.Equal(t, "1000", created[0].Details["amount"])
}

func TestRecordPayment_ScenarioA_TwoInstallments(t *testing.T) {
	f := newLedgerFixture()
	f.addLoan("LO-0001", 3)

	p1 := record(t, f, "LO-0001", 1, 1000)
	loan := f.loanRepo.Loans["LO-0001"]
	assert.True(t, loan.AmountPaid.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, []string{p1.PaymentID}, loan.Payments)

	p2 := record(t, f, "LO-0001", 2, 1000)
	assert.True(t, loan.AmountPaid.Equal(decimal.NewFromInt(2000)))
	assert.Equal(t, []string{p1.PaymentID, p2.PaymentID}, loan.Payments)
}

func TestRecordPayment_ScenarioC_ExistingInstallmentUpdates(t *testing.T) {
	f := newLedgerFixture()
	f.addLoan("LO-0001", 3)

	record(t, f, "LO-0001", 1, 1000)
	p2 := record(t, f, "LO-0001", 2, 1000)
	dueAfterCreates := f.loanRepo.Loans["LO-0001"].NextDueDate

	updated, outcome, err := f.svc.RecordPayment(context.Background(), "LO-0001", RecordPaymentInput{
		InstallmentNumber: 2,
		Amount:            decimal.NewFromInt(1500),
		PaymentMethod:     "Card",
	}, "tester")
	require.NoError(t, err)

	assert.Equal(t, RecordUpdated, outcome)
	assert.Equal(t, p2.PaymentID, updated.PaymentID, "re-record must not create a second row")

	live, err := f.paymentRepo.GetLiveByLoanID(context.Background(), "LO-0001")
	require.NoError(t, err)
	assert.Len(t, live, 2)

	loan := f.loanRepo.Loans["LO-0001"]
	// Balance recomputed from the live sum, not incremented by 1500.
	assert.True(t, loan.AmountPaid.Equal(decimal.NewFromInt(2500)))
	assert.Len(t, loan.Payments, 2)
	// Updates do not advance the due date again.
	assert.Equal(t, dueAfterCreates, loan.NextDueDate)

	updatedEntries := f.auditRepo.ByAction(domain.ActionPaymentUpdated)
	require.Len(t, updatedEntries, 1)
	assert.Equal(t, "1500", updatedEntries[0].Details["amount"])
	assert.Equal(t, "1000", updatedEntries[0].Details["previousAmount"])
}

func TestRecordPayment_ValidationRejectsBeforeMutation(t *testing.T) {
	f := newLedgerFixture()
	f.addLoan("LO-0001", 3)

	cases := []struct {
		name string
		in   RecordPaymentInput
		want error
	}{
		{"zero installment", RecordPaymentInput{InstallmentNumber: 0, Amount: decimal.NewFromInt(100)}, domain.ErrPaymentInstallmentInvalid},
		{"negative installment", RecordPaymentInput{InstallmentNumber: -2, Amount: decimal.NewFromInt(100)}, domain.ErrPaymentInstallmentInvalid},
		{"zero amount", RecordPaymentInput{InstallmentNumber: 1, Amount: decimal.Zero}, domain.ErrPaymentAmountInvalid},
		{"negative penalty", RecordPaymentInput{InstallmentNumber: 1, Amount: decimal.NewFromInt(100), PenaltyAmount: decimal.NewFromInt(-5)}, domain.ErrPaymentPenaltyInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := f.svc.RecordPayment(context.Background(), "LO-0001", tc.in, "tester")
			assert.ErrorIs(t, err, tc.want)
		})
	}

	// Rejected before any mutation: no payments, no audit entries.
	assert.Empty(t, f.paymentRepo.Payments)
	assert.Empty(t, f.auditRepo.Entries)
}

func TestRecordPayment_LoanNotFound(t *testing.T) {
	f := newLedgerFixture()

	_, _, err := f.svc.RecordPayment(context.Background(), "LO-0404", RecordPaymentInput{
		InstallmentNumber: 1,
		Amount:            decimal.NewFromInt(1000),
	}, "tester")
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)
}

func TestRecordPayment_InstallmentBeyondTenure(t *testing.T) {
	f := newLedgerFixture()
	f.addLoan("LO-0001", 3)

	_, _, err := f.svc.RecordPayment(context.Background(), "LO-0001", RecordPaymentInput{
		InstallmentNumber: 4,
		Amount:            decimal.NewFromInt(1000),
	}, "tester")
	assert.ErrorIs(t, err, domain.ErrPaymentInstallmentOutOfRange)
}

func TestRecordPayment_ClosedLoanRejected(t *testing.T) {
	f := newLedgerFixture()
	loan := f.addLoan("LO-0001", 3)
	loan.Status = domain.LoanStatusClosed

	_, _, err := f.svc.RecordPayment(context.Background(), "LO-0001", RecordPaymentInput{
		InstallmentNumber: 1,
		Amount:            decimal.NewFromInt(1000),
	}, "tester")
	assert.ErrorIs(t, err, domain.ErrLoanClosed)
}

func TestRecordPayment_DefaultsActorToSystem(t *testing.T) {
	f := newLedgerFixture()
	f.addLoan("LO-0001", 3)

	_, _, err := f.svc.RecordPayment(context.Background(), "LO-0001", RecordPaymentInput{
		InstallmentNumber: 1,
		Amount:            decimal.NewFromInt(1000),
	}, "")
	require.NoError(t, err)

	require.Len(t, f.auditRepo.Entries, 1)
	assert.Equal(t, "system", f.auditRepo.Entries[0].PerformedBy)
}

func TestRecordPayment_QuarterlyAdvancesThreeMonths(t *testing.T) {
	f := newLedgerFixture()
	loan := f.addLoan("LO-0001", 3)
	loan.PaymentFrequency = domain.FrequencyQuarterly

	record(t, f, "LO-0001", 1, 1000)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), loan.NextDueDate)
}

func TestRecordPayment_NoAuditEntryWhenLoanUpdateFails(t *testing.T) {
	f := newLedgerFixture()
	f.addLoan("LO-0001", 3)

	boom := errors.New("write failed")
	f.loanRepo.UpdateDerivedFn = func(loan *domain.Loan) error { return boom }

	_, _, err := f.svc.RecordPayment(context.Background(), "LO-0001", RecordPaymentInput{
		InstallmentNumber: 1,
		Amount:            decimal.NewFromInt(1000),
	}, "tester")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, f.auditRepo.Entries, "no audit entry may describe a mutation that did not commit")
}

func TestRevertPayment_ScenarioB(t *testing.T) {
	f := newLedgerFixture()
	f.addLoan("LO-0001", 3)

	p1 := record(t, f, "LO-0001", 1, 1000)
	p2 := record(t, f, "LO-0001", 2, 1000)
	auditBefore := len(f.auditRepo.Entries)

	tombstone, err := f.svc.RevertPayment(context.Background(), p1.PaymentID, "entered against wrong loan", "tester")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusReverted, tombstone.Status)

	loan := f.loanRepo.Loans["LO-0001"]
	assert.True(t, loan.AmountPaid.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, []string{p2.PaymentID}, loan.Payments)

	// The row is tombstoned, not destroyed.
	stored := f.paymentRepo.Payments[p1.PaymentID]
	require.NotNil(t, stored)
	assert.Equal(t, domain.PaymentStatusReverted, stored.Status)

	assert.Len(t, f.auditRepo.Entries, auditBefore+1)
	reverted := f.auditRepo.ByAction(domain.ActionPaymentReverted)
	require.Len(t, reverted, 1)
	assert.Equal(t, "1000", reverted[0].Details["amount"])
	assert.Equal(t, "entered against wrong loan", reverted[0].Details["reason"])
}

func TestRevertPayment_RoundTripRestoresState(t *testing.T) {
	f := newLedgerFixture()
	f.addLoan("LO-0001", 3)
	record(t, f, "LO-0001", 1, 1000)

	loan := f.loanRepo.Loans["LO-0001"]
	amountBefore := loan.AmountPaid
	paymentsBefore := append([]string{}, loan.Payments...)
	dueBefore := loan.NextDueDate

	p2 := record(t, f, "LO-0001", 2, 750)
	_, err := f.svc.RevertPayment(context.Background(), p2.PaymentID, "", "tester")
	require.NoError(t, err)

	assert.True(t, loan.AmountPaid.Equal(amountBefore))
	assert.Equal(t, paymentsBefore, loan.Payments)
	// The due date stays where recording moved it; reverts do not roll it back.
	assert.Equal(t, dueBefore.AddDate(0, 1, 0), loan.NextDueDate)
}

func TestRevertPayment_NotFound(t *testing.T) {
	f := newLedgerFixture()
	_, err := f.svc.RevertPayment(context.Background(), "PAY-000404", "", "tester")
	assert.ErrorIs(t, err, domain.ErrPaymentNotFound)
}

func TestRevertPayment_AlreadyReverted(t *testing.T) {
	f := newLedgerFixture()
	f.addLoan("LO-0001", 3)
	p1 := record(t, f, "LO-0001", 1, 1000)

	_, err := f.svc.RevertPayment(context.Background(), p1.PaymentID, "", "tester")
	require.NoError(t, err)
	_, err = f.svc.RevertPayment(context.Background(), p1.PaymentID, "", "tester")
	assert.ErrorIs(t, err, domain.ErrPaymentNotFound)
}

func TestRevertPayment_OrphanedPaymentIsConsistencyFault(t *testing.T) {
	f := newLedgerFixture()

	// A live payment referencing a loan no payment list contains.
	f.paymentRepo.AddPayment(&domain.Payment{
		PaymentID:         "PAY-000123",
		LoanID:            "LO-0999",
		InstallmentNumber: 1,
		Amount:            decimal.NewFromInt(500),
		Status:            domain.PaymentStatusPaid,
	})

	_, err := f.svc.RevertPayment(context.Background(), "PAY-000123", "", "tester")
	assert.ErrorIs(t, err, domain.ErrOrphanedPayment)
	assert.NotErrorIs(t, err, domain.ErrPaymentNotFound)
}

func TestClearAllPayments_ScenarioE(t *testing.T) {
	f := newLedgerFixture()
	f.addLoan("LO-0001", 3)

	// Prior revert/recreate cycle, then a fresh recording.
	p1 := record(t, f, "LO-0001", 1, 1000)
	_, err := f.svc.RevertPayment(context.Background(), p1.PaymentID, "", "tester")
	require.NoError(t, err)
	payment, outcome, err := f.svc.RecordPayment(context.Background(), "LO-0001", RecordPaymentInput{
		InstallmentNumber: 1,
		Amount:            decimal.NewFromInt(1000),
	}, "tester")
	require.NoError(t, err)
	require.Equal(t, RecordCreated, outcome)
	require.NotEqual(t, p1.PaymentID, payment.PaymentID)
	record(t, f, "LO-0001", 2, 1000)

	err = f.svc.ClearAllPayments(context.Background(), "LO-0001", "tester")
	require.NoError(t, err)

	loan := f.loanRepo.Loans["LO-0001"]
	assert.True(t, loan.AmountPaid.IsZero())
	assert.Empty(t, loan.Payments)

	live, err := f.paymentRepo.GetLiveByLoanID(context.Background(), "LO-0001")
	require.NoError(t, err)
	assert.Empty(t, live)

	// One revert entry from the earlier single revert plus one per cleared
	// payment.
	assert.Len(t, f.auditRepo.ByAction(domain.ActionPaymentReverted), 3)
}

func TestClearAllPayments_LoanNotFound(t *testing.T) {
	f := newLedgerFixture()
	err := f.svc.ClearAllPayments(context.Background(), "LO-0404", "tester")
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)
}

func TestAmountPaidInvariant_AfterMixedSequence(t *testing.T) {
	f := newLedgerFixture()
	f.addLoan("LO-0001", 5)
	ctx := context.Background()

	record(t, f, "LO-0001", 1, 1000)
	p2 := record(t, f, "LO-0001", 2, 900)
	record(t, f, "LO-0001", 3, 1100)
	_, err := f.svc.RevertPayment(ctx, p2.PaymentID, "", "tester")
	require.NoError(t, err)
	_, _, err = f.svc.RecordPayment(ctx, "LO-0001", RecordPaymentInput{
		InstallmentNumber: 3,
		Amount:            decimal.NewFromInt(1000),
	}, "tester")
	require.NoError(t, err)

	sum, err := f.paymentRepo.SumLiveAmountTx(ctx, nil, "LO-0001")
	require.NoError(t, err)
	loan := f.loanRepo.Loans["LO-0001"]
	assert.True(t, loan.AmountPaid.Equal(sum), "amountPaid must equal the live payment sum")
	assert.True(t, loan.AmountPaid.Equal(decimal.NewFromInt(2000)))
}

func TestGetPayment_EmptyResultWhenMissing(t *testing.T) {
	f := newLedgerFixture()
	f.addLoan("LO-0001", 3)

	payment, err := f.svc.GetPayment(context.Background(), "LO-0001", 1)
	require.NoError(t, err)
	assert.Nil(t, payment)
}

func TestListPayments_EmptyResultWhenNoneMatch(t *testing.T) {
	f := newLedgerFixture()

	payments, err := f.svc.ListPayments(context.Background(), "LO-0404")
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestListPayments_ExcludesTombstones(t *testing.T) {
	f := newLedgerFixture()
	f.addLoan("LO-0001", 3)
	p1 := record(t, f, "LO-0001", 1, 1000)
	p2 := record(t, f, "LO-0001", 2, 1000)
	_, err := f.svc.RevertPayment(context.Background(), p1.PaymentID, "", "tester")
	require.NoError(t, err)

	live, err := f.svc.ListPayments(context.Background(), "LO-0001")
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, p2.PaymentID, live[0].PaymentID)

	// The tombstone remains visible in the unfiltered listing.
	all, err := f.svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
