package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surendharS49/MotoCredit--sub000/internal/domain"
	"github.com/surendharS49/MotoCredit--sub000/internal/idgen"
	"github.com/surendharS49/MotoCredit--sub000/internal/testutil"
)

func validLoanInput() CreateLoanInput {
	return CreateLoanInput{
		CustomerID:         "CU-0001",
		VehicleID:          "VH-0001",
		Principal:          decimal.NewFromInt(50000),
		InterestRate:       decimal.NewFromFloat(11.25),
		TenureInstallments: 12,
		InstallmentAmount:  decimal.NewFromInt(4500),
		PaymentFrequency:   domain.FrequencyMonthly,
		FirstDueDate:       time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newLoanService(loanRepo *testutil.MockLoanRepository, store *testutil.MockIdentifierStore) *LoanService {
	return NewLoanService(testutil.NewMockTxManager(), loanRepo, idgen.New(store))
}

func TestCreateLoan_AssignsSequentialID(t *testing.T) {
	loanRepo := testutil.NewMockLoanRepository()
	svc := newLoanService(loanRepo, testutil.NewMockIdentifierStore())

	loan, err := svc.CreateLoan(context.Background(), validLoanInput())
	require.NoError(t, err)

	assert.Equal(t, "LO-0001", loan.LoanID)
	assert.Equal(t, domain.LoanStatusPending, loan.Status)
	assert.True(t, loan.AmountPaid.IsZero())
	assert.Empty(t, loan.Payments)
}

func TestCreateLoan_ContinuesFromHighestSequence(t *testing.T) {
	loanRepo := testutil.NewMockLoanRepository()
	store := testutil.NewMockIdentifierStore()
	store.MaxByPrefix["LO"] = 41
	svc := newLoanService(loanRepo, store)

	loan, err := svc.CreateLoan(context.Background(), validLoanInput())
	require.NoError(t, err)
	assert.Equal(t, "LO-0042", loan.LoanID)
}

func TestCreateLoan_RetriesAfterLosingInsertRace(t *testing.T) {
	loanRepo := testutil.NewMockLoanRepository()
	store := testutil.NewMockIdentifierStore()
	svc := newLoanService(loanRepo, store)

	// A concurrent originator commits LO-0001 between our sequence read and
	// our insert. The retry re-reads the sequence and lands on LO-0002.
	attempts := 0
	loanRepo.CreateFn = func(loan *domain.Loan) (*domain.Loan, error) {
		attempts++
		if attempts == 1 {
			store.MaxByPrefix["LO"] = 1
			return nil, domain.ErrLoanAlreadyExists
		}
		loanRepo.CreateFn = nil
		return loanRepo.Create(context.Background(), loan)
	}

	loan, err := svc.CreateLoan(context.Background(), validLoanInput())
	require.NoError(t, err)
	assert.Equal(t, "LO-0002", loan.LoanID)
	assert.Equal(t, 2, attempts)
}

func TestCreateLoan_GivesUpAfterBoundedAttempts(t *testing.T) {
	loanRepo := testutil.NewMockLoanRepository()
	svc := newLoanService(loanRepo, testutil.NewMockIdentifierStore())

	attempts := 0
	loanRepo.CreateFn = func(loan *domain.Loan) (*domain.Loan, error) {
		attempts++
		return nil, domain.ErrLoanAlreadyExists
	}

	_, err := svc.CreateLoan(context.Background(), validLoanInput())
	assert.ErrorIs(t, err, domain.ErrLoanAlreadyExists)
	assert.Equal(t, maxIDAttempts, attempts)
}

func TestCreateLoan_Validation(t *testing.T) {
	svc := newLoanService(testutil.NewMockLoanRepository(), testutil.NewMockIdentifierStore())

	cases := []struct {
		name   string
		mutate func(in *CreateLoanInput)
		want   error
	}{
		{"missing customer", func(in *CreateLoanInput) { in.CustomerID = "" }, domain.ErrLoanCustomerRequired},
		{"zero principal", func(in *CreateLoanInput) { in.Principal = decimal.Zero }, domain.ErrLoanPrincipalInvalid},
		{"zero tenure", func(in *CreateLoanInput) { in.TenureInstallments = 0 }, domain.ErrLoanTenureInvalid},
		{"zero installment amount", func(in *CreateLoanInput) { in.InstallmentAmount = decimal.Zero }, domain.ErrLoanInstallmentInvalid},
		{"bad frequency", func(in *CreateLoanInput) { in.PaymentFrequency = "Weekly" }, domain.ErrLoanFrequencyInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validLoanInput()
			tc.mutate(&in)
			_, err := svc.CreateLoan(context.Background(), in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateLoan_DefaultsFirstDueDate(t *testing.T) {
	svc := newLoanService(testutil.NewMockLoanRepository(), testutil.NewMockIdentifierStore())

	in := validLoanInput()
	in.FirstDueDate = time.Time{}
	loan, err := svc.CreateLoan(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, loan.NextDueDate.IsZero())
}

func TestGetLoan_NotFound(t *testing.T) {
	svc := newLoanService(testutil.NewMockLoanRepository(), testutil.NewMockIdentifierStore())

	_, err := svc.GetLoan(context.Background(), "LO-0404")
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)
}

func TestCloseLoan_RequiresCompleteSchedule(t *testing.T) {
	loanRepo := testutil.NewMockLoanRepository()
	loanRepo.AddLoan(&domain.Loan{
		LoanID:             "LO-0001",
		CustomerID:         "CU-0001",
		TenureInstallments: 3,
		Status:             domain.LoanStatusPending,
		Payments:           []string{"PAY-000001", "PAY-000002"},
	})
	svc := newLoanService(loanRepo, testutil.NewMockIdentifierStore())

	_, err := svc.CloseLoan(context.Background(), "LO-0001")
	assert.ErrorIs(t, err, domain.ErrScheduleIncomplete)
	assert.Equal(t, domain.LoanStatusPending, loanRepo.Loans["LO-0001"].Status)
}

func TestCloseLoan_TransitionsWhenScheduleComplete(t *testing.T) {
	loanRepo := testutil.NewMockLoanRepository()
	loanRepo.AddLoan(&domain.Loan{
		LoanID:             "LO-0001",
		CustomerID:         "CU-0001",
		TenureInstallments: 2,
		Status:             domain.LoanStatusPending,
		Payments:           []string{"PAY-000001", "PAY-000002"},
	})
	svc := newLoanService(loanRepo, testutil.NewMockIdentifierStore())

	closed, err := svc.CloseLoan(context.Background(), "LO-0001")
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusClosed, closed.Status)
	assert.Equal(t, domain.LoanStatusClosed, loanRepo.Loans["LO-0001"].Status)
}

func TestCloseLoan_AlreadyClosed(t *testing.T) {
	loanRepo := testutil.NewMockLoanRepository()
	loanRepo.AddLoan(&domain.Loan{
		LoanID:             "LO-0001",
		CustomerID:         "CU-0001",
		TenureInstallments: 1,
		Status:             domain.LoanStatusClosed,
		Payments:           []string{"PAY-000001"},
	})
	svc := newLoanService(loanRepo, testutil.NewMockIdentifierStore())

	_, err := svc.CloseLoan(context.Background(), "LO-0001")
	assert.ErrorIs(t, err, domain.ErrLoanClosed)
}
