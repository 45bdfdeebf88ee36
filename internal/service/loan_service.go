package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/surendharS49/MotoCredit--sub000/internal/domain"
	"github.com/surendharS49/MotoCredit--sub000/internal/idgen"
)

// maxIDAttempts bounds retries when a concurrently generated loan ID loses
// the insert race.
const maxIDAttempts = 5

// CreateLoanInput carries loan origination attributes.
type CreateLoanInput struct {
	CustomerID         string
	VehicleID          string
	Principal          decimal.Decimal
	InterestRate       decimal.Decimal
	TenureInstallments int32
	InstallmentAmount  decimal.Decimal
	PaymentFrequency   domain.PaymentFrequency
	FirstDueDate       time.Time
}

// LoanService handles loan origination, reads and the manual closure
// transition. Derived payment fields belong to the payment ledger.
type LoanService struct {
	txm      domain.TxManager
	loanRepo domain.LoanRepository
	ids      *idgen.Generator
}

// NewLoanService creates a new LoanService
func NewLoanService(txm domain.TxManager, loanRepo domain.LoanRepository, ids *idgen.Generator) *LoanService {
	return &LoanService{txm: txm, loanRepo: loanRepo, ids: ids}
}

// CreateLoan originates a loan with a sequential identifier. Losing the
// insert race against a concurrent originator surfaces as
// domain.ErrLoanAlreadyExists, and the next sequence number is tried.
func (s *LoanService) CreateLoan(ctx context.Context, in CreateLoanInput) (*domain.Loan, error) {
	loan := &domain.Loan{
		CustomerID:         in.CustomerID,
		VehicleID:          in.VehicleID,
		Principal:          in.Principal,
		InterestRate:       in.InterestRate,
		TenureInstallments: in.TenureInstallments,
		InstallmentAmount:  in.InstallmentAmount,
		PaymentFrequency:   in.PaymentFrequency,
		AmountPaid:         decimal.Zero,
		NextDueDate:        in.FirstDueDate,
		Status:             domain.LoanStatusPending,
		Payments:           []string{},
	}
	if err := loan.Validate(); err != nil {
		return nil, err
	}
	if loan.NextDueDate.IsZero() {
		loan.NextDueDate = time.Now().UTC().AddDate(0, loan.PaymentFrequency.Months(), 0)
	}

	var lastErr error
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		loanID, err := s.ids.Next(ctx, idgen.Loan)
		if err != nil {
			return nil, err
		}
		loan.LoanID = loanID

		created, err := s.loanRepo.Create(ctx, loan)
		if err == nil {
			log.Info().Str("loan_id", created.LoanID).Str("customer_id", created.CustomerID).Msg("Loan created")
			return created, nil
		}
		if !errors.Is(err, domain.ErrLoanAlreadyExists) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// GetLoan retrieves a loan by its ID
func (s *LoanService) GetLoan(ctx context.Context, loanID string) (*domain.Loan, error) {
	return s.loanRepo.GetByLoanID(ctx, loanID)
}

// ListLoans retrieves all loans
func (s *LoanService) ListLoans(ctx context.Context) ([]*domain.Loan, error) {
	return s.loanRepo.GetAll(ctx)
}

// CloseLoan performs the manual Pending to Closed transition. It is allowed
// only once every installment of the tenure has a live payment; closure is
// never automatic.
func (s *LoanService) CloseLoan(ctx context.Context, loanID string) (*domain.Loan, error) {
	var closed *domain.Loan
	err := s.txm.WithinTx(ctx, func(tx any) error {
		loan, err := s.loanRepo.GetForUpdateTx(ctx, tx, loanID)
		if err != nil {
			return err
		}
		if loan.Status == domain.LoanStatusClosed {
			return domain.ErrLoanClosed
		}
		if !loan.ScheduleComplete() {
			return domain.ErrScheduleIncomplete
		}

		loan.Status = domain.LoanStatusClosed
		if err := s.loanRepo.UpdateDerivedTx(ctx, tx, loan); err != nil {
			return err
		}
		closed = loan
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("loan_id", loanID).Msg("Loan closed")
	return closed, nil
}
