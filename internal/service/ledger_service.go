package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/surendharS49/MotoCredit--sub000/internal/domain"
	"github.com/surendharS49/MotoCredit--sub000/internal/idgen"
)

// defaultActor is recorded as performedBy when no authenticated principal is
// present.
const defaultActor = "system"

// RecordOutcome tags which branch of RecordPayment executed.
type RecordOutcome string

const (
	RecordCreated RecordOutcome = "created"
	RecordUpdated RecordOutcome = "updated"
)

// RecordPaymentInput carries the caller-supplied payment attributes.
type RecordPaymentInput struct {
	InstallmentNumber int32
	Amount            decimal.Decimal
	PenaltyAmount     decimal.Decimal
	Status            domain.PaymentStatus
	PaidDate          time.Time
	DueDate           time.Time
	PaymentMethod     string
}

// PaymentLedgerService is the sole authority for mutating a loan's payment
// state. Every mutation updates the payment row, the loan's derived fields
// and the audit trail as one transaction, with the loan row locked and a
// per-loan mutex serializing in-process writers.
type PaymentLedgerService struct {
	txm         domain.TxManager
	loanRepo    domain.LoanRepository
	paymentRepo domain.PaymentRepository
	auditRepo   domain.AuditLogRepository
	ids         *idgen.Generator

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPaymentLedgerService creates a new PaymentLedgerService
func NewPaymentLedgerService(txm domain.TxManager, loanRepo domain.LoanRepository, paymentRepo domain.PaymentRepository, auditRepo domain.AuditLogRepository, ids *idgen.Generator) *PaymentLedgerService {
	return &PaymentLedgerService{
		txm:         txm,
		loanRepo:    loanRepo,
		paymentRepo: paymentRepo,
		auditRepo:   auditRepo,
		ids:         ids,
		locks:       make(map[string]*sync.Mutex),
	}
}

// lockLoan serializes ledger writes for one loan within this process.
func (s *PaymentLedgerService) lockLoan(loanID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[loanID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[loanID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// RecordPayment records a payment against an installment. When the
// installment has no live payment a new one is created; otherwise the
// existing payment is overwritten. The returned outcome tags which branch
// ran.
func (s *PaymentLedgerService) RecordPayment(ctx context.Context, loanID string, in RecordPaymentInput, actor string) (*domain.Payment, RecordOutcome, error) {
	if in.InstallmentNumber < 1 {
		return nil, "", domain.ErrPaymentInstallmentInvalid
	}
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, "", domain.ErrPaymentAmountInvalid
	}
	if in.PenaltyAmount.IsNegative() {
		return nil, "", domain.ErrPaymentPenaltyInvalid
	}
	if actor == "" {
		actor = defaultActor
	}
	if in.Status == "" {
		in.Status = domain.PaymentStatusPaid
	}
	if in.PaidDate.IsZero() {
		in.PaidDate = time.Now().UTC()
	}

	unlock := s.lockLoan(loanID)
	defer unlock()

	var (
		payment *domain.Payment
		outcome RecordOutcome
	)
	err := s.txm.WithinTx(ctx, func(tx any) error {
		loan, err := s.loanRepo.GetForUpdateTx(ctx, tx, loanID)
		if err != nil {
			return err
		}
		if loan.Status == domain.LoanStatusClosed {
			return domain.ErrLoanClosed
		}
		if in.InstallmentNumber > loan.TenureInstallments {
			return domain.ErrPaymentInstallmentOutOfRange
		}

		existing, err := s.paymentRepo.GetLiveByLoanAndInstallmentTx(ctx, tx, loanID, in.InstallmentNumber)
		switch {
		case err == nil:
			payment, err = s.overwritePayment(ctx, tx, loan, existing, in, actor)
			outcome = RecordUpdated
			return err
		case errors.Is(err, domain.ErrPaymentNotFound):
			payment, err = s.createPayment(ctx, tx, loan, in, actor)
			outcome = RecordCreated
			return err
		default:
			return err
		}
	})
	if err != nil {
		return nil, "", err
	}

	log.Info().
		Str("loan_id", loanID).
		Str("payment_id", payment.PaymentID).
		Int32("installment", in.InstallmentNumber).
		Str("outcome", string(outcome)).
		Str("actor", actor).
		Msg("Payment recorded")

	return payment, outcome, nil
}

func (s *PaymentLedgerService) createPayment(ctx context.Context, tx any, loan *domain.Loan, in RecordPaymentInput, actor string) (*domain.Payment, error) {
	paymentID, err := s.ids.Next(ctx, idgen.Payment)
	if err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		PaymentID:         paymentID,
		LoanID:            loan.LoanID,
		InstallmentNumber: in.InstallmentNumber,
		Amount:            in.Amount,
		PenaltyAmount:     in.PenaltyAmount,
		Status:            in.Status,
		PaidDate:          in.PaidDate,
		DueDate:           in.DueDate,
		PaymentMethod:     in.PaymentMethod,
	}
	payment.ComputeTotal()

	created, err := s.paymentRepo.CreateTx(ctx, tx, payment)
	if err != nil {
		return nil, err
	}

	if err := s.refreshBalance(ctx, tx, loan); err != nil {
		return nil, err
	}
	loan.AdvanceDueDate()
	loan.Payments = append(loan.Payments, created.PaymentID)
	if err := s.loanRepo.UpdateDerivedTx(ctx, tx, loan); err != nil {
		return nil, err
	}

	_, err = s.auditRepo.CreateTx(ctx, tx, &domain.AuditLog{
		Action:     domain.ActionPaymentCreated,
		EntityType: domain.EntityPayment,
		EntityID:   created.PaymentID,
		LoanID:     loan.LoanID,
		Details: map[string]any{
			"amount":            created.Amount.String(),
			"penaltyAmount":     created.PenaltyAmount.String(),
			"installmentNumber": created.InstallmentNumber,
			"paidDate":          created.PaidDate.Format(time.RFC3339),
		},
		PerformedBy: actor,
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *PaymentLedgerService) overwritePayment(ctx context.Context, tx any, loan *domain.Loan, existing *domain.Payment, in RecordPaymentInput, actor string) (*domain.Payment, error) {
	previousAmount := existing.Amount

	existing.Amount = in.Amount
	existing.PenaltyAmount = in.PenaltyAmount
	existing.Status = in.Status
	existing.PaidDate = in.PaidDate
	existing.DueDate = in.DueDate
	existing.PaymentMethod = in.PaymentMethod
	existing.ComputeTotal()

	updated, err := s.paymentRepo.UpdateTx(ctx, tx, existing)
	if err != nil {
		return nil, err
	}

	// The balance is recomputed as the live sum, never incremented: a blind
	// increment would double-count the re-recorded installment.
	if err := s.refreshBalance(ctx, tx, loan); err != nil {
		return nil, err
	}
	if err := s.loanRepo.UpdateDerivedTx(ctx, tx, loan); err != nil {
		return nil, err
	}

	_, err = s.auditRepo.CreateTx(ctx, tx, &domain.AuditLog{
		Action:     domain.ActionPaymentUpdated,
		EntityType: domain.EntityPayment,
		EntityID:   updated.PaymentID,
		LoanID:     loan.LoanID,
		Details: map[string]any{
			"amount":            updated.Amount.String(),
			"previousAmount":    previousAmount.String(),
			"installmentNumber": updated.InstallmentNumber,
			"paidDate":          updated.PaidDate.Format(time.RFC3339),
		},
		PerformedBy: actor,
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// refreshBalance recomputes the loan's amountPaid from the live payment sum
// inside the transaction.
func (s *PaymentLedgerService) refreshBalance(ctx context.Context, tx any, loan *domain.Loan) error {
	sum, err := s.paymentRepo.SumLiveAmountTx(ctx, tx, loan.LoanID)
	if err != nil {
		return err
	}
	loan.AmountPaid = sum
	return nil
}

// RevertPayment tombstones a payment and restores the loan's balance and
// payment list. The owning loan is located through the payment-list
// containment; a live payment with no discoverable loan is a consistency
// fault, not a plain not-found.
func (s *PaymentLedgerService) RevertPayment(ctx context.Context, paymentID string, reason string, actor string) (*domain.Payment, error) {
	if actor == "" {
		actor = defaultActor
	}

	payment, err := s.paymentRepo.GetByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !payment.Live() {
		return nil, domain.ErrPaymentNotFound
	}

	owner, err := s.loanRepo.GetByPaymentID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			log.Error().
				Str("payment_id", paymentID).
				Str("loan_id", payment.LoanID).
				Msg("Live payment has no owning loan")
			return nil, domain.ErrOrphanedPayment
		}
		return nil, err
	}

	unlock := s.lockLoan(owner.LoanID)
	defer unlock()

	var reverted *domain.Payment
	err = s.txm.WithinTx(ctx, func(tx any) error {
		loan, err := s.loanRepo.GetForUpdateTx(ctx, tx, owner.LoanID)
		if err != nil {
			return err
		}

		payment, err := s.paymentRepo.GetByPaymentID(ctx, paymentID)
		if err != nil {
			return err
		}
		if !payment.Live() {
			return domain.ErrPaymentNotFound
		}

		if err := s.tombstonePayment(ctx, tx, loan, payment, reason, actor); err != nil {
			return err
		}
		reverted = payment

		if err := s.refreshBalance(ctx, tx, loan); err != nil {
			return err
		}
		// Next due date is intentionally not rolled backward.
		return s.loanRepo.UpdateDerivedTx(ctx, tx, loan)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("payment_id", paymentID).
		Str("loan_id", owner.LoanID).
		Str("actor", actor).
		Msg("Payment reverted")

	return reverted, nil
}

// tombstonePayment marks one payment reverted, removes it from the loan's
// list and appends the audit entry. Callers refresh the balance afterwards.
func (s *PaymentLedgerService) tombstonePayment(ctx context.Context, tx any, loan *domain.Loan, payment *domain.Payment, reason string, actor string) error {
	payment.Status = domain.PaymentStatusReverted
	if _, err := s.paymentRepo.UpdateTx(ctx, tx, payment); err != nil {
		return err
	}
	loan.RemovePayment(payment.PaymentID)

	details := map[string]any{
		"amount":              payment.Amount.String(),
		"installmentNumber":   payment.InstallmentNumber,
		"originalPaymentDate": payment.PaidDate.Format(time.RFC3339),
	}
	if reason != "" {
		details["reason"] = reason
	}

	_, err := s.auditRepo.CreateTx(ctx, tx, &domain.AuditLog{
		Action:      domain.ActionPaymentReverted,
		EntityType:  domain.EntityPayment,
		EntityID:    payment.PaymentID,
		LoanID:      loan.LoanID,
		Details:     details,
		PerformedBy: actor,
	})
	return err
}

// ClearAllPayments tombstones every live payment for a loan, zeroes the
// balance and empties the payment list, appending one audit entry per
// cleared payment.
func (s *PaymentLedgerService) ClearAllPayments(ctx context.Context, loanID string, actor string) error {
	if actor == "" {
		actor = defaultActor
	}

	unlock := s.lockLoan(loanID)
	defer unlock()

	var cleared int
	err := s.txm.WithinTx(ctx, func(tx any) error {
		loan, err := s.loanRepo.GetForUpdateTx(ctx, tx, loanID)
		if err != nil {
			return err
		}

		live, err := s.paymentRepo.GetLiveByLoanIDTx(ctx, tx, loanID)
		if err != nil {
			return err
		}

		for _, payment := range live {
			if err := s.tombstonePayment(ctx, tx, loan, payment, "bulk clear", actor); err != nil {
				return err
			}
		}
		cleared = len(live)

		loan.AmountPaid = decimal.Zero
		loan.Payments = []string{}
		return s.loanRepo.UpdateDerivedTx(ctx, tx, loan)
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("loan_id", loanID).
		Int("cleared", cleared).
		Str("actor", actor).
		Msg("All payments cleared")

	return nil
}

// GetPayment returns the live payment for an installment, or nil when the
// installment has none.
func (s *PaymentLedgerService) GetPayment(ctx context.Context, loanID string, installment int32) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetLiveByLoanAndInstallment(ctx, loanID, installment)
	if errors.Is(err, domain.ErrPaymentNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// ListPayments returns the live payments for a loan, empty when none.
func (s *PaymentLedgerService) ListPayments(ctx context.Context, loanID string) ([]*domain.Payment, error) {
	return s.paymentRepo.GetLiveByLoanID(ctx, loanID)
}

// ListAll returns every payment across all loans, tombstones included.
func (s *PaymentLedgerService) ListAll(ctx context.Context) ([]*domain.Payment, error) {
	return s.paymentRepo.GetAll(ctx)
}
