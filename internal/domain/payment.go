package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrPaymentNotFound           = errors.New("payment not found")
	ErrPaymentInstallmentInvalid = errors.New("installment number must be at least 1")
	ErrPaymentInstallmentOutOfRange = errors.New("installment number exceeds loan tenure")
	ErrPaymentAmountInvalid      = errors.New("payment amount must be positive")
	ErrPaymentPenaltyInvalid     = errors.New("penalty amount cannot be negative")
	// ErrOrphanedPayment signals a live payment whose owning loan cannot be
	// found: prior data corruption, not a plain not-found.
	ErrOrphanedPayment = errors.New("payment has no owning loan")
)

type PaymentStatus string

const (
	PaymentStatusPaid PaymentStatus = "Paid"
	PaymentStatusLate PaymentStatus = "Late"
	// PaymentStatusReverted marks a tombstoned payment. The row is retained so
	// the audit trail is never the sole record of a reverted installment.
	PaymentStatusReverted PaymentStatus = "Reverted"
)

// Payment is one recorded installment against a loan's schedule.
type Payment struct {
	PaymentID         string          `json:"paymentId"`
	LoanID            string          `json:"loanId"`
	InstallmentNumber int32           `json:"installmentNumber"`
	Amount            decimal.Decimal `json:"amount"`
	PenaltyAmount     decimal.Decimal `json:"penaltyAmount"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	Status            PaymentStatus   `json:"status"`
	PaidDate          time.Time       `json:"paidDate"`
	DueDate           time.Time       `json:"dueDate"`
	PaymentMethod     string          `json:"paymentMethod"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// Live reports whether the payment still counts toward the loan balance.
func (p *Payment) Live() bool {
	return p.Status != PaymentStatusReverted
}

// ComputeTotal refreshes TotalAmount from amount plus penalty.
func (p *Payment) ComputeTotal() {
	p.TotalAmount = p.Amount.Add(p.PenaltyAmount)
}

func (p *Payment) Validate() error {
	if p.InstallmentNumber < 1 {
		return ErrPaymentInstallmentInvalid
	}
	if p.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrPaymentAmountInvalid
	}
	if p.PenaltyAmount.IsNegative() {
		return ErrPaymentPenaltyInvalid
	}
	return nil
}

type PaymentRepository interface {
	CreateTx(ctx context.Context, tx any, payment *Payment) (*Payment, error)
	UpdateTx(ctx context.Context, tx any, payment *Payment) (*Payment, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*Payment, error)
	// GetLiveByLoanAndInstallment returns ErrPaymentNotFound when the
	// installment has no live payment.
	GetLiveByLoanAndInstallment(ctx context.Context, loanID string, installment int32) (*Payment, error)
	GetLiveByLoanAndInstallmentTx(ctx context.Context, tx any, loanID string, installment int32) (*Payment, error)
	GetLiveByLoanID(ctx context.Context, loanID string) ([]*Payment, error)
	GetLiveByLoanIDTx(ctx context.Context, tx any, loanID string) ([]*Payment, error)
	GetAll(ctx context.Context) ([]*Payment, error)
	// SumLiveAmountTx computes the live-amount sum for a loan inside tx. The
	// ledger recomputes the loan balance from this instead of incrementing.
	SumLiveAmountTx(ctx context.Context, tx any, loanID string) (decimal.Decimal, error)
}
