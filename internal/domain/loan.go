package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrLoanNotFound           = errors.New("loan not found")
	ErrLoanAlreadyExists      = errors.New("loan ID already exists")
	ErrLoanClosed             = errors.New("loan is closed")
	ErrLoanCustomerRequired   = errors.New("customer ID is required")
	ErrLoanPrincipalInvalid   = errors.New("loan principal must be positive")
	ErrLoanTenureInvalid      = errors.New("tenure must be at least 1 installment")
	ErrLoanFrequencyInvalid   = errors.New("unknown payment frequency")
	ErrScheduleIncomplete     = errors.New("repayment schedule is not complete")
	ErrLoanInstallmentInvalid = errors.New("installment amount must be positive")
)

// PaymentFrequency controls how far the next due date advances per recorded
// installment.
type PaymentFrequency string

const (
	FrequencyMonthly    PaymentFrequency = "Monthly"
	FrequencyQuarterly  PaymentFrequency = "Quarterly"
	FrequencySemiAnnual PaymentFrequency = "Semi-Annual"
)

// Months returns the length of one payment period in months.
func (f PaymentFrequency) Months() int {
	switch f {
	case FrequencyQuarterly:
		return 3
	case FrequencySemiAnnual:
		return 6
	default:
		return 1
	}
}

// Valid reports whether the frequency is one of the supported values.
func (f PaymentFrequency) Valid() bool {
	switch f {
	case FrequencyMonthly, FrequencyQuarterly, FrequencySemiAnnual:
		return true
	}
	return false
}

type LoanStatus string

const (
	LoanStatusPending LoanStatus = "Pending"
	LoanStatusClosed  LoanStatus = "Closed"
)

// Loan is the loan account. AmountPaid, NextDueDate, Status and Payments are
// derived fields: only the payment ledger writes them once the loan exists.
// Payments holds live payment IDs in chronological order.
type Loan struct {
	LoanID             string           `json:"loanId"`
	CustomerID         string           `json:"customerId"`
	VehicleID          string           `json:"vehicleId,omitempty"`
	Principal          decimal.Decimal  `json:"principal"`
	InterestRate       decimal.Decimal  `json:"interestRate"`
	TenureInstallments int32            `json:"tenureInstallments"`
	InstallmentAmount  decimal.Decimal  `json:"installmentAmount"`
	PaymentFrequency   PaymentFrequency `json:"paymentFrequency"`
	AmountPaid         decimal.Decimal  `json:"amountPaid"`
	NextDueDate        time.Time        `json:"nextDueDate"`
	Status             LoanStatus       `json:"status"`
	Payments           []string         `json:"payments"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

func (l *Loan) Validate() error {
	if l.CustomerID == "" {
		return ErrLoanCustomerRequired
	}
	if l.Principal.LessThanOrEqual(decimal.Zero) {
		return ErrLoanPrincipalInvalid
	}
	if l.TenureInstallments < 1 {
		return ErrLoanTenureInvalid
	}
	if l.InstallmentAmount.LessThanOrEqual(decimal.Zero) {
		return ErrLoanInstallmentInvalid
	}
	if !l.PaymentFrequency.Valid() {
		return ErrLoanFrequencyInvalid
	}
	return nil
}

// HasPayment reports whether paymentID is referenced by the loan's live
// payment list.
func (l *Loan) HasPayment(paymentID string) bool {
	for _, id := range l.Payments {
		if id == paymentID {
			return true
		}
	}
	return false
}

// RemovePayment drops paymentID from the payment list, preserving order.
func (l *Loan) RemovePayment(paymentID string) {
	kept := l.Payments[:0]
	for _, id := range l.Payments {
		if id != paymentID {
			kept = append(kept, id)
		}
	}
	l.Payments = kept
}

// ScheduleComplete reports whether every installment of the tenure has a live
// payment.
func (l *Loan) ScheduleComplete() bool {
	return int32(len(l.Payments)) == l.TenureInstallments
}

// AdvanceDueDate moves the next due date forward by one payment period.
func (l *Loan) AdvanceDueDate() {
	l.NextDueDate = l.NextDueDate.AddDate(0, l.PaymentFrequency.Months(), 0)
}

type LoanRepository interface {
	Create(ctx context.Context, loan *Loan) (*Loan, error)
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	GetAll(ctx context.Context) ([]*Loan, error)
	// GetByPaymentID finds the loan whose live payment list contains paymentID.
	GetByPaymentID(ctx context.Context, paymentID string) (*Loan, error)
	// GetForUpdateTx loads the loan inside tx with a row lock, serializing
	// concurrent writers on the same loan.
	GetForUpdateTx(ctx context.Context, tx any, loanID string) (*Loan, error)
	// UpdateDerivedTx persists amount_paid, next_due_date, status and the
	// payment list. Only the payment ledger and loan closure call it.
	UpdateDerivedTx(ctx context.Context, tx any, loan *Loan) error
}
