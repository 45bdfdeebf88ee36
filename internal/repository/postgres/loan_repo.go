package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/surendharS49/MotoCredit--sub000/internal/domain"
)

const loanColumns = `loan_id, customer_id, vehicle_id, principal, interest_rate,
	tenure_installments, installment_amount, payment_frequency, amount_paid,
	next_due_date, status, payments, created_at, updated_at`

// LoanRepository implements domain.LoanRepository using PostgreSQL
type LoanRepository struct {
	pool *pgxpool.Pool
}

// NewLoanRepository creates a new LoanRepository
func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

// Create inserts a new loan. A duplicate loan_id surfaces as
// domain.ErrLoanAlreadyExists so the caller can retry identifier generation.
func (r *LoanRepository) Create(ctx context.Context, loan *domain.Loan) (*domain.Loan, error) {
	principal, err := decimalToPgNumeric(loan.Principal)
	if err != nil {
		return nil, err
	}
	interestRate, err := decimalToPgNumeric(loan.InterestRate)
	if err != nil {
		return nil, err
	}
	installmentAmount, err := decimalToPgNumeric(loan.InstallmentAmount)
	if err != nil {
		return nil, err
	}
	amountPaid, err := decimalToPgNumeric(loan.AmountPaid)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO loans (loan_id, customer_id, vehicle_id, principal, interest_rate,
			tenure_installments, installment_amount, payment_frequency, amount_paid,
			next_due_date, status, payments)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+loanColumns,
		loan.LoanID, loan.CustomerID, loan.VehicleID, principal, interestRate,
		loan.TenureInstallments, installmentAmount, string(loan.PaymentFrequency),
		amountPaid, loan.NextDueDate, string(loan.Status), loan.Payments,
	)

	created, err := scanLoan(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrLoanAlreadyExists
		}
		return nil, err
	}
	return created, nil
}

// GetByLoanID retrieves a loan by its business key
func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE loan_id = $1`, loanID)
	loan, err := scanLoan(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}

// GetAll retrieves every loan, newest first
func (r *LoanRepository) GetAll(ctx context.Context) ([]*domain.Loan, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+loanColumns+` FROM loans ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	loans := []*domain.Loan{}
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

// GetByPaymentID finds the loan whose live payment list contains paymentID
func (r *LoanRepository) GetByPaymentID(ctx context.Context, paymentID string) (*domain.Loan, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE $1 = ANY(payments)`, paymentID)
	loan, err := scanLoan(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}

// GetForUpdateTx loads a loan inside tx with FOR UPDATE, so concurrent
// writers on the same loan serialize at the row lock.
func (r *LoanRepository) GetForUpdateTx(ctx context.Context, tx any, loanID string) (*domain.Loan, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	row := pgxTx.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE loan_id = $1 FOR UPDATE`, loanID)
	loan, err := scanLoan(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}

// UpdateDerivedTx persists the derived fields owned by the payment ledger.
func (r *LoanRepository) UpdateDerivedTx(ctx context.Context, tx any, loan *domain.Loan) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}

	amountPaid, err := decimalToPgNumeric(loan.AmountPaid)
	if err != nil {
		return err
	}

	tag, err := pgxTx.Exec(ctx, `
		UPDATE loans
		SET amount_paid = $2, next_due_date = $3, status = $4, payments = $5, updated_at = now()
		WHERE loan_id = $1`,
		loan.LoanID, amountPaid, loan.NextDueDate, string(loan.Status), loan.Payments,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	var (
		loan              domain.Loan
		vehicleID         pgtype.Text
		principal         pgtype.Numeric
		interestRate      pgtype.Numeric
		installmentAmount pgtype.Numeric
		amountPaid        pgtype.Numeric
		frequency         string
		status            string
	)

	err := row.Scan(
		&loan.LoanID, &loan.CustomerID, &vehicleID, &principal, &interestRate,
		&loan.TenureInstallments, &installmentAmount, &frequency, &amountPaid,
		&loan.NextDueDate, &status, &loan.Payments, &loan.CreatedAt, &loan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if vehicleID.Valid {
		loan.VehicleID = vehicleID.String
	}
	loan.Principal = pgNumericToDecimal(principal)
	loan.InterestRate = pgNumericToDecimal(interestRate)
	loan.InstallmentAmount = pgNumericToDecimal(installmentAmount)
	loan.AmountPaid = pgNumericToDecimal(amountPaid)
	loan.PaymentFrequency = domain.PaymentFrequency(frequency)
	loan.Status = domain.LoanStatus(status)
	if loan.Payments == nil {
		loan.Payments = []string{}
	}
	return &loan, nil
}
