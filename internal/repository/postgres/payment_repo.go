package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/surendharS49/MotoCredit--sub000/internal/domain"
)

const paymentColumns = `payment_id, loan_id, installment_number, amount,
	penalty_amount, total_amount, status, paid_date, due_date, payment_method,
	created_at, updated_at`

// PaymentRepository implements domain.PaymentRepository using PostgreSQL.
// A partial unique index on (loan_id, installment_number) over live rows
// backs the one-live-payment-per-installment invariant.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// CreateTx inserts a payment inside tx
func (r *PaymentRepository) CreateTx(ctx context.Context, tx any, payment *domain.Payment) (*domain.Payment, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	amount, err := decimalToPgNumeric(payment.Amount)
	if err != nil {
		return nil, err
	}
	penalty, err := decimalToPgNumeric(payment.PenaltyAmount)
	if err != nil {
		return nil, err
	}
	total, err := decimalToPgNumeric(payment.TotalAmount)
	if err != nil {
		return nil, err
	}

	row := pgxTx.QueryRow(ctx, `
		INSERT INTO payments (payment_id, loan_id, installment_number, amount,
			penalty_amount, total_amount, status, paid_date, due_date, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+paymentColumns,
		payment.PaymentID, payment.LoanID, payment.InstallmentNumber, amount,
		penalty, total, string(payment.Status), payment.PaidDate, payment.DueDate,
		payment.PaymentMethod,
	)
	return scanPayment(row)
}

// UpdateTx overwrites a payment's mutable fields inside tx
func (r *PaymentRepository) UpdateTx(ctx context.Context, tx any, payment *domain.Payment) (*domain.Payment, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	amount, err := decimalToPgNumeric(payment.Amount)
	if err != nil {
		return nil, err
	}
	penalty, err := decimalToPgNumeric(payment.PenaltyAmount)
	if err != nil {
		return nil, err
	}
	total, err := decimalToPgNumeric(payment.TotalAmount)
	if err != nil {
		return nil, err
	}

	row := pgxTx.QueryRow(ctx, `
		UPDATE payments
		SET amount = $2, penalty_amount = $3, total_amount = $4, status = $5,
			paid_date = $6, due_date = $7, payment_method = $8, updated_at = now()
		WHERE payment_id = $1
		RETURNING `+paymentColumns,
		payment.PaymentID, amount, penalty, total, string(payment.Status),
		payment.PaidDate, payment.DueDate, payment.PaymentMethod,
	)

	updated, err := scanPayment(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return updated, nil
}

// GetByPaymentID retrieves a payment by its business key
func (r *PaymentRepository) GetByPaymentID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE payment_id = $1`, paymentID)
	payment, err := scanPayment(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

// GetLiveByLoanAndInstallment retrieves the live payment for an installment
func (r *PaymentRepository) GetLiveByLoanAndInstallment(ctx context.Context, loanID string, installment int32) (*domain.Payment, error) {
	return r.liveByLoanAndInstallment(ctx, r.pool, loanID, installment)
}

// GetLiveByLoanAndInstallmentTx is GetLiveByLoanAndInstallment inside tx
func (r *PaymentRepository) GetLiveByLoanAndInstallmentTx(ctx context.Context, tx any, loanID string, installment int32) (*domain.Payment, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	return r.liveByLoanAndInstallment(ctx, pgxTx, loanID, installment)
}

func (r *PaymentRepository) liveByLoanAndInstallment(ctx context.Context, q txQuerier, loanID string, installment int32) (*domain.Payment, error) {
	row := q.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE loan_id = $1 AND installment_number = $2 AND status <> $3`,
		loanID, installment, string(domain.PaymentStatusReverted),
	)
	payment, err := scanPayment(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

// GetLiveByLoanID retrieves all live payments for a loan, by installment order
func (r *PaymentRepository) GetLiveByLoanID(ctx context.Context, loanID string) ([]*domain.Payment, error) {
	return r.liveByLoanID(ctx, r.pool, loanID)
}

// GetLiveByLoanIDTx is GetLiveByLoanID inside tx
func (r *PaymentRepository) GetLiveByLoanIDTx(ctx context.Context, tx any, loanID string) ([]*domain.Payment, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	return r.liveByLoanID(ctx, pgxTx, loanID)
}

func (r *PaymentRepository) liveByLoanID(ctx context.Context, q txQuerier, loanID string) ([]*domain.Payment, error) {
	rows, err := q.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE loan_id = $1 AND status <> $2
		ORDER BY installment_number`,
		loanID, string(domain.PaymentStatusReverted),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPayments(rows)
}

// GetAll retrieves every payment, live and tombstoned, newest first
func (r *PaymentRepository) GetAll(ctx context.Context) ([]*domain.Payment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+paymentColumns+` FROM payments ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPayments(rows)
}

// SumLiveAmountTx computes the live-amount sum for a loan inside tx
func (r *PaymentRepository) SumLiveAmountTx(ctx context.Context, tx any, loanID string) (decimal.Decimal, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return decimal.Zero, err
	}

	var sum pgtype.Numeric
	err = pgxTx.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM payments
		WHERE loan_id = $1 AND status <> $2`,
		loanID, string(domain.PaymentStatusReverted),
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return pgNumericToDecimal(sum), nil
}

func collectPayments(rows pgx.Rows) ([]*domain.Payment, error) {
	payments := []*domain.Payment{}
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var (
		payment domain.Payment
		amount  pgtype.Numeric
		penalty pgtype.Numeric
		total   pgtype.Numeric
		status  string
		method  pgtype.Text
	)

	err := row.Scan(
		&payment.PaymentID, &payment.LoanID, &payment.InstallmentNumber, &amount,
		&penalty, &total, &status, &payment.PaidDate, &payment.DueDate, &method,
		&payment.CreatedAt, &payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	payment.Amount = pgNumericToDecimal(amount)
	payment.PenaltyAmount = pgNumericToDecimal(penalty)
	payment.TotalAmount = pgNumericToDecimal(total)
	payment.Status = domain.PaymentStatus(status)
	if method.Valid {
		payment.PaymentMethod = method.String
	}
	return &payment, nil
}
