package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/surendharS49/MotoCredit--sub000/internal/domain"
	"github.com/surendharS49/MotoCredit--sub000/internal/middleware"
	"github.com/surendharS49/MotoCredit--sub000/internal/service"
)

// PaymentHandler handles payment ledger HTTP requests
type PaymentHandler struct {
	ledger *service.PaymentLedgerService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(ledger *service.PaymentLedgerService) *PaymentHandler {
	return &PaymentHandler{ledger: ledger}
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	PaymentID         string  `json:"paymentId"`
	LoanID            string  `json:"loanId"`
	InstallmentNumber int32   `json:"installmentNumber"`
	Amount            string  `json:"amount"`
	PenaltyAmount     string  `json:"penaltyAmount"`
	TotalAmount       string  `json:"totalAmount"`
	Status            string  `json:"status"`
	PaidDate          string  `json:"paidDate"`
	DueDate           *string `json:"dueDate,omitempty"`
	PaymentMethod     string  `json:"paymentMethod,omitempty"`
	CreatedAt         string  `json:"createdAt"`
	UpdatedAt         string  `json:"updatedAt"`
}

// RecordPaymentRequest represents the record payment request body
type RecordPaymentRequest struct {
	InstallmentNumber int32  `json:"installmentNumber"`
	Amount            string `json:"amount"`
	PenaltyAmount     string `json:"penaltyAmount"`
	Status            string `json:"status"`
	PaidDate          string `json:"paidDate"`
	DueDate           string `json:"dueDate"`
	PaymentMethod     string `json:"paymentMethod"`
}

func toPaymentResponse(payment *domain.Payment) PaymentResponse {
	resp := PaymentResponse{
		PaymentID:         payment.PaymentID,
		LoanID:            payment.LoanID,
		InstallmentNumber: payment.InstallmentNumber,
		Amount:            payment.Amount.String(),
		PenaltyAmount:     payment.PenaltyAmount.String(),
		TotalAmount:       payment.TotalAmount.String(),
		Status:            string(payment.Status),
		PaidDate:          payment.PaidDate.Format(time.RFC3339),
		PaymentMethod:     payment.PaymentMethod,
		CreatedAt:         payment.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         payment.UpdatedAt.Format(time.RFC3339),
	}
	if !payment.DueDate.IsZero() {
		due := payment.DueDate.Format(time.RFC3339)
		resp.DueDate = &due
	}
	return resp
}

// RecordPayment handles POST /api/v1/payments/:loanId
func (h *PaymentHandler) RecordPayment(c echo.Context) error {
	loanID := c.Param("loanId")

	var req RecordPaymentRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	penalty := decimal.Zero
	if req.PenaltyAmount != "" {
		penalty, err = decimal.NewFromString(req.PenaltyAmount)
		if err != nil {
			return NewValidationError(c, "Invalid penalty amount", []ValidationError{
				{Field: "penaltyAmount", Message: "Must be a valid decimal number"},
			})
		}
	}

	status := domain.PaymentStatus(req.Status)
	if status != "" && status != domain.PaymentStatusPaid && status != domain.PaymentStatusLate {
		return NewValidationError(c, "Invalid status", []ValidationError{
			{Field: "status", Message: "Must be Paid or Late"},
		})
	}

	var paidDate, dueDate time.Time
	if req.PaidDate != "" {
		paidDate, err = time.Parse(time.RFC3339, req.PaidDate)
		if err != nil {
			return NewValidationError(c, "Invalid paid date", []ValidationError{
				{Field: "paidDate", Message: "Must be an RFC 3339 timestamp"},
			})
		}
	}
	if req.DueDate != "" {
		dueDate, err = time.Parse(time.RFC3339, req.DueDate)
		if err != nil {
			return NewValidationError(c, "Invalid due date", []ValidationError{
				{Field: "dueDate", Message: "Must be an RFC 3339 timestamp"},
			})
		}
	}

	payment, outcome, err := h.ledger.RecordPayment(c.Request().Context(), loanID, service.RecordPaymentInput{
		InstallmentNumber: req.InstallmentNumber,
		Amount:            amount,
		PenaltyAmount:     penalty,
		Status:            status,
		PaidDate:          paidDate,
		DueDate:           dueDate,
		PaymentMethod:     req.PaymentMethod,
	}, middleware.GetActor(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrLoanNotFound):
			return NewNotFoundError(c, "Loan not found")
		case errors.Is(err, domain.ErrLoanClosed):
			return NewConflictError(c, "Loan is closed")
		case errors.Is(err, domain.ErrPaymentInstallmentInvalid):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "installmentNumber", Message: "Must be at least 1"},
			})
		case errors.Is(err, domain.ErrPaymentInstallmentOutOfRange):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "installmentNumber", Message: "Exceeds the loan tenure"},
			})
		case errors.Is(err, domain.ErrPaymentAmountInvalid):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "amount", Message: "Amount must be positive"},
			})
		case errors.Is(err, domain.ErrPaymentPenaltyInvalid):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "penaltyAmount", Message: "Penalty cannot be negative"},
			})
		default:
			log.Error().Err(err).Str("loan_id", loanID).Msg("Failed to record payment")
			return NewInternalError(c, "Failed to record payment")
		}
	}

	code := http.StatusOK
	if outcome == service.RecordCreated {
		code = http.StatusCreated
	}
	return c.JSON(code, toPaymentResponse(payment))
}

// RevertPayment handles DELETE /api/v1/payments/revertpayment/:paymentId
func (h *PaymentHandler) RevertPayment(c echo.Context) error {
	paymentID := c.Param("paymentId")
	reason := c.QueryParam("reason")

	payment, err := h.ledger.RevertPayment(c.Request().Context(), paymentID, reason, middleware.GetActor(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPaymentNotFound):
			return NewNotFoundError(c, "Payment not found")
		case errors.Is(err, domain.ErrOrphanedPayment):
			return NewConsistencyError(c, "Payment has no owning loan")
		default:
			log.Error().Err(err).Str("payment_id", paymentID).Msg("Failed to revert payment")
			return NewInternalError(c, "Failed to revert payment")
		}
	}

	return c.JSON(http.StatusOK, toPaymentResponse(payment))
}

// ClearAllPayments handles DELETE /api/v1/payments/:loanId
func (h *PaymentHandler) ClearAllPayments(c echo.Context) error {
	loanID := c.Param("loanId")

	err := h.ledger.ClearAllPayments(c.Request().Context(), loanID, middleware.GetActor(c))
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		log.Error().Err(err).Str("loan_id", loanID).Msg("Failed to clear payments")
		return NewInternalError(c, "Failed to clear payments")
	}

	return c.NoContent(http.StatusNoContent)
}

// GetAllPayments handles GET /api/v1/payments
func (h *PaymentHandler) GetAllPayments(c echo.Context) error {
	payments, err := h.ledger.ListAll(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list payments")
		return NewInternalError(c, "Failed to list payments")
	}

	response := make([]PaymentResponse, len(payments))
	for i, payment := range payments {
		response[i] = toPaymentResponse(payment)
	}
	return c.JSON(http.StatusOK, response)
}

// GetPaymentsByLoan handles GET /api/v1/payments/:loanId
func (h *PaymentHandler) GetPaymentsByLoan(c echo.Context) error {
	loanID := c.Param("loanId")

	payments, err := h.ledger.ListPayments(c.Request().Context(), loanID)
	if err != nil {
		log.Error().Err(err).Str("loan_id", loanID).Msg("Failed to list loan payments")
		return NewInternalError(c, "Failed to list loan payments")
	}

	response := make([]PaymentResponse, len(payments))
	for i, payment := range payments {
		response[i] = toPaymentResponse(payment)
	}
	return c.JSON(http.StatusOK, response)
}

// GetPaymentByInstallment handles GET /api/v1/payments/:loanId/installment/:n
func (h *PaymentHandler) GetPaymentByInstallment(c echo.Context) error {
	loanID := c.Param("loanId")

	installment, err := strconv.Atoi(c.Param("n"))
	if err != nil || installment < 1 {
		return NewValidationError(c, "Invalid installment number", nil)
	}

	payment, err := h.ledger.GetPayment(c.Request().Context(), loanID, int32(installment))
	if err != nil {
		log.Error().Err(err).Str("loan_id", loanID).Int("installment", installment).Msg("Failed to get payment")
		return NewInternalError(c, "Failed to get payment")
	}
	if payment == nil {
		// Absence is an empty result, not an error.
		return c.JSON(http.StatusOK, nil)
	}

	return c.JSON(http.StatusOK, toPaymentResponse(payment))
}
