package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/surendharS49/MotoCredit--sub000/internal/domain"
	"github.com/surendharS49/MotoCredit--sub000/internal/service"
)

// LoanHandler handles loan HTTP requests
type LoanHandler struct {
	loans *service.LoanService
}

// NewLoanHandler creates a new LoanHandler
func NewLoanHandler(loans *service.LoanService) *LoanHandler {
	return &LoanHandler{loans: loans}
}

// LoanResponse represents a loan in API responses
type LoanResponse struct {
	LoanID             string   `json:"loanId"`
	CustomerID         string   `json:"customerId"`
	VehicleID          string   `json:"vehicleId,omitempty"`
	Principal          string   `json:"principal"`
	InterestRate       string   `json:"interestRate"`
	TenureInstallments int32    `json:"tenureInstallments"`
	InstallmentAmount  string   `json:"installmentAmount"`
	PaymentFrequency   string   `json:"paymentFrequency"`
	AmountPaid         string   `json:"amountPaid"`
	NextDueDate        string   `json:"nextDueDate"`
	Status             string   `json:"status"`
	Payments           []string `json:"payments"`
	CreatedAt          string   `json:"createdAt"`
	UpdatedAt          string   `json:"updatedAt"`
}

// CreateLoanRequest represents the create loan request body
type CreateLoanRequest struct {
	CustomerID         string `json:"customerId"`
	VehicleID          string `json:"vehicleId"`
	Principal          string `json:"principal"`
	InterestRate       string `json:"interestRate"`
	TenureInstallments int32  `json:"tenureInstallments"`
	InstallmentAmount  string `json:"installmentAmount"`
	PaymentFrequency   string `json:"paymentFrequency"`
	FirstDueDate       string `json:"firstDueDate"`
}

func toLoanResponse(loan *domain.Loan) LoanResponse {
	payments := loan.Payments
	if payments == nil {
		payments = []string{}
	}
	return LoanResponse{
		LoanID:             loan.LoanID,
		CustomerID:         loan.CustomerID,
		VehicleID:          loan.VehicleID,
		Principal:          loan.Principal.String(),
		InterestRate:       loan.InterestRate.String(),
		TenureInstallments: loan.TenureInstallments,
		InstallmentAmount:  loan.InstallmentAmount.String(),
		PaymentFrequency:   string(loan.PaymentFrequency),
		AmountPaid:         loan.AmountPaid.String(),
		NextDueDate:        loan.NextDueDate.Format(time.RFC3339),
		Status:             string(loan.Status),
		Payments:           payments,
		CreatedAt:          loan.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          loan.UpdatedAt.Format(time.RFC3339),
	}
}

// CreateLoan handles POST /api/v1/loans
func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req CreateLoanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	principal, err := decimal.NewFromString(req.Principal)
	if err != nil {
		return NewValidationError(c, "Invalid principal", []ValidationError{
			{Field: "principal", Message: "Must be a valid decimal number"},
		})
	}

	interestRate := decimal.Zero
	if req.InterestRate != "" {
		interestRate, err = decimal.NewFromString(req.InterestRate)
		if err != nil {
			return NewValidationError(c, "Invalid interest rate", []ValidationError{
				{Field: "interestRate", Message: "Must be a valid decimal number"},
			})
		}
	}

	installmentAmount, err := decimal.NewFromString(req.InstallmentAmount)
	if err != nil {
		return NewValidationError(c, "Invalid installment amount", []ValidationError{
			{Field: "installmentAmount", Message: "Must be a valid decimal number"},
		})
	}

	var firstDueDate time.Time
	if req.FirstDueDate != "" {
		firstDueDate, err = time.Parse(time.RFC3339, req.FirstDueDate)
		if err != nil {
			return NewValidationError(c, "Invalid first due date", []ValidationError{
				{Field: "firstDueDate", Message: "Must be an RFC 3339 timestamp"},
			})
		}
	}

	loan, err := h.loans.CreateLoan(c.Request().Context(), service.CreateLoanInput{
		CustomerID:         req.CustomerID,
		VehicleID:          req.VehicleID,
		Principal:          principal,
		InterestRate:       interestRate,
		TenureInstallments: req.TenureInstallments,
		InstallmentAmount:  installmentAmount,
		PaymentFrequency:   domain.PaymentFrequency(req.PaymentFrequency),
		FirstDueDate:       firstDueDate,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrLoanCustomerRequired):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "customerId", Message: "Customer ID is required"},
			})
		case errors.Is(err, domain.ErrLoanPrincipalInvalid):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "principal", Message: "Principal must be positive"},
			})
		case errors.Is(err, domain.ErrLoanTenureInvalid):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "tenureInstallments", Message: "Tenure must be at least 1 installment"},
			})
		case errors.Is(err, domain.ErrLoanInstallmentInvalid):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "installmentAmount", Message: "Installment amount must be positive"},
			})
		case errors.Is(err, domain.ErrLoanFrequencyInvalid):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "paymentFrequency", Message: "Must be Monthly, Quarterly or Semi-Annual"},
			})
		case errors.Is(err, domain.ErrLoanAlreadyExists):
			return NewConflictError(c, "Loan ID conflict, please retry")
		default:
			log.Error().Err(err).Str("customer_id", req.CustomerID).Msg("Failed to create loan")
			return NewInternalError(c, "Failed to create loan")
		}
	}

	return c.JSON(http.StatusCreated, toLoanResponse(loan))
}

// GetLoans handles GET /api/v1/loans
func (h *LoanHandler) GetLoans(c echo.Context) error {
	loans, err := h.loans.ListLoans(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list loans")
		return NewInternalError(c, "Failed to list loans")
	}

	response := make([]LoanResponse, len(loans))
	for i, loan := range loans {
		response[i] = toLoanResponse(loan)
	}
	return c.JSON(http.StatusOK, response)
}

// GetLoan handles GET /api/v1/loans/:loanId
func (h *LoanHandler) GetLoan(c echo.Context) error {
	loanID := c.Param("loanId")

	loan, err := h.loans.GetLoan(c.Request().Context(), loanID)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		log.Error().Err(err).Str("loan_id", loanID).Msg("Failed to get loan")
		return NewInternalError(c, "Failed to get loan")
	}

	return c.JSON(http.StatusOK, toLoanResponse(loan))
}

// CloseLoan handles POST /api/v1/loans/:loanId/close
func (h *LoanHandler) CloseLoan(c echo.Context) error {
	loanID := c.Param("loanId")

	loan, err := h.loans.CloseLoan(c.Request().Context(), loanID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrLoanNotFound):
			return NewNotFoundError(c, "Loan not found")
		case errors.Is(err, domain.ErrLoanClosed):
			return NewConflictError(c, "Loan is already closed")
		case errors.Is(err, domain.ErrScheduleIncomplete):
			return NewConflictError(c, "Repayment schedule is not complete")
		default:
			log.Error().Err(err).Str("loan_id", loanID).Msg("Failed to close loan")
			return NewInternalError(c, "Failed to close loan")
		}
	}

	return c.JSON(http.StatusOK, toLoanResponse(loan))
}
