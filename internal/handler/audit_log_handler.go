package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/surendharS49/MotoCredit--sub000/internal/domain"
	"github.com/surendharS49/MotoCredit--sub000/internal/service"
)

// AuditLogHandler handles audit trail HTTP requests
type AuditLogHandler struct {
	audit *service.AuditService
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(audit *service.AuditService) *AuditLogHandler {
	return &AuditLogHandler{audit: audit}
}

// AuditLogResponse represents an audit entry in API responses
type AuditLogResponse struct {
	ID          string         `json:"id"`
	Action      string         `json:"action"`
	EntityType  string         `json:"entityType"`
	EntityID    string         `json:"entityId"`
	LoanID      string         `json:"loanId"`
	Details     map[string]any `json:"details,omitempty"`
	PerformedBy string         `json:"performedBy"`
	PerformedAt string         `json:"performedAt"`
}

func toAuditLogResponse(entry *domain.AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:          entry.ID.String(),
		Action:      string(entry.Action),
		EntityType:  string(entry.EntityType),
		EntityID:    entry.EntityID,
		LoanID:      entry.LoanID,
		Details:     entry.Details,
		PerformedBy: entry.PerformedBy,
		PerformedAt: entry.PerformedAt.Format(time.RFC3339),
	}
}

// GetByLoan handles GET /api/v1/audit-logs/loan/:loanId
//
// The optional actions query parameter is a comma-separated list of action
// kinds; unknown kinds are rejected rather than silently ignored.
func (h *AuditLogHandler) GetByLoan(c echo.Context) error {
	loanID := c.Param("loanId")

	var actions []domain.AuditAction
	if raw := c.QueryParam("actions"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			action := domain.AuditAction(strings.TrimSpace(part))
			switch action {
			case domain.ActionPaymentCreated, domain.ActionPaymentUpdated, domain.ActionPaymentReverted:
				actions = append(actions, action)
			default:
				return NewValidationError(c, "Unknown audit action", []ValidationError{
					{Field: "actions", Message: "Must be a comma-separated list of PAYMENT_CREATED, PAYMENT_UPDATED, PAYMENT_REVERTED"},
				})
			}
		}
	}

	entries, err := h.audit.QueryByLoan(c.Request().Context(), loanID, actions...)
	if err != nil {
		log.Error().Err(err).Str("loan_id", loanID).Msg("Failed to query audit trail")
		return NewInternalError(c, "Failed to query audit trail")
	}

	response := make([]AuditLogResponse, len(entries))
	for i, entry := range entries {
		response[i] = toAuditLogResponse(entry)
	}
	return c.JSON(http.StatusOK, response)
}
