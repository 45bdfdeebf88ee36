package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/surendharS49/MotoCredit--sub000/internal/middleware"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, loginLimiter *middleware.RateLimiter, authHandler *AuthHandler, loanHandler *LoanHandler, paymentHandler *PaymentHandler, auditLogHandler *AuditLogHandler, documentHandler *DocumentHandler) {
	// API version 1
	api := e.Group("/api/v1")

	// Auth routes (public, rate limited)
	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login, middleware.RateLimitMiddleware(loginLimiter))

	// Loan routes (protected)
	loans := api.Group("/loans")
	loans.Use(authMiddleware.Authenticate())
	loans.POST("", loanHandler.CreateLoan)
	loans.GET("", loanHandler.GetLoans)
	loans.GET("/:loanId", loanHandler.GetLoan)
	loans.POST("/:loanId/close", loanHandler.CloseLoan)
	loans.POST("/:loanId/documents", documentHandler.UploadDocument)
	loans.GET("/:loanId/documents/:key/url", documentHandler.GetDocumentURL)

	// Payment ledger routes (protected)
	payments := api.Group("/payments")
	payments.Use(authMiddleware.Authenticate())
	payments.GET("", paymentHandler.GetAllPayments)
	payments.POST("/:loanId", paymentHandler.RecordPayment)
	payments.GET("/:loanId", paymentHandler.GetPaymentsByLoan)
	payments.GET("/:loanId/installment/:n", paymentHandler.GetPaymentByInstallment)
	payments.DELETE("/revertpayment/:paymentId", paymentHandler.RevertPayment)
	payments.DELETE("/:loanId", paymentHandler.ClearAllPayments)

	// Audit trail routes (protected, read-only)
	auditLogs := api.Group("/audit-logs")
	auditLogs.Use(authMiddleware.Authenticate())
	auditLogs.GET("/loan/:loanId", auditLogHandler.GetByLoan)
}
