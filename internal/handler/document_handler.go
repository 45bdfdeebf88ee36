package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/surendharS49/MotoCredit--sub000/internal/domain"
	"github.com/surendharS49/MotoCredit--sub000/internal/service"
)

// maxDocumentSize bounds uploaded loan documents.
const maxDocumentSize = 10 << 20 // 10MB

// DocumentHandler handles loan document HTTP requests
type DocumentHandler struct {
	documents *service.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// UploadDocumentResponse represents the upload response
type UploadDocumentResponse struct {
	ObjectPath string `json:"objectPath"`
}

// PresignedURLResponse represents the presigned download URL response
type PresignedURLResponse struct {
	URL string `json:"url"`
}

// UploadDocument handles POST /api/v1/loans/:loanId/documents
func (h *DocumentHandler) UploadDocument(c echo.Context) error {
	loanID := c.Param("loanId")

	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "No file provided", []ValidationError{
			{Field: "file", Message: "File is required"},
		})
	}
	if file.Size > maxDocumentSize {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "file", Message: "File too large. Maximum size is 10MB"},
		})
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Failed to process file")
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	objectPath, err := h.documents.Upload(c.Request().Context(), loanID, file.Filename, src, contentType, file.Size)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		log.Error().Err(err).Str("loan_id", loanID).Msg("Failed to upload document")
		return NewInternalError(c, "Failed to upload document")
	}

	return c.JSON(http.StatusCreated, UploadDocumentResponse{ObjectPath: objectPath})
}

// GetDocumentURL handles GET /api/v1/loans/:loanId/documents/:key/url
func (h *DocumentHandler) GetDocumentURL(c echo.Context) error {
	loanID := c.Param("loanId")

	// The key path parameter is the URL-encoded object path.
	key, err := url.PathUnescape(c.Param("key"))
	if err != nil || key == "" {
		return NewValidationError(c, "Invalid document key", nil)
	}

	presigned, err := h.documents.DownloadURL(c.Request().Context(), loanID, key)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		log.Error().Err(err).Str("loan_id", loanID).Str("key", key).Msg("Failed to presign document URL")
		return NewInternalError(c, "Failed to presign document URL")
	}

	return c.JSON(http.StatusOK, PresignedURLResponse{URL: presigned})
}
