package service

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/surendharS49/MotoCredit--sub000/internal/domain"
	"github.com/surendharS49/MotoCredit--sub000/internal/repository/storage"
)

// presignedURLExpiry bounds how long a document download link stays valid.
const presignedURLExpiry = 15 * time.Minute

// DocumentService handles loan document storage
type DocumentService struct {
	loanRepo domain.LoanRepository
	docs     storage.DocumentRepository
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(loanRepo domain.LoanRepository, docs storage.DocumentRepository) *DocumentService {
	return &DocumentService{loanRepo: loanRepo, docs: docs}
}

// Upload stores a document for a loan and returns its object path
func (s *DocumentService) Upload(ctx context.Context, loanID string, filename string, data io.Reader, contentType string, size int64) (string, error) {
	if _, err := s.loanRepo.GetByLoanID(ctx, loanID); err != nil {
		return "", err
	}

	objectPath := storage.GenerateObjectPath(loanID, filename)
	stored, err := s.docs.Upload(ctx, objectPath, data, contentType, size)
	if err != nil {
		return "", err
	}

	log.Info().Str("loan_id", loanID).Str("object_path", stored).Msg("Document uploaded")
	return stored, nil
}

// DownloadURL produces a presigned URL for a stored document
func (s *DocumentService) DownloadURL(ctx context.Context, loanID string, objectPath string) (string, error) {
	if _, err := s.loanRepo.GetByLoanID(ctx, loanID); err != nil {
		return "", err
	}
	return s.docs.GeneratePresignedURL(ctx, objectPath, presignedURLExpiry)
}
