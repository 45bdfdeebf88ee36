package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
)

// DocumentRepository defines the interface for loan document storage
type DocumentRepository interface {
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	Delete(ctx context.Context, objectPath string) error
	GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}

// GenerateObjectPath creates a unique object path for a loan document
func GenerateObjectPath(loanID string, filename string) string {
	ext := path.Ext(filename)
	return path.Join("loans", loanID, fmt.Sprintf("%s%s", uuid.New().String(), ext))
}
