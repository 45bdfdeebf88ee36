package domain

import (
	"context"
	"time"
)

// Admin is an operator account. Its display name becomes performedBy on audit
// entries for authenticated requests.
type Admin struct {
	ID           int32     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type AdminRepository interface {
	GetByEmail(ctx context.Context, email string) (*Admin, error)
}
