package domain

import "errors"

// Domain errors
var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrAdminNotFound  = errors.New("admin not found")
	ErrBadCredentials = errors.New("invalid email or password")
)
