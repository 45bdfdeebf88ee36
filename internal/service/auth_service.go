package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/surendharS49/MotoCredit--sub000/internal/domain"
)

const tokenTTL = 24 * time.Hour

// ActorClaims are the JWT claims carried by admin tokens. Name becomes
// performedBy on audit entries.
type ActorClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// AuthService handles admin login and token verification
type AuthService struct {
	adminRepo domain.AdminRepository
	secret    []byte
}

// NewAuthService creates a new AuthService
func NewAuthService(adminRepo domain.AdminRepository, secret string) *AuthService {
	return &AuthService{adminRepo: adminRepo, secret: []byte(secret)}
}

// Login verifies credentials and issues a signed token
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.Admin, error) {
	admin, err := s.adminRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAdminNotFound) {
			return "", nil, domain.ErrBadCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return "", nil, domain.ErrBadCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, ActorClaims{
		Name: admin.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", admin.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	log.Info().Str("email", admin.Email).Msg("Admin logged in")
	return signed, admin, nil
}

// VerifyToken parses and validates a token, returning its claims
func (s *AuthService) VerifyToken(tokenString string) (*ActorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ActorClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*ActorClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}
