package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/surendharS49/MotoCredit--sub000/internal/service"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// ActorKey is the context key for the authenticated actor's display name
	ActorKey contextKey = "actor"
	// AdminIDKey is the context key for the authenticated admin's ID
	AdminIDKey contextKey = "admin_id"
)

// AuthMiddleware validates bearer tokens issued by the AuthService
type AuthMiddleware struct {
	auth *service.AuthService
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(auth *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// Authenticate returns an Echo middleware that validates bearer tokens and
// places the actor's display name in the request context.
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
			}

			claims, err := m.auth.VerifyToken(parts[1])
			if err != nil {
				log.Debug().Err(err).Msg("Token validation failed")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			ctx := context.WithValue(c.Request().Context(), ActorKey, claims.Name)
			ctx = context.WithValue(ctx, AdminIDKey, claims.Subject)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// GetActor extracts the actor display name from the context. It returns ""
// when the request carries no authenticated actor; audit code substitutes
// "system".
func GetActor(c echo.Context) string {
	if actor, ok := c.Request().Context().Value(ActorKey).(string); ok {
		return actor
	}
	return ""
}
