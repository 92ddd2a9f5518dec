package middleware

import (
	"context"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"goldmarket/internal/infrastructure/firebase"
	"goldmarket/pkg/errors"
	"goldmarket/pkg/response"
)

// Context keys set by Authenticate.
const (
	ContextUID   = "uid"
	ContextAdmin = "admin"
)

type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*firebase.VerifiedUser, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
	}
}

func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		idToken, err := bearerToken(c)
		if err != nil {
			return response.Error(c, err)
		}

		user, err := m.verifier.VerifyToken(c.Request().Context(), idToken)
		if err != nil {
			return response.Error(c, errors.Unauthorized("Invalid or expired token", err))
		}

		c.Set(ContextUID, user.UID)
		c.Set(ContextAdmin, user.Admin)

		return next(c)
	}
}

// bearerToken reads the Authorization header. Browsers cannot set headers on
// a websocket handshake, so upgrades may pass the token as ?token= instead.
func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		if websocket.IsWebSocketUpgrade(c.Request()) {
			if token := c.QueryParam("token"); token != "" {
				return token, nil
			}
		}
		return "", errors.Unauthorized("Authorization header is required", nil)
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.Unauthorized("Invalid authorization format", nil)
	}
	return strings.TrimSpace(parts[1]), nil
}
