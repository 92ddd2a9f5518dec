package middleware

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"

	"goldmarket/pkg/errors"
	"goldmarket/pkg/response"
)

const TriggerSecretHeader = "X-Trigger-Secret"

// TriggerSecret guards the event trigger endpoints with a shared secret.
// An empty secret disables the check; config refuses that outside development.
func TriggerSecret(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if secret == "" {
				return next(c)
			}
			got := c.Request().Header.Get(TriggerSecretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				return response.Error(c, errors.Unauthorized("Invalid trigger secret", nil))
			}
			return next(c)
		}
	}
}
