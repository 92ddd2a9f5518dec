package middleware

import (
	"github.com/labstack/echo/v4"

	"goldmarket/internal/domain/repository"
	"goldmarket/pkg/errors"
	"goldmarket/pkg/response"
)

type AdminMiddleware struct {
	userRepo repository.UserRepository
}

func NewAdminMiddleware(userRepo repository.UserRepository) *AdminMiddleware {
	return &AdminMiddleware{
		userRepo: userRepo,
	}
}

// AdminOnly accepts the admin custom claim, or a user profile with the
// admin role for accounts provisioned before claims were issued.
func (m *AdminMiddleware) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, ok := c.Get(ContextUID).(string)
		if !ok || uid == "" {
			return response.Error(c, errors.Unauthorized("Authentication required", nil))
		}

		if admin, _ := c.Get(ContextAdmin).(bool); admin {
			return next(c)
		}

		if m.userRepo == nil {
			return response.Error(c, errors.Forbidden("Admin privileges required", nil))
		}

		user, err := m.userRepo.GetByID(c.Request().Context(), uid)
		if err != nil {
			if errors.IsNotFound(err) {
				return response.Error(c, errors.Forbidden("Admin privileges required", nil))
			}
			return response.Error(c, errors.Internal("Failed to verify admin privileges", err))
		}
		if !user.IsAdmin() {
			return response.Error(c, errors.Forbidden("Admin privileges required", nil))
		}

		c.Set(ContextAdmin, true)
		return next(c)
	}
}
