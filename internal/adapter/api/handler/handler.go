package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"goldmarket/internal/adapter/api/middleware"
	"goldmarket/pkg/errors"
)

const maxListLimit = 100

func currentUID(c echo.Context) (string, error) {
	uid, ok := c.Get(middleware.ContextUID).(string)
	if !ok || uid == "" {
		return "", errors.Unauthorized("Authentication required", nil)
	}
	return uid, nil
}

func isAdmin(c echo.Context) bool {
	admin, _ := c.Get(middleware.ContextAdmin).(bool)
	return admin
}

// queryLimit reads ?limit=, clamped to maxListLimit. Bad input means 0,
// which lets the use case pick its default.
func queryLimit(c echo.Context) int {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		return 0
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
