package router

import (
	"github.com/labstack/echo/v4"

	"goldmarket/internal/adapter/api/handler"
)

func SetupDevRouter(e *echo.Echo, devTokenHandler *handler.DevTokenHandler, environment string) {
	if environment != "development" || devTokenHandler == nil {
		return
	}
	e.POST("/_dev/token/:uid", devTokenHandler.GenerateToken)
}
