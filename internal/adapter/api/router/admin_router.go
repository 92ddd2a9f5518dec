package router

import (
	"github.com/labstack/echo/v4"

	"goldmarket/internal/adapter/api/handler"
	"goldmarket/internal/adapter/api/middleware"
)

func SetupAdminRouter(e *echo.Echo, exchangeHandler *handler.ExchangeHandler, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	adminGroup := e.Group("/v1/admin")
	adminGroup.Use(authMiddleware.Authenticate)
	adminGroup.Use(adminMiddleware.AdminOnly)

	adminGroup.GET("/exchanges", exchangeHandler.ListAllExchanges)
	adminGroup.GET("/exchanges/:id", exchangeHandler.GetExchange)
	adminGroup.PUT("/exchanges/:id/status", exchangeHandler.UpdateExchangeStatus)
}
