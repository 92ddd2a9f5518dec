package router

import (
	"github.com/labstack/echo/v4"

	"goldmarket/internal/adapter/api/handler"
	"goldmarket/internal/adapter/api/middleware"
	"goldmarket/internal/infrastructure/ratelimit"
	"goldmarket/pkg/logger"
)

func SetupExchangeRouter(e *echo.Echo, exchangeHandler *handler.ExchangeHandler, fileHandler *handler.FileHandler, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	exchangeGroup := e.Group("/v1/exchanges")
	exchangeGroup.Use(authMiddleware.Authenticate)

	limited := []echo.MiddlewareFunc{}
	if limiter != nil {
		limited = append(limited, middleware.RateLimit(limiter, ratelimit.ActionExchange, logger.Component("rate_limit")))
	}

	exchangeGroup.POST("/quote", exchangeHandler.Quote)
	exchangeGroup.POST("", exchangeHandler.CreateExchange, limited...)
	exchangeGroup.POST("/stamps", fileHandler.UploadStamp, limited...)
	exchangeGroup.GET("", exchangeHandler.GetMyExchanges)
	exchangeGroup.GET("/:id", exchangeHandler.GetExchange)
}
