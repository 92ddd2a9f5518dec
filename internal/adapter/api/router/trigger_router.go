package router

import (
	"github.com/labstack/echo/v4"

	"goldmarket/internal/adapter/api/handler"
	"goldmarket/internal/adapter/api/middleware"
)

func SetupTriggerRouter(e *echo.Echo, triggerHandler *handler.TriggerHandler, secret string) {
	triggerGroup := e.Group("/v1/triggers")
	triggerGroup.Use(middleware.TriggerSecret(secret))

	triggerGroup.POST("/chat-message", triggerHandler.ChatMessageCreated)
	triggerGroup.POST("/exchange-created", triggerHandler.ExchangeCreated)
	triggerGroup.POST("/exchange-updated", triggerHandler.ExchangeUpdated)
}
