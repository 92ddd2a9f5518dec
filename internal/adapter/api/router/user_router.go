package router

import (
	"github.com/labstack/echo/v4"

	"goldmarket/internal/adapter/api/handler"
	"goldmarket/internal/adapter/api/middleware"
)

func SetupUserRouter(e *echo.Echo, userHandler *handler.UserHandler, fileHandler *handler.FileHandler, authMiddleware *middleware.AuthMiddleware) {
	userGroup := e.Group("/v1/users/me")
	userGroup.Use(authMiddleware.Authenticate)

	userGroup.GET("", userHandler.GetMe)
	userGroup.POST("/push-tokens", userHandler.RegisterPushToken)
	userGroup.DELETE("/push-tokens", userHandler.UnregisterPushToken)
	userGroup.GET("/uploads", fileHandler.ListMyUploads)
}
