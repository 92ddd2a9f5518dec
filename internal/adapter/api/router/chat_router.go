package router

import (
	"github.com/labstack/echo/v4"

	"goldmarket/internal/adapter/api/handler"
	"goldmarket/internal/adapter/api/middleware"
)

func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, fileHandler *handler.FileHandler, authMiddleware *middleware.AuthMiddleware) {
	chatGroup := e.Group("/v1/chats")
	chatGroup.Use(authMiddleware.Authenticate)

	chatGroup.POST("", chatHandler.CreateChat)
	chatGroup.GET("", chatHandler.GetUserChats)
	chatGroup.GET("/:id", chatHandler.GetChatByID)
	chatGroup.PUT("/:id/read", chatHandler.MarkChatAsRead)

	chatGroup.POST("/:id/messages", chatHandler.SendMessage)
	chatGroup.GET("/:id/messages", chatHandler.GetChatMessages)
	chatGroup.PUT("/:id/messages/:messageId/read", chatHandler.MarkMessageAsRead)
	chatGroup.POST("/:id/images", fileHandler.UploadChatImage)
}
