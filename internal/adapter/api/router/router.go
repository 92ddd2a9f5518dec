package router

import (
	"github.com/labstack/echo/v4"

	"goldmarket/internal/adapter/api/handler"
	"goldmarket/internal/adapter/api/middleware"
	"goldmarket/internal/infrastructure/ratelimit"
)

// Handlers bundles everything the routes dispatch to.
type Handlers struct {
	Chat      *handler.ChatHandler
	File      *handler.FileHandler
	WebSocket *handler.WebSocketHandler
	User      *handler.UserHandler
	Exchange  *handler.ExchangeHandler
	Trigger   *handler.TriggerHandler
	Health    *handler.HealthHandler
	DevToken  *handler.DevTokenHandler
}

type Options struct {
	Environment   string
	TriggerSecret string
	RateLimiter   *ratelimit.RateLimiter
}

func Setup(e *echo.Echo, h Handlers, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware, opts Options) {
	SetupHealthRouter(e, h.Health)
	SetupChatRouter(e, h.Chat, h.File, authMiddleware)
	SetupWebSocketRouter(e, h.WebSocket, authMiddleware)
	SetupUserRouter(e, h.User, h.File, authMiddleware)
	SetupExchangeRouter(e, h.Exchange, h.File, authMiddleware, opts.RateLimiter)
	SetupAdminRouter(e, h.Exchange, authMiddleware, adminMiddleware)
	SetupTriggerRouter(e, h.Trigger, opts.TriggerSecret)
	SetupDevRouter(e, h.DevToken, opts.Environment)
}
