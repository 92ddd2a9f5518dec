package handler

import (
	"context"
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"goldmarket/internal/domain/entity"
	ws "goldmarket/internal/infrastructure/websocket"
	"goldmarket/internal/usecase"
	"goldmarket/pkg/errors"
	"goldmarket/pkg/response"
)

type WebSocketHandler struct {
	baseCtx     context.Context
	wsManager   *ws.Manager
	chatUseCase *usecase.ChatUseCase
	logger      zerolog.Logger
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewWebSocketHandler ties every socket's lifetime to baseCtx, so cancelling
// it ends all room subscriptions.
func NewWebSocketHandler(baseCtx context.Context, wsManager *ws.Manager, chatUseCase *usecase.ChatUseCase, logger zerolog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		baseCtx:     baseCtx,
		wsManager:   wsManager,
		chatUseCase: chatUseCase,
		logger:      logger.With().Str("component", "websocket").Logger(),
	}
}

// HandleWebSocket follows one chat room. The first frame carries the room's
// history in ascending order, later frames only new or edited messages. The
// client may send
// {"type":"mark_message_read","message_id":"..."} or {"type":"ping"}.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	userID, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	chatID := c.Param("id")
	if _, err := h.chatUseCase.GetRoom(c.Request().Context(), userID, chatID); err != nil {
		return response.Error(c, err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn().Err(err).Str("user_id", userID).Msg("websocket upgrade failed")
		return nil
	}

	client := ws.NewClient(h.baseCtx, conn, userID, chatID)
	h.wsManager.Register(client)
	h.logger.Debug().Str("user_id", userID).Str("chat_id", chatID).
		Int("room_clients", h.wsManager.Count(chatID)).Msg("websocket connected")

	go client.WritePump()
	go h.follow(client)
	go client.ReadPump(h.wsManager, func(cmd ws.Command) {
		h.handleCommand(client, cmd)
	})

	return nil
}

func (h *WebSocketHandler) follow(client *ws.Client) {
	log := h.logger.With().Str("user_id", client.UserID).Str("chat_id", client.ChatID).Logger()

	err := h.chatUseCase.Subscribe(client.Context(), client.UserID, client.ChatID, func(messages []*entity.Message) error {
		return client.SendFrame(ws.Frame{
			Type:   ws.FrameMessages,
			ChatID: client.ChatID,
			Data:   messages,
		})
	})
	if err != nil && err != ws.ErrClientClosed {
		log.Error().Err(err).Msg("room subscription ended")
		_ = client.SendFrame(ws.ErrorFrame("Subscription ended"))
	}
	h.wsManager.Unregister(client)
}

func (h *WebSocketHandler) handleCommand(client *ws.Client, cmd ws.Command) {
	switch cmd.Type {
	case ws.CommandMarkRead:
		err := h.chatUseCase.MarkMessageRead(client.Context(), client.ChatID, cmd.MessageID, client.UserID)
		if err != nil {
			message := "Failed to mark message read"
			if appErr, ok := errors.AsAppError(err); ok {
				message = appErr.Message
			}
			_ = client.SendFrame(ws.ErrorFrame(message))
		}
	default:
		_ = client.SendFrame(ws.ErrorFrame("Unknown command: " + cmd.Type))
	}
}
