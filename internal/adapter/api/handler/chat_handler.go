package handler

import (
	"github.com/labstack/echo/v4"

	"goldmarket/internal/domain/entity"
	"goldmarket/internal/usecase"
	"goldmarket/pkg/errors"
	"goldmarket/pkg/response"
	"goldmarket/pkg/utils"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type createChatRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	ProductID   string `json:"product_id" validate:"max=128"`
}

type sendMessageRequest struct {
	Text     string `json:"text" validate:"max=2000"`
	ImageURL string `json:"image_url,omitempty" validate:"omitempty,url"`
}

type chatRoomResponse struct {
	Chat    interface{} `json:"chat"`
	Created bool        `json:"created"`
}

// CreateChat opens the room for the caller, the recipient and an optional
// product, returning the existing one when it is already there.
func (h *ChatHandler) CreateChat(c echo.Context) error {
	var req createChatRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	room, created, err := h.chatUseCase.CreateOrGetRoom(c.Request().Context(), userID, req.RecipientID, req.ProductID)
	if err != nil {
		return response.Error(c, err)
	}

	body := chatRoomResponse{Chat: room, Created: created}
	if created {
		return response.Created(c, body)
	}
	return response.Success(c, body)
}

func (h *ChatHandler) GetUserChats(c echo.Context) error {
	userID, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	rooms, err := h.chatUseCase.ListRooms(c.Request().Context(), userID, queryLimit(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, rooms)
}

func (h *ChatHandler) GetChatByID(c echo.Context) error {
	userID, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	room, err := h.chatUseCase.GetRoom(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, room)
}

func (h *ChatHandler) MarkChatAsRead(c echo.Context) error {
	userID, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.chatUseCase.MarkRoomRead(c.Request().Context(), c.Param("id"), userID); err != nil {
		return response.Error(c, err)
	}
	return response.NoContent(c)
}

func (h *ChatHandler) MarkMessageAsRead(c echo.Context) error {
	userID, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.chatUseCase.MarkMessageRead(c.Request().Context(), c.Param("id"), c.Param("messageId"), userID); err != nil {
		return response.Error(c, err)
	}
	return response.NoContent(c)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	message, err := h.chatUseCase.SendMessage(c.Request().Context(), c.Param("id"), userID, usecase.SendMessageInput{
		Text:     req.Text,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, message)
}

// GetChatMessages pages backwards with ?before=<RFC3339Nano>&before_id=<id>,
// both taken from the previous page's next_before and next_before_id.
func (h *ChatHandler) GetChatMessages(c echo.Context) error {
	userID, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	params := utils.GetCursorParams(c)
	before := entity.MessageCursor{Timestamp: params.Before, ID: params.BeforeID}
	page, err := h.chatUseCase.ListMessages(c.Request().Context(), userID, c.Param("id"), params.Limit, before)
	if err != nil {
		return response.Error(c, err)
	}

	var next, nextID string
	if page.HasMore {
		next = utils.FormatCursor(page.Next.Timestamp)
		nextID = page.Next.ID
	}
	return response.Cursor(c, page.Messages, next, nextID, page.HasMore)
}
