package repository

import (
	"context"

	"goldmarket/internal/domain/entity"
)

type ChatRepository interface {
	// CreateOrGet returns the room for (participantsKey, productId), creating
	// it when absent. created reports whether this call wrote the room.
	CreateOrGet(ctx context.Context, room *entity.ChatRoom) (existing *entity.ChatRoom, created bool, err error)
	GetByID(ctx context.Context, id string) (*entity.ChatRoom, error)
	ListByParticipant(ctx context.Context, userID string, limit int) ([]*entity.ChatRoom, error)

	// AppendMessage writes the message and the room metadata update as one
	// atomic unit. The message's ID and Timestamp are filled on success.
	AppendMessage(ctx context.Context, chatID string, message *entity.Message) error
	// ListMessages returns at most limit messages after the cursor in
	// most-recent-first order (timestamp, then id). A zero cursor starts at
	// the newest message.
	ListMessages(ctx context.Context, chatID string, limit int, before entity.MessageCursor) ([]*entity.Message, error)
	// WatchMessages calls fn with the full ascending message list once, then
	// with only the added or modified messages on every later change, until
	// ctx is done or fn returns an error.
	WatchMessages(ctx context.Context, chatID string, fn func([]*entity.Message) error) error

	ResetUnread(ctx context.Context, chatID, userID string) error
	AddReader(ctx context.Context, chatID, messageID, userID string) error
}
