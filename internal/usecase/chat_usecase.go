package usecase

import (
	"context"
	"html"
	"io"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"goldmarket/internal/domain/entity"
	"goldmarket/internal/domain/repository"
	"goldmarket/internal/domain/service"
	"goldmarket/internal/infrastructure/metrics"
	"goldmarket/internal/infrastructure/ratelimit"
	"goldmarket/pkg/errors"
)

const (
	maxMessageRunes   = 2000
	defaultRoomsLimit = 50

	defaultMessagesLimit = 30
)

type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	storage     service.FileUploadService
	rateLimiter *ratelimit.RateLimiter
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	storage service.FileUploadService,
	rateLimiter *ratelimit.RateLimiter,
	logger zerolog.Logger,
) *ChatUseCase {
	return &ChatUseCase{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		storage:     storage,
		rateLimiter: rateLimiter,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "chat").Logger(),
		tracer:      otel.Tracer("goldmarket/internal/usecase/chat"),
	}
}

// CreateOrGetRoom returns the room for the pair and product, creating it on
// first contact. Calling it again for the same pair and product returns the
// same room.
func (uc *ChatUseCase) CreateOrGetRoom(ctx context.Context, currentUserID, otherUserID, productID string) (*entity.ChatRoom, bool, error) {
	currentUserID = strings.TrimSpace(currentUserID)
	otherUserID = strings.TrimSpace(otherUserID)
	productID = strings.TrimSpace(productID)

	if currentUserID == "" || otherUserID == "" {
		return nil, false, errors.Validation("both participants are required")
	}
	if currentUserID == otherUserID {
		return nil, false, errors.Validation("You cannot create a chat with yourself")
	}
	if strings.ContainsAny(currentUserID, "_/") || strings.ContainsAny(otherUserID, "_/") {
		return nil, false, errors.Validation("participant ids must not contain '_' or '/'")
	}
	if strings.Contains(productID, "/") {
		return nil, false, errors.Validation("product id must not contain '/'")
	}

	if err := uc.allow(currentUserID, ratelimit.ActionCreateChat); err != nil {
		return nil, false, err
	}

	room := &entity.ChatRoom{
		Participants:    []string{currentUserID, otherUserID},
		ParticipantsKey: entity.ParticipantsKey(currentUserID, otherUserID),
		ProductID:       productID,
		UnreadCount:     map[string]int{currentUserID: 0, otherUserID: 0},
	}

	result, created, err := uc.chatRepo.CreateOrGet(ctx, room)
	if err != nil {
		return nil, false, err
	}

	if created {
		uc.logger.Info().Str("chat_id", result.ID).Str("product_id", productID).Msg("chat room created")
	}
	return result, created, nil
}

func (uc *ChatUseCase) ListRooms(ctx context.Context, userID string, limit int) ([]*entity.ChatRoom, error) {
	if userID == "" {
		return nil, errors.Validation("user id is required")
	}
	if limit <= 0 {
		limit = defaultRoomsLimit
	}
	return uc.chatRepo.ListByParticipant(ctx, userID, limit)
}

// GetRoom returns the room when userID takes part in it.
func (uc *ChatUseCase) GetRoom(ctx context.Context, userID, chatID string) (*entity.ChatRoom, error) {
	if chatID == "" {
		return nil, errors.Validation("chat id is required")
	}

	room, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !room.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant in this chat", nil)
	}
	return room, nil
}

type SendMessageInput struct {
	Text     string
	ImageURL string
}

// SendMessage appends a message and updates the room metadata atomically.
// A message with neither text nor image is rejected before anything is
// written.
func (uc *ChatUseCase) SendMessage(ctx context.Context, chatID, senderID string, input SendMessageInput) (*entity.Message, error) {
	if chatID == "" {
		return nil, errors.Validation("chat id is required")
	}
	if senderID == "" {
		return nil, errors.Validation("sender is required")
	}

	text := strings.TrimSpace(uc.stripTags(input.Text))
	imageURL := strings.TrimSpace(input.ImageURL)
	if text == "" && imageURL == "" {
		return nil, errors.Validation("message must have text or an image")
	}
	if len([]rune(text)) > maxMessageRunes {
		return nil, errors.Validation("message is too long")
	}

	if err := uc.allow(senderID, ratelimit.ActionSendMessage); err != nil {
		return nil, err
	}

	spanCtx, span := uc.tracer.Start(ctx, "chat.append_message", trace.WithAttributes(
		attribute.String("chat.id", chatID),
		attribute.Bool("chat.image", imageURL != ""),
	))
	defer span.End()

	message := &entity.Message{
		Sender:     senderID,
		SenderName: uc.senderName(spanCtx, senderID),
		Text:       text,
		ImageURL:   imageURL,
		ReadBy:     []string{senderID},
	}

	if err := uc.chatRepo.AppendMessage(spanCtx, chatID, message); err != nil {
		span.RecordError(err)
		return nil, err
	}

	kind := "text"
	if imageURL != "" {
		kind = "image"
	}
	metrics.MessagesAppended().WithLabelValues(kind).Inc()

	return message, nil
}

// SendImageMessage uploads the image under chatImages/{chatId} and appends a
// message carrying its URL.
func (uc *ChatUseCase) SendImageMessage(ctx context.Context, chatID, senderID string, file io.Reader, contentType, filename, caption string) (*entity.Message, error) {
	if uc.storage == nil {
		return nil, errors.Internal("Image upload is not configured", nil)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, errors.Validation("only image uploads are allowed")
	}

	// Check membership first so strangers cannot fill the bucket.
	if _, err := uc.GetRoom(ctx, senderID, chatID); err != nil {
		return nil, err
	}

	url, err := uc.storage.UploadFile(ctx, file, contentType, "chatImages/"+chatID, filename)
	if err != nil {
		return nil, errors.Internal("Failed to upload image", err)
	}

	message, err := uc.SendMessage(ctx, chatID, senderID, SendMessageInput{Text: caption, ImageURL: url})
	if err != nil {
		if delErr := uc.storage.DeleteFile(ctx, url); delErr != nil {
			uc.logger.Warn().Err(delErr).Str("url", url).Msg("failed to remove orphaned chat image")
		}
		return nil, err
	}
	return message, nil
}

type MessagePage struct {
	Messages []*entity.Message
	// Next continues with the messages before this page.
	Next    entity.MessageCursor
	HasMore bool
}

// ListMessages loads the page of messages before the cursor (newest page
// when zero) and returns it in chronological order.
func (uc *ChatUseCase) ListMessages(ctx context.Context, userID, chatID string, limit int, before entity.MessageCursor) (*MessagePage, error) {
	if _, err := uc.GetRoom(ctx, userID, chatID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultMessagesLimit
	}

	newestFirst, err := uc.chatRepo.ListMessages(ctx, chatID, limit+1, before)
	if err != nil {
		return nil, err
	}

	page := &MessagePage{}
	if len(newestFirst) > limit {
		page.HasMore = true
		newestFirst = newestFirst[:limit]
	}
	if n := len(newestFirst); n > 0 {
		page.Next = entity.CursorAt(newestFirst[n-1])
	}

	page.Messages = make([]*entity.Message, len(newestFirst))
	for i, m := range newestFirst {
		page.Messages[len(newestFirst)-1-i] = m
	}
	return page, nil
}

// MarkRoomRead zeroes the caller's unread counter. It does not touch the
// per-message receipts.
func (uc *ChatUseCase) MarkRoomRead(ctx context.Context, chatID, userID string) error {
	if _, err := uc.GetRoom(ctx, userID, chatID); err != nil {
		return err
	}
	return uc.chatRepo.ResetUnread(ctx, chatID, userID)
}

// MarkMessageRead adds userID to the message's readBy set. It does not touch
// the room's unread counter.
func (uc *ChatUseCase) MarkMessageRead(ctx context.Context, chatID, messageID, userID string) error {
	if chatID == "" || messageID == "" || userID == "" {
		return errors.Validation("chat id, message id and user id are required")
	}
	if _, err := uc.GetRoom(ctx, userID, chatID); err != nil {
		return err
	}
	return uc.chatRepo.AddReader(ctx, chatID, messageID, userID)
}

// Subscribe streams the room's messages in ascending order to fn until ctx
// ends. Messages from the other participant that the subscriber has not read
// yet are marked read as they are delivered.
func (uc *ChatUseCase) Subscribe(ctx context.Context, userID, chatID string, fn func([]*entity.Message) error) error {
	if _, err := uc.GetRoom(ctx, userID, chatID); err != nil {
		return err
	}

	return uc.chatRepo.WatchMessages(ctx, chatID, func(messages []*entity.Message) error {
		if err := fn(messages); err != nil {
			return err
		}

		for _, m := range messages {
			if m.Sender == userID || m.IsReadBy(userID) {
				continue
			}
			if err := uc.chatRepo.AddReader(ctx, chatID, m.ID, userID); err != nil {
				uc.logger.Warn().Err(err).Str("chat_id", chatID).Str("message_id", m.ID).Msg("failed to mark message read")
				continue
			}
			m.ReadBy = append(m.ReadBy, userID)
		}
		return nil
	})
}

// stripTags removes markup but keeps the text as typed; the policy escapes
// entities, which clients would otherwise show literally.
func (uc *ChatUseCase) stripTags(text string) string {
	return html.UnescapeString(uc.sanitizer.Sanitize(text))
}

func (uc *ChatUseCase) senderName(ctx context.Context, userID string) string {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		if !errors.IsNotFound(err) {
			uc.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to load sender profile")
		}
		return ""
	}
	return user.DisplayName
}

func (uc *ChatUseCase) allow(userID, action string) error {
	if uc.rateLimiter == nil {
		return nil
	}
	if allowed, wait := uc.rateLimiter.Allow(userID, action); !allowed {
		uc.logger.Warn().Str("user_id", userID).Str("action", action).Dur("retry_after", wait).Msg("rate limited")
		return errors.TooManyRequests("Rate limit exceeded, please wait before trying again")
	}
	return nil
}
