package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"goldmarket/internal/domain/entity"
	"goldmarket/internal/domain/repository"
	"goldmarket/pkg/errors"
	"goldmarket/pkg/logger"
)

const (
	chatsCollection    = "chats"
	messagesCollection = "messages"
	// chatKeys/{participantsKey|productId} -> {chatId}; one per room.
	chatKeysCollection = "chatKeys"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

func (r *firestoreChatRepository) chats() *firestore.CollectionRef {
	return r.client.Collection(chatsCollection)
}

func chatKeyID(participantsKey, productID string) string {
	if productID == "" {
		productID = "-"
	}
	return participantsKey + "|" + productID
}

// CreateOrGet looks up and creates inside one transaction, keyed by a guard
// document, so two first-contact calls for the same pair and product cannot
// both create a room.
func (r *firestoreChatRepository) CreateOrGet(ctx context.Context, room *entity.ChatRoom) (*entity.ChatRoom, bool, error) {
	guardRef := r.client.Collection(chatKeysCollection).Doc(chatKeyID(room.ParticipantsKey, room.ProductID))

	var (
		result  *entity.ChatRoom
		created bool
	)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		result, created = nil, false

		guardSnap, err := tx.Get(guardRef)
		switch {
		case err == nil:
			chatID := toString(guardSnap.Data()["chatId"])
			if chatID != "" {
				chatSnap, err := tx.Get(r.chats().Doc(chatID))
				if err == nil {
					result, err = decodeChatRoom(chatSnap)
					return err
				}
				if status.Code(err) != codes.NotFound {
					return err
				}
			}
			// guard points at a deleted room; fall through and recreate
		case status.Code(err) != codes.NotFound:
			return err
		}

		// Rooms created before guard documents existed.
		legacy, err := tx.Documents(r.chats().
			Where("participantsKey", "==", room.ParticipantsKey).
			Where("productId", "==", room.ProductID).
			Limit(1)).GetAll()
		if err != nil {
			return err
		}

		var chatRef *firestore.DocumentRef
		if len(legacy) > 0 {
			result, err = decodeChatRoom(legacy[0])
			if err != nil {
				return err
			}
			chatRef = legacy[0].Ref
		} else {
			chatRef = r.chats().Doc(uuid.New().String())
			if err := tx.Create(chatRef, map[string]interface{}{
				"participants":    room.Participants,
				"participantsKey": room.ParticipantsKey,
				"productId":       room.ProductID,
				"lastMessage":     "",
				"lastUpdated":     firestore.ServerTimestamp,
				"unreadCount":     room.UnreadCount,
				"createdAt":       firestore.ServerTimestamp,
			}); err != nil {
				return err
			}
			now := time.Now()
			fresh := *room
			fresh.ID = chatRef.ID
			fresh.LastUpdated = now
			fresh.CreatedAt = now
			result = &fresh
			created = true
		}

		return tx.Set(guardRef, map[string]interface{}{
			"chatId":    chatRef.ID,
			"createdAt": firestore.ServerTimestamp,
		})
	})
	if err != nil {
		if _, ok := errors.AsAppError(err); ok {
			return nil, false, err
		}
		return nil, false, errors.Internal("Failed to create or get chat", err)
	}

	return result, created, nil
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.ChatRoom, error) {
	doc, err := r.chats().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat", err)
		}
		return nil, errors.Internal("Failed to get chat", err)
	}

	room, err := decodeChatRoom(doc)
	if err != nil {
		return nil, errors.Internal("Failed to parse chat data", err)
	}
	return room, nil
}

func (r *firestoreChatRepository) ListByParticipant(ctx context.Context, userID string, limit int) ([]*entity.ChatRoom, error) {
	query := r.chats().
		Where("participants", "array-contains", userID).
		OrderBy("lastUpdated", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var rooms []*entity.ChatRoom
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to fetch chats", err)
		}

		room, err := decodeChatRoom(doc)
		if err != nil {
			logger.Warn("Skipping malformed chat %s for user %s: %v", doc.Ref.ID, userID, err)
			continue
		}
		rooms = append(rooms, room)
	}

	return rooms, nil
}

// AppendMessage creates the message and updates lastMessage, lastUpdated and
// the counterpart's unread counter in one transaction. The counter uses a
// server-side increment so concurrent sends never lose an update.
func (r *firestoreChatRepository) AppendMessage(ctx context.Context, chatID string, message *entity.Message) error {
	roomRef := r.chats().Doc(chatID)
	msgRef := roomRef.Collection(messagesCollection).NewDoc()

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(roomRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Chat", err)
			}
			return err
		}

		room, err := decodeChatRoom(snap)
		if err != nil {
			return err
		}
		if !room.HasParticipant(message.Sender) {
			return errors.Forbidden("Sender is not a participant in this chat", nil)
		}

		if err := tx.Create(msgRef, message); err != nil {
			return err
		}

		updates := []firestore.Update{
			{Path: "lastMessage", Value: message.Preview()},
			{Path: "lastUpdated", Value: firestore.ServerTimestamp},
		}
		if other, ok := room.OtherParticipant(message.Sender); ok {
			updates = append(updates, firestore.Update{
				FieldPath: firestore.FieldPath{"unreadCount", other},
				Value:     firestore.Increment(1),
			})
		}
		return tx.Update(roomRef, updates)
	})
	if err != nil {
		if _, ok := errors.AsAppError(err); ok {
			return err
		}
		return errors.Internal("Failed to append message", err)
	}

	message.ID = msgRef.ID
	message.ChatID = chatID
	message.Timestamp = time.Now()
	if snap, err := msgRef.Get(ctx); err == nil {
		if ts := toTime(snap.Data()["timestamp"]); !ts.IsZero() {
			message.Timestamp = ts
		}
	} else {
		logger.Warn("AppendMessage: could not read back message %s in chat %s: %v", msgRef.ID, chatID, err)
	}

	return nil
}

func (r *firestoreChatRepository) ListMessages(ctx context.Context, chatID string, limit int, before entity.MessageCursor) ([]*entity.Message, error) {
	query := r.chats().Doc(chatID).Collection(messagesCollection).Query
	if !before.IsZero() && before.ID == "" {
		query = query.Where("timestamp", "<", before.Timestamp)
	}
	query = query.OrderBy("timestamp", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
	if !before.IsZero() && before.ID != "" {
		query = query.StartAfter(before.Timestamp, before.ID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var messages []*entity.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate messages", err)
		}
		messages = append(messages, decodeMessage(chatID, doc))
	}

	return messages, nil
}

func (r *firestoreChatRepository) WatchMessages(ctx context.Context, chatID string, fn func([]*entity.Message) error) error {
	snapshots := r.chats().Doc(chatID).Collection(messagesCollection).
		OrderBy("timestamp", firestore.Asc).
		Snapshots(ctx)
	defer snapshots.Stop()

	for {
		qs, err := snapshots.Next()
		if err != nil {
			if ctx.Err() != nil || status.Code(err) == codes.Canceled {
				return nil
			}
			return errors.Internal("Message subscription failed", err)
		}

		// The first snapshot reports every document as added.
		messages := make([]*entity.Message, 0, len(qs.Changes))
		for _, change := range qs.Changes {
			if change.Kind == firestore.DocumentRemoved {
				continue
			}
			messages = append(messages, decodeMessage(chatID, change.Doc))
		}
		if len(messages) == 0 {
			continue
		}

		if err := fn(messages); err != nil {
			return err
		}
	}
}

func (r *firestoreChatRepository) ResetUnread(ctx context.Context, chatID, userID string) error {
	_, err := r.chats().Doc(chatID).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"unreadCount", userID}, Value: 0},
		{Path: "lastUpdated", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Chat", err)
		}
		return errors.Internal("Failed to reset unread count", err)
	}
	return nil
}

func (r *firestoreChatRepository) AddReader(ctx context.Context, chatID, messageID, userID string) error {
	_, err := r.chats().Doc(chatID).Collection(messagesCollection).Doc(messageID).Update(ctx, []firestore.Update{
		{Path: "readBy", Value: firestore.ArrayUnion(userID)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			logger.Debug("AddReader: message %s not found in chat %s", messageID, chatID)
			return nil
		}
		return errors.Internal("Failed to update message read status", err)
	}
	return nil
}

func decodeChatRoom(snap *firestore.DocumentSnapshot) (*entity.ChatRoom, error) {
	data := snap.Data()
	if data == nil {
		return nil, errors.Internal("Chat document has no data", nil)
	}

	room := &entity.ChatRoom{
		ID:              snap.Ref.ID,
		ParticipantsKey: toString(data["participantsKey"]),
		ProductID:       toString(data["productId"]),
		LastMessage:     toString(data["lastMessage"]),
		LastUpdated:     toTime(data["lastUpdated"]),
		CreatedAt:       toTime(data["createdAt"]),
	}
	room.Participants = NormalizeParticipants(data["participants"], room.ParticipantsKey)
	room.UnreadCount = decodeUnreadCount(data["unreadCount"], room.Participants)

	return room, nil
}

func decodeMessage(chatID string, snap *firestore.DocumentSnapshot) *entity.Message {
	data := snap.Data()
	return &entity.Message{
		ID:         snap.Ref.ID,
		ChatID:     chatID,
		Sender:     toString(data["sender"]),
		SenderName: toString(data["senderName"]),
		Text:       toString(data["text"]),
		ImageURL:   toString(data["imageUrl"]),
		Timestamp:  toTime(data["timestamp"]),
		ReadBy:     toStringSlice(data["readBy"]),
	}
}
