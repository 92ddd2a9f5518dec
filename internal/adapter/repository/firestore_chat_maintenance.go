package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"goldmarket/internal/domain/entity"
	"goldmarket/pkg/errors"
)

type MigrationReport struct {
	Scanned       int      `json:"scanned"`
	Rewritten     int      `json:"rewritten"`
	GuardsWritten int      `json:"guards_written"`
	Unrecoverable []string `json:"unrecoverable,omitempty"`
}

// ChatMaintenance rewrites legacy chat documents into the canonical shape:
// participants as a plain id list, participantsKey set, and a chatKeys guard
// document per room.
type ChatMaintenance struct {
	client *firestore.Client
	logger zerolog.Logger
}

func NewChatMaintenance(client *firestore.Client, logger zerolog.Logger) *ChatMaintenance {
	return &ChatMaintenance{
		client: client,
		logger: logger.With().Str("component", "chat_maintenance").Logger(),
	}
}

func (m *ChatMaintenance) NormalizeParticipants(ctx context.Context, dryRun bool) (*MigrationReport, error) {
	report := &MigrationReport{}

	iter := m.client.Collection(chatsCollection).Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return report, errors.Internal("Failed to scan chats", err)
		}
		report.Scanned++

		data := doc.Data()
		raw := data["participants"]
		key := toString(data["participantsKey"])
		ids := NormalizeParticipants(raw, key)
		if len(ids) != 2 {
			m.logger.Warn().Str("chat_id", doc.Ref.ID).Int("participants", len(ids)).Msg("cannot recover participant pair")
			report.Unrecoverable = append(report.Unrecoverable, doc.Ref.ID)
			continue
		}

		updates := planParticipantUpdates(raw, key, ids)
		canonicalKey := entity.ParticipantsKey(ids[0], ids[1])

		if len(updates) > 0 {
			m.logger.Info().Str("chat_id", doc.Ref.ID).Strs("participants", ids).Bool("dry_run", dryRun).Msg("rewriting chat")
			if !dryRun {
				if _, err := doc.Ref.Update(ctx, updates); err != nil {
					return report, errors.Internal("Failed to rewrite chat "+doc.Ref.ID, err)
				}
			}
			report.Rewritten++
		}

		written, err := m.ensureGuard(ctx, canonicalKey, toString(data["productId"]), doc.Ref.ID, dryRun)
		if err != nil {
			return report, err
		}
		if written {
			report.GuardsWritten++
		}
	}

	return report, nil
}

// planParticipantUpdates lists the field writes needed to make a stored room
// canonical. Empty means the document is already fine.
func planParticipantUpdates(raw interface{}, key string, ids []string) []firestore.Update {
	var updates []firestore.Update

	stored := toStringSlice(raw)
	if !IsCanonicalParticipants(raw) || len(stored) != len(ids) {
		updates = append(updates, firestore.Update{Path: "participants", Value: ids})
	}
	if canonical := entity.ParticipantsKey(ids[0], ids[1]); key != canonical {
		updates = append(updates, firestore.Update{Path: "participantsKey", Value: canonical})
	}
	return updates
}

// ensureGuard creates the chatKeys document for a room unless one exists.
// An existing guard is left alone even if it points at another room.
func (m *ChatMaintenance) ensureGuard(ctx context.Context, participantsKey, productID, chatID string, dryRun bool) (bool, error) {
	ref := m.client.Collection(chatKeysCollection).Doc(chatKeyID(participantsKey, productID))

	_, err := ref.Get(ctx)
	if err == nil {
		return false, nil
	}
	if status.Code(err) != codes.NotFound {
		return false, errors.Internal("Failed to read chat guard", err)
	}
	if dryRun {
		return true, nil
	}

	_, err = ref.Create(ctx, map[string]interface{}{
		"chatId":    chatID,
		"createdAt": firestore.ServerTimestamp,
	})
	if status.Code(err) == codes.AlreadyExists {
		return false, nil
	}
	if err != nil {
		return false, errors.Internal("Failed to write chat guard", err)
	}
	return true, nil
}
