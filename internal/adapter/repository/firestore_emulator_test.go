package repository

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goldmarket/internal/domain/entity"
	"goldmarket/pkg/errors"
	"goldmarket/pkg/logger"
)

// These tests need the Firestore emulator; they are skipped without it.
func emulatorClient(t *testing.T) *firestore.Client {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	client, err := firestore.NewClient(context.Background(), "goldmarket-test")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func uniquePair() (string, string) {
	suffix := uuid.NewString()[:8]
	return "alice" + suffix, "bob" + suffix
}

func newRoom(a, b, productID string) *entity.ChatRoom {
	return &entity.ChatRoom{
		Participants:    []string{a, b},
		ParticipantsKey: entity.ParticipantsKey(a, b),
		ProductID:       productID,
		UnreadCount:     map[string]int{a: 0, b: 0},
	}
}

func TestEmulatorCreateOrGetIsIdempotent(t *testing.T) {
	repo := NewFirestoreChatRepository(emulatorClient(t))
	ctx := context.Background()
	a, b := uniquePair()

	first, created, err := repo.CreateOrGet(ctx, newRoom(a, b, "p1"))
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := repo.CreateOrGet(ctx, newRoom(b, a, "p1"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	other, created, err := repo.CreateOrGet(ctx, newRoom(a, b, "p2"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestEmulatorConcurrentCreateYieldsOneRoom(t *testing.T) {
	repo := NewFirestoreChatRepository(emulatorClient(t))
	ctx := context.Background()
	a, b := uniquePair()

	var wg sync.WaitGroup
	ids := make([]string, 5)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			room, _, err := repo.CreateOrGet(ctx, newRoom(a, b, ""))
			if assert.NoError(t, err) {
				ids[i] = room.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestEmulatorAppendMessageCountsUnread(t *testing.T) {
	repo := NewFirestoreChatRepository(emulatorClient(t))
	ctx := context.Background()
	a, b := uniquePair()

	room, _, err := repo.CreateOrGet(ctx, newRoom(a, b, ""))
	require.NoError(t, err)

	const sends = 8
	var wg sync.WaitGroup
	for i := 0; i < sends; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg := &entity.Message{Sender: a, Text: fmt.Sprintf("m%d", i), ReadBy: []string{a}}
			assert.NoError(t, repo.AppendMessage(ctx, room.ID, msg))
		}(i)
	}
	wg.Wait()

	stored, err := repo.GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, sends, stored.UnreadCount[b])
	assert.Equal(t, 0, stored.UnreadCount[a])

	messages, err := repo.ListMessages(ctx, room.ID, 3, entity.MessageCursor{})
	require.NoError(t, err)
	assert.Len(t, messages, 3)

	require.NoError(t, repo.AddReader(ctx, room.ID, messages[0].ID, b))
	require.NoError(t, repo.AddReader(ctx, room.ID, messages[0].ID, b))
	require.NoError(t, repo.AddReader(ctx, room.ID, "missing", b))

	require.NoError(t, repo.ResetUnread(ctx, room.ID, b))
	stored, err = repo.GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.UnreadCount[b])
}

func TestEmulatorAppendMessageRejectsOutsider(t *testing.T) {
	repo := NewFirestoreChatRepository(emulatorClient(t))
	ctx := context.Background()
	a, b := uniquePair()

	room, _, err := repo.CreateOrGet(ctx, newRoom(a, b, ""))
	require.NoError(t, err)

	err = repo.AppendMessage(ctx, room.ID, &entity.Message{Sender: "mallory", Text: "hi"})
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	err = repo.AppendMessage(ctx, "no-such-room", &entity.Message{Sender: a, Text: "hi"})
	assert.True(t, errors.IsNotFound(err))
}

func TestEmulatorTokens(t *testing.T) {
	client := emulatorClient(t)
	repo := NewFirestoreUserRepository(client)
	ctx := context.Background()
	uid, _ := uniquePair()

	_, err := client.Collection(usersCollection).Doc(uid).Set(ctx, map[string]interface{}{"displayName": "Alice"})
	require.NoError(t, err)

	for _, token := range []string{"t1", "t2", "t1", "t3"} {
		require.NoError(t, repo.AddFCMToken(ctx, uid, token))
	}
	tokens, err := repo.GetFCMTokens(ctx, uid)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"t1", "t2", "t3"}, tokens)

	require.NoError(t, repo.RemoveFCMTokens(ctx, uid, []string{"t2"}))
	tokens, err = repo.GetFCMTokens(ctx, uid)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"t1", "t3"}, tokens)

	_, err = repo.GetFCMTokens(ctx, "ghost-"+uid)
	assert.True(t, errors.IsNotFound(err))
}

func TestEmulatorMigrateLegacyParticipants(t *testing.T) {
	client := emulatorClient(t)
	ctx := context.Background()
	a, b := uniquePair()

	ref := client.Collection(chatsCollection).Doc("legacy-" + a)
	_, err := ref.Set(ctx, map[string]interface{}{
		"participants":    map[string]interface{}{"0": a, "1": b},
		"participantsKey": entity.ParticipantsKey(a, b),
		"productId":       "",
	})
	require.NoError(t, err)

	report, err := NewChatMaintenance(client, logger.Nop()).NormalizeParticipants(ctx, false)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, report.Rewritten, 1)

	room, err := NewFirestoreChatRepository(client).GetByID(ctx, ref.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, room.Participants)

	snap, err := ref.Get(ctx)
	require.NoError(t, err)
	assert.True(t, IsCanonicalParticipants(snap.Data()["participants"]))
}

func TestEmulatorWatchMessagesSendsOnlyChanges(t *testing.T) {
	repo := NewFirestoreChatRepository(emulatorClient(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a, b := uniquePair()

	room, _, err := repo.CreateOrGet(ctx, newRoom(a, b, ""))
	require.NoError(t, err)
	for _, text := range []string{"one", "two"} {
		require.NoError(t, repo.AppendMessage(ctx, room.ID, &entity.Message{Sender: a, Text: text, ReadBy: []string{a}}))
	}

	frames := make(chan []*entity.Message, 4)
	go func() {
		_ = repo.WatchMessages(ctx, room.ID, func(messages []*entity.Message) error {
			frames <- messages
			return nil
		})
	}()

	next := func() []*entity.Message {
		select {
		case frame := <-frames:
			return frame
		case <-time.After(10 * time.Second):
			t.Fatal("no snapshot from the emulator")
			return nil
		}
	}

	assert.Len(t, next(), 2)

	require.NoError(t, repo.AppendMessage(ctx, room.ID, &entity.Message{Sender: b, Text: "three", ReadBy: []string{b}}))
	delta := next()
	require.Len(t, delta, 1)
	assert.Equal(t, "three", delta[0].Text)
}
