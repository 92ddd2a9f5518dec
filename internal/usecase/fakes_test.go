package usecase

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"goldmarket/internal/domain/entity"
	"goldmarket/internal/domain/service"
	"goldmarket/pkg/errors"
)

type fakeChatRepo struct {
	mu       sync.Mutex
	rooms    map[string]*entity.ChatRoom
	keys     map[string]string
	messages map[string][]*entity.Message
	clock    time.Time
	frozen   bool
	seq      int
	creates  int
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		rooms:    make(map[string]*entity.ChatRoom),
		keys:     make(map[string]string),
		messages: make(map[string][]*entity.Message),
		clock:    time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (r *fakeChatRepo) tick() time.Time {
	if !r.frozen {
		r.clock = r.clock.Add(time.Second)
	}
	return r.clock
}

func copyRoom(room *entity.ChatRoom) *entity.ChatRoom {
	c := *room
	c.Participants = append([]string(nil), room.Participants...)
	c.UnreadCount = make(map[string]int, len(room.UnreadCount))
	for k, v := range room.UnreadCount {
		c.UnreadCount[k] = v
	}
	return &c
}

func copyMessage(m *entity.Message) *entity.Message {
	c := *m
	c.ReadBy = append([]string(nil), m.ReadBy...)
	return &c
}

func (r *fakeChatRepo) CreateOrGet(ctx context.Context, room *entity.ChatRoom) (*entity.ChatRoom, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := room.ParticipantsKey + "|" + room.ProductID
	if id, ok := r.keys[key]; ok {
		return copyRoom(r.rooms[id]), false, nil
	}

	r.seq++
	stored := copyRoom(room)
	stored.ID = fmt.Sprintf("room-%d", r.seq)
	stored.LastUpdated = r.tick()
	stored.CreatedAt = stored.LastUpdated
	r.rooms[stored.ID] = stored
	r.keys[key] = stored.ID
	r.creates++
	return copyRoom(stored), true, nil
}

func (r *fakeChatRepo) GetByID(ctx context.Context, id string) (*entity.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	return copyRoom(room), nil
}

func (r *fakeChatRepo) ListByParticipant(ctx context.Context, userID string, limit int) ([]*entity.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var rooms []*entity.ChatRoom
	for _, room := range r.rooms {
		if room.HasParticipant(userID) {
			rooms = append(rooms, copyRoom(room))
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].LastUpdated.After(rooms[j].LastUpdated) })
	if limit > 0 && len(rooms) > limit {
		rooms = rooms[:limit]
	}
	return rooms, nil
}

func (r *fakeChatRepo) AppendMessage(ctx context.Context, chatID string, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[chatID]
	if !ok {
		return errors.NotFound("Chat", nil)
	}
	if !room.HasParticipant(message.Sender) {
		return errors.Forbidden("Sender is not a participant in this chat", nil)
	}

	r.seq++
	message.ID = fmt.Sprintf("msg-%d", r.seq)
	message.ChatID = chatID
	message.Timestamp = r.tick()
	r.messages[chatID] = append(r.messages[chatID], copyMessage(message))

	room.LastMessage = message.Preview()
	room.LastUpdated = message.Timestamp
	if other, ok := room.OtherParticipant(message.Sender); ok {
		room.UnreadCount[other]++
	}
	return nil
}

// ListMessages orders by (timestamp, id) descending, as the store does.
func (r *fakeChatRepo) ListMessages(ctx context.Context, chatID string, limit int, before entity.MessageCursor) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := append([]*entity.Message(nil), r.messages[chatID]...)
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Timestamp.Equal(all[j].Timestamp) {
			return all[i].Timestamp.After(all[j].Timestamp)
		}
		return all[i].ID > all[j].ID
	})

	var out []*entity.Message
	for _, m := range all {
		if !before.IsZero() {
			older := m.Timestamp.Before(before.Timestamp) ||
				(before.ID != "" && m.Timestamp.Equal(before.Timestamp) && m.ID < before.ID)
			if !older {
				continue
			}
		}
		out = append(out, copyMessage(m))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// WatchMessages delivers one snapshot of the current messages.
func (r *fakeChatRepo) WatchMessages(ctx context.Context, chatID string, fn func([]*entity.Message) error) error {
	r.mu.Lock()
	snapshot := make([]*entity.Message, 0, len(r.messages[chatID]))
	for _, m := range r.messages[chatID] {
		snapshot = append(snapshot, copyMessage(m))
	}
	r.mu.Unlock()

	return fn(snapshot)
}

func (r *fakeChatRepo) ResetUnread(ctx context.Context, chatID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[chatID]
	if !ok {
		return errors.NotFound("Chat", nil)
	}
	room.UnreadCount[userID] = 0
	room.LastUpdated = r.tick()
	return nil
}

func (r *fakeChatRepo) AddReader(ctx context.Context, chatID, messageID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.messages[chatID] {
		if m.ID == messageID {
			if !m.IsReadBy(userID) {
				m.ReadBy = append(m.ReadBy, userID)
			}
			return nil
		}
	}
	return nil
}

func (r *fakeChatRepo) message(chatID, id string) *entity.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages[chatID] {
		if m.ID == id {
			return copyMessage(m)
		}
	}
	return nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]*entity.User
	tokens map[string][]string
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	r := &fakeUserRepo{
		users:  make(map[string]*entity.User),
		tokens: make(map[string][]string),
	}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	c := *u
	return &c, nil
}

func (r *fakeUserRepo) GetFCMTokens(ctx context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return nil, errors.NotFound("User", nil)
	}
	return append([]string(nil), r.tokens[userID]...), nil
}

func (r *fakeUserRepo) AddFCMToken(ctx context.Context, userID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return errors.NotFound("User", nil)
	}
	for _, t := range r.tokens[userID] {
		if t == token {
			return nil
		}
	}
	r.tokens[userID] = append(r.tokens[userID], token)
	return nil
}

func (r *fakeUserRepo) RemoveFCMTokens(ctx context.Context, userID string, tokens []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return errors.NotFound("User", nil)
	}
	drop := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		drop[t] = true
	}
	var kept []string
	for _, t := range r.tokens[userID] {
		if !drop[t] {
			kept = append(kept, t)
		}
	}
	r.tokens[userID] = kept
	return nil
}

type fakeTransport struct {
	mu        sync.Mutex
	calls     [][]string
	last      entity.Notification
	permanent map[string]bool
	transient map[string]bool
	batchErr  error
}

func (f *fakeTransport) SendMulticast(ctx context.Context, tokens []string, n entity.Notification) ([]service.DeliveryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, append([]string(nil), tokens...))
	f.last = n
	if f.batchErr != nil {
		return nil, f.batchErr
	}

	results := make([]service.DeliveryResult, len(tokens))
	for i, t := range tokens {
		results[i] = service.DeliveryResult{Token: t}
		switch {
		case f.permanent[t]:
			results[i].Err = fmt.Errorf("unregistered")
			results[i].Permanent = true
		case f.transient[t]:
			results[i].Err = fmt.Errorf("unavailable")
		default:
			results[i].MessageID = "ok-" + t
		}
	}
	return results, nil
}

type notifyCall struct {
	eventID      string
	userID       string
	notification entity.Notification
}

type fakeNotifier struct {
	mu     sync.Mutex
	calls  []notifyCall
	report DispatchReport
}

func (f *fakeNotifier) NotifyUser(ctx context.Context, eventID, userID string, n entity.Notification) DispatchReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, notifyCall{eventID: eventID, userID: userID, notification: n})
	return f.report
}

type fakeStorage struct {
	uploads []string
	deleted []string
	err     error
}

func (f *fakeStorage) UploadFile(ctx context.Context, file io.Reader, fileType, folder, filename string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.ReadAll(file); err != nil {
		return "", err
	}
	url := "https://storage.googleapis.com/bucket/" + folder + "/" + filename
	f.uploads = append(f.uploads, url)
	return url, nil
}

func (f *fakeStorage) DeleteFile(ctx context.Context, fileURL string) error {
	f.deleted = append(f.deleted, fileURL)
	return nil
}

func (f *fakeStorage) Close() error { return nil }

type fakeExchangeRepo struct {
	mu        sync.Mutex
	exchanges map[string]*entity.GoldExchange
	seq       int
}

func newFakeExchangeRepo() *fakeExchangeRepo {
	return &fakeExchangeRepo{exchanges: make(map[string]*entity.GoldExchange)}
}

func (r *fakeExchangeRepo) Create(ctx context.Context, exchange *entity.GoldExchange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	exchange.ID = fmt.Sprintf("ex-%d", r.seq)
	exchange.CreatedAt = time.Now()
	exchange.UpdatedAt = exchange.CreatedAt
	c := *exchange
	r.exchanges[exchange.ID] = &c
	return nil
}

func (r *fakeExchangeRepo) GetByID(ctx context.Context, id string) (*entity.GoldExchange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ex, ok := r.exchanges[id]
	if !ok {
		return nil, errors.NotFound("Gold exchange request", nil)
	}
	c := *ex
	return &c, nil
}

func (r *fakeExchangeRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*entity.GoldExchange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.GoldExchange
	for _, ex := range r.exchanges {
		if ex.UserID == userID {
			c := *ex
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeExchangeRepo) ListAll(ctx context.Context, status entity.ExchangeStatus, limit int) ([]*entity.GoldExchange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.GoldExchange
	for _, ex := range r.exchanges {
		if status == "" || ex.Status == status {
			c := *ex
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeExchangeRepo) UpdateStatus(ctx context.Context, id string, next entity.ExchangeStatus, check func(current entity.ExchangeStatus) error) (*entity.GoldExchange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ex, ok := r.exchanges[id]
	if !ok {
		return nil, errors.NotFound("Gold exchange request", nil)
	}
	if check != nil {
		if err := check(ex.Status); err != nil {
			return nil, err
		}
	}
	ex.Status = next
	ex.UpdatedAt = time.Now()
	c := *ex
	return &c, nil
}
