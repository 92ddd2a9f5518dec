package firebase

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goldmarket/internal/domain/entity"
)

type stubSender struct {
	got  *messaging.MulticastMessage
	resp *messaging.BatchResponse
	err  error
}

func (s *stubSender) SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	s.got = message
	return s.resp, s.err
}

var (
	errGone    = errors.New("registration-token-not-registered")
	errInvalid = errors.New("invalid-argument")
)

func TestSendMulticastClassifiesResults(t *testing.T) {
	sender := &stubSender{resp: &messaging.BatchResponse{
		SuccessCount: 1,
		FailureCount: 2,
		Responses: []*messaging.SendResponse{
			{Success: true, MessageID: "m1"},
			{Success: false, Error: errGone},
			{Success: false, Error: errors.New("unavailable")},
		},
	}}
	client := &FirebaseMessagingClient{
		client:      sender,
		isPermanent: func(err error) bool { return errors.Is(err, errGone) },
	}

	n := entity.Notification{Title: "t", Body: "b", Data: map[string]string{"type": "chat"}}
	results, err := client.SendMulticast(context.Background(), []string{"a", "b", "c"}, n)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].Success())
	assert.Equal(t, "m1", results[0].MessageID)
	assert.True(t, results[1].Permanent)
	assert.False(t, results[2].Permanent)
	assert.Error(t, results[2].Err)

	assert.Equal(t, "high", sender.got.Android.Priority)
	assert.Equal(t, "10", sender.got.APNS.Headers["apns-priority"])
	assert.Equal(t, "chat", sender.got.Data["type"])
	assert.Equal(t, "t", sender.got.Notification.Title)
}

func TestSendMulticastBatchError(t *testing.T) {
	client := &FirebaseMessagingClient{
		client:      &stubSender{err: errors.New("boom")},
		isPermanent: IsPermanentTokenError,
	}

	results, err := client.SendMulticast(context.Background(), []string{"a"}, entity.Notification{})
	assert.Error(t, err)
	assert.Nil(t, results)
}

func TestSendMulticastInvalidTokenBesideSuccess(t *testing.T) {
	newClient := func(responses ...*messaging.SendResponse) *FirebaseMessagingClient {
		return &FirebaseMessagingClient{
			client:       &stubSender{resp: &messaging.BatchResponse{Responses: responses}},
			isPermanent:  func(err error) bool { return errors.Is(err, errGone) },
			isInvalidArg: func(err error) bool { return errors.Is(err, errInvalid) },
		}
	}

	mixed := newClient(
		&messaging.SendResponse{Success: true, MessageID: "m1"},
		&messaging.SendResponse{Success: false, Error: errInvalid},
	)
	results, err := mixed.SendMulticast(context.Background(), []string{"good", "garbage"}, entity.Notification{})
	require.NoError(t, err)
	assert.True(t, results[0].Success())
	assert.True(t, results[1].Permanent)

	// nothing accepted the payload, so the payload may be at fault
	allFailed := newClient(
		&messaging.SendResponse{Success: false, Error: errInvalid},
		&messaging.SendResponse{Success: false, Error: errInvalid},
	)
	results, err = allFailed.SendMulticast(context.Background(), []string{"a", "b"}, entity.Notification{})
	require.NoError(t, err)
	assert.False(t, results[0].Permanent)
	assert.False(t, results[1].Permanent)
}
