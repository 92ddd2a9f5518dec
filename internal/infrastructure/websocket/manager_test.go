package websocket

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerRegisterUnregister(t *testing.T) {
	m := NewManager()
	a := NewClient(context.Background(), nil, "alice", "room-1")
	b := NewClient(context.Background(), nil, "bob", "room-1")

	m.Register(a)
	m.Register(b)
	assert.Equal(t, 2, m.Count("room-1"))

	m.Unregister(a)
	assert.Equal(t, 1, m.Count("room-1"))
	assert.Error(t, a.Context().Err())
	assert.ErrorIs(t, a.SendFrame(Frame{Type: FrameMessages}), ErrClientClosed)

	m.Shutdown()
	assert.Equal(t, 0, m.Count("room-1"))
	assert.Error(t, b.Context().Err())
}

func TestSendFrameQueuesJSON(t *testing.T) {
	c := NewClient(context.Background(), nil, "alice", "room-1")
	require.NoError(t, c.SendFrame(Frame{Type: FrameMessages, ChatID: "room-1", Data: []string{"x"}}))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(<-c.send, &got))
	assert.Equal(t, "messages", got["type"])
	assert.Equal(t, "room-1", got["chat_id"])
	assert.NotEmpty(t, got["timestamp"])
}

func TestSlowClientIsDropped(t *testing.T) {
	c := NewClient(context.Background(), nil, "alice", "room-1")
	for i := 0; i < sendBuffer; i++ {
		require.NoError(t, c.SendFrame(Frame{Type: FramePong}))
	}
	assert.ErrorIs(t, c.SendFrame(Frame{Type: FramePong}), ErrClientClosed)
	assert.Error(t, c.Context().Err())
}
