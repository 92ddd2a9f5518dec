package websocket

// Server to client frame types.
const (
	FrameMessages = "messages"
	FrameError    = "error"
	FramePong     = "pong"
)

// Client to server command types.
const (
	CommandPing     = "ping"
	CommandMarkRead = "mark_message_read"
)

type Frame struct {
	Type      string      `json:"type"`
	ChatID    string      `json:"chat_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type Command struct {
	Type      string `json:"type"`
	MessageID string `json:"message_id,omitempty"`
}

func ErrorFrame(message string) Frame {
	return Frame{Type: FrameError, Data: map[string]string{"message": message}}
}
