package entity

import (
	"strings"
	"time"
)

// ImagePlaceholder is what a room shows as last message for image-only sends.
const ImagePlaceholder = "[image]"

type Message struct {
	ID         string    `json:"id" firestore:"-"`
	ChatID     string    `json:"chat_id" firestore:"-"`
	Sender     string    `json:"sender" firestore:"sender"`
	SenderName string    `json:"sender_name,omitempty" firestore:"senderName,omitempty"`
	Text       string    `json:"text" firestore:"text"`
	ImageURL   string    `json:"image_url,omitempty" firestore:"imageUrl,omitempty"`
	Timestamp  time.Time `json:"timestamp" firestore:"timestamp,serverTimestamp"`
	ReadBy     []string  `json:"read_by" firestore:"readBy"`
}

func (m *Message) HasContent() bool {
	return strings.TrimSpace(m.Text) != "" || strings.TrimSpace(m.ImageURL) != ""
}

// Preview is the denormalized text cached on the room.
func (m *Message) Preview() string {
	if m.Text != "" {
		return m.Text
	}
	return ImagePlaceholder
}

// MessageCursor marks a position in a room's history. Messages are ordered
// by timestamp and then by id, so messages sharing a timestamp page cleanly.
type MessageCursor struct {
	Timestamp time.Time
	ID        string
}

func (c MessageCursor) IsZero() bool {
	return c.Timestamp.IsZero()
}

// CursorAt is the cursor that continues after m.
func CursorAt(m *Message) MessageCursor {
	return MessageCursor{Timestamp: m.Timestamp, ID: m.ID}
}

func (m *Message) IsReadBy(userID string) bool {
	for _, r := range m.ReadBy {
		if r == userID {
			return true
		}
	}
	return false
}
