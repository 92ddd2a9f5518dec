package entity

import (
	"sort"
	"strings"
	"time"
)

type ChatRoom struct {
	ID              string         `json:"id" firestore:"-"`
	Participants    []string       `json:"participants" firestore:"participants"`
	ParticipantsKey string         `json:"participants_key" firestore:"participantsKey"`
	ProductID       string         `json:"product_id,omitempty" firestore:"productId"`
	LastMessage     string         `json:"last_message" firestore:"lastMessage"`
	LastUpdated     time.Time      `json:"last_updated" firestore:"lastUpdated"`
	UnreadCount     map[string]int `json:"unread_count" firestore:"unreadCount"` // participant id -> unread messages
	CreatedAt       time.Time      `json:"created_at" firestore:"createdAt"`
}

// ParticipantsKey is the sorted join of the two ids, used to find an existing
// room for a pair regardless of who opened it.
func ParticipantsKey(userA, userB string) string {
	ids := []string{userA, userB}
	sort.Strings(ids)
	return strings.Join(ids, "_")
}

// SplitParticipantsKey recovers the pair from a key. Only meaningful when
// neither id contains "_", which holds for Firebase Auth uids.
func SplitParticipantsKey(key string) []string {
	parts := strings.Split(key, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil
	}
	return parts
}

func (c *ChatRoom) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the counterpart of userID, or false when userID is
// not in the room or no counterpart is recorded.
func (c *ChatRoom) OtherParticipant(userID string) (string, bool) {
	if !c.HasParticipant(userID) {
		return "", false
	}
	for _, p := range c.Participants {
		if p != userID && p != "" {
			return p, true
		}
	}
	return "", false
}
