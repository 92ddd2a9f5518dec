package entity

import (
	"time"
)

const RoleAdmin = "admin"

type User struct {
	ID          string    `json:"id" firestore:"-"`
	Email       string    `json:"email" firestore:"email"`
	DisplayName string    `json:"display_name" firestore:"displayName"`
	Phone       string    `json:"phone,omitempty" firestore:"phone,omitempty"`
	Role        string    `json:"role" firestore:"role"`
	PhotoURL    string    `json:"photo_url,omitempty" firestore:"photoURL,omitempty"`
	FCMTokens   []string  `json:"-" firestore:"fcmTokens"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
