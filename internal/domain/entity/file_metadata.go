package entity

import (
	"time"
)

const (
	UploadKindChatImage = "chat_image"
	UploadKindGoldStamp = "gold_stamp"
)

// FileMetadata records who uploaded an object and what it belongs to.
type FileMetadata struct {
	ID          string    `json:"id" firestore:"-"`
	URL         string    `json:"url" firestore:"url"`
	Kind        string    `json:"kind" firestore:"kind"`
	EntityID    string    `json:"entity_id,omitempty" firestore:"entityId"`
	UploadedBy  string    `json:"uploaded_by" firestore:"uploadedBy"`
	Filename    string    `json:"filename" firestore:"filename"`
	ContentType string    `json:"content_type" firestore:"contentType"`
	Size        int64     `json:"size" firestore:"size"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
}
