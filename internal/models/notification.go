package models

import "time"

const (
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationFollow  = "follow"
	NotificationMention = "mention"
	NotificationShare   = "share"

	MaxNotificationMessageLen = 255
)

// Notification represents a user notification (PostgreSQL)
type Notification struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	RecipientID uint         `json:"recipient_id" gorm:"not null;index:idx_notifications_recipient_created,priority:1;index:idx_notifications_recipient_read,priority:1"`
	SenderID    uint         `json:"sender_id" gorm:"not null"`
	Sender      *UserCompact `json:"sender,omitempty" gorm:"-"`
	Type        string       `json:"type" gorm:"size:20;not null"` // like, comment, follow, mention, share
	Message     string       `json:"message" gorm:"size:255"`
	PostID      *string      `json:"post_id,omitempty" gorm:"size:24"` // hex ObjectID of the post in MongoDB
	Read        bool         `json:"read" gorm:"default:false;index:idx_notifications_recipient_read,priority:2"`
	ReadAt      *time.Time   `json:"read_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at" gorm:"index:idx_notifications_recipient_created,priority:2"`
}

// NotificationGroups buckets a recipient's notifications by age.
type NotificationGroups struct {
	Today     []Notification `json:"today"`
	Yesterday []Notification `json:"yesterday"`
	ThisWeek  []Notification `json:"this_week"`
	Older     []Notification `json:"older"`
}
