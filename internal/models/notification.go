package models

import "time"

type NotificationType string

const (
	NotificationLike     NotificationType = "LIKE"
	NotificationComment  NotificationType = "COMMENT"
	NotificationFollow   NotificationType = "FOLLOW"
	NotificationFavorite NotificationType = "FAVORITE"
	NotificationMessage  NotificationType = "MESSAGE"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationLike, NotificationComment, NotificationFollow,
		NotificationFavorite, NotificationMessage:
		return true
	}
	return false
}

type Notification struct {
	ID          int64            `json:"id"`
	RecipientID int64            `json:"recipient_id"`
	SenderID    int64            `json:"sender_id"`
	Type        NotificationType `json:"type"`
	Content     string           `json:"content"`
	IsRead      bool             `json:"is_read"`
	CreatedAt   time.Time        `json:"created_at"`
}
