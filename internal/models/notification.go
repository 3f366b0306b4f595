package models

import (
	"time"

	"gorm.io/gorm"
)

type NotificationCategory string

const (
	NotificationRegistration NotificationCategory = "registration"
	NotificationEvent        NotificationCategory = "event"
	NotificationSystem       NotificationCategory = "system"
)

// Notification is a persistent in-app message for a user. Immutable apart
// from the read flag.
type Notification struct {
	gorm.Model
	RecipientID uint                 `json:"recipient_id" gorm:"index:idx_notification_recipient_read"`
	Recipient   User                 `json:"-"`
	Title       string               `json:"title" gorm:"size:200"`
	Message     string               `json:"message"`
	Category    NotificationCategory `json:"category" gorm:"size:20;default:system"`
	LinkURL     string               `json:"link_url" gorm:"size:250"`
	IsRead      bool                 `json:"is_read" gorm:"index:idx_notification_recipient_read"`
	ReadAt      *time.Time           `json:"read_at"`
}

// MarkRead sets the read flag once; re-reads keep the original timestamp.
func (n *Notification) MarkRead(db *gorm.DB) error {
	if n.IsRead {
		return nil
	}
	now := time.Now()
	n.IsRead = true
	n.ReadAt = &now
	return db.Model(n).Select("is_read", "read_at").Updates(n).Error
}
