// Package notifier delivers user-facing notifications. The only channel is
// the in-app inbox backed by the notifications table.
package notifier

import (
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/vacathon/vacathon-api/internal/metrics"
	"github.com/vacathon/vacathon-api/internal/models"
)

type Notifier interface {
	Notify(recipientID uint, n Message) error
}

// Message is the delivery-agnostic notification payload.
type Message struct {
	Title    string
	Body     string
	Category models.NotificationCategory
	LinkURL  string
}

// InboxNotifier persists notifications as inbox rows.
type InboxNotifier struct {
	db     *gorm.DB
	logger zerolog.Logger
}

func NewInboxNotifier(db *gorm.DB, logger zerolog.Logger) *InboxNotifier {
	return &InboxNotifier{db: db, logger: logger}
}

func (n *InboxNotifier) Notify(recipientID uint, msg Message) error {
	category := msg.Category
	if category == "" {
		category = models.NotificationSystem
	}
	note := models.Notification{
		RecipientID: recipientID,
		Title:       msg.Title,
		Message:     msg.Body,
		Category:    category,
		LinkURL:     msg.LinkURL,
	}
	if err := n.db.Create(&note).Error; err != nil {
		n.logger.Error().Err(err).Uint("recipient", recipientID).Msg("failed to store notification")
		return err
	}
	metrics.NotificationsDispatched.Inc()
	return nil
}
