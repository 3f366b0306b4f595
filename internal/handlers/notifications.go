package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"gorm.io/gorm"

	"github.com/vacathon/vacathon-api/internal/auth"
	"github.com/vacathon/vacathon-api/internal/models"
)

const notificationPageSize = 20

type NotificationsHandler struct {
	db *gorm.DB
}

func NewNotificationsHandler(db *gorm.DB) *NotificationsHandler {
	return &NotificationsHandler{db: db}
}

type NotificationPayload struct {
	ID        uint    `json:"id"`
	Title     string  `json:"title"`
	Message   string  `json:"message"`
	Category  string  `json:"category"`
	LinkURL   string  `json:"link_url"`
	IsRead    bool    `json:"is_read"`
	CreatedAt string  `json:"created_at"`
	ReadAt    *string `json:"read_at"`
}

type InboxRequest struct {
	Unread bool `query:"unread" doc:"Only return unread notifications"`
	Page   int  `query:"page" minimum:"1" default:"1"`
}

type InboxResponse struct {
	Body struct {
		Results    []NotificationPayload `json:"results"`
		Unread     int64                 `json:"unread"`
		Pagination Pagination            `json:"pagination"`
	}
}

func (h *NotificationsHandler) HandleInbox(ctx context.Context, input *InboxRequest) (*InboxResponse, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	query := h.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ?", userID)
	if input.Unread {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to count notifications")
	}
	page := paginate(input.Page, notificationPageSize, total)

	var notes []models.Notification
	if err := query.Order("created_at DESC").
		Offset((page.Page - 1) * notificationPageSize).Limit(notificationPageSize).
		Find(&notes).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load notifications")
	}

	var unread int64
	if err := h.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&unread).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to count unread")
	}

	res := &InboxResponse{}
	res.Body.Results = make([]NotificationPayload, 0, len(notes))
	for i := range notes {
		res.Body.Results = append(res.Body.Results, serializeNotification(&notes[i]))
	}
	res.Body.Unread = unread
	res.Body.Pagination = page
	return res, nil
}

type MarkReadRequest struct {
	ID uint `path:"id"`
}

type MarkReadResponse struct {
	Body NotificationPayload
}

// HandleMarkRead marks one notification as read. Notifications of other
// users surface as 404.
func (h *NotificationsHandler) HandleMarkRead(ctx context.Context, input *MarkReadRequest) (*MarkReadResponse, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	var note models.Notification
	err := h.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", input.ID, userID).
		First(&note).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Notification not found")
		}
		return nil, huma.Error500InternalServerError("Failed to load notification")
	}

	if err := note.MarkRead(h.db.WithContext(ctx)); err != nil {
		return nil, huma.Error500InternalServerError("Failed to mark notification read")
	}

	return &MarkReadResponse{Body: serializeNotification(&note)}, nil
}

type MarkAllReadRequest struct{}

type MarkAllReadResponse struct {
	Body struct {
		Success bool  `json:"success"`
		Updated int64 `json:"updated"`
	}
}

func (h *NotificationsHandler) HandleMarkAllRead(ctx context.Context, _ *MarkAllReadRequest) (*MarkAllReadResponse, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	result := h.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "read_at": time.Now()})
	if result.Error != nil {
		return nil, huma.Error500InternalServerError("Failed to mark notifications read")
	}

	res := &MarkAllReadResponse{}
	res.Body.Success = true
	res.Body.Updated = result.RowsAffected
	return res, nil
}

func serializeNotification(n *models.Notification) NotificationPayload {
	return NotificationPayload{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Category:  string(n.Category),
		LinkURL:   n.LinkURL,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
		ReadAt:    timeStringPtr(n.ReadAt),
	}
}
