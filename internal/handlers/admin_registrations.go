package handlers

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vacathon/vacathon-api/internal/models"
	"github.com/vacathon/vacathon-api/internal/registration"
)

const adminRegistrationPageSize = 25

// AdminRegistrationsHandler serves the staff-only registration desk. Status
// and payment changes go through the registration service so the counter,
// history, and notifications stay consistent.
type AdminRegistrationsHandler struct {
	db      *gorm.DB
	service *registration.Service
}

func NewAdminRegistrationsHandler(db *gorm.DB, service *registration.Service) *AdminRegistrationsHandler {
	return &AdminRegistrationsHandler{db: db, service: service}
}

type AdminRegistrationsListRequest struct {
	Page   int    `query:"page" minimum:"1" default:"1"`
	Status string `query:"status" enum:"pending,confirmed,waitlisted,cancelled,rejected,"`
	Event  string `query:"event" doc:"Filter by event slug"`
	Query  string `query:"q" doc:"Search by reference code or username"`
}

type AdminRegistrationsListResponse struct {
	Body struct {
		Results    []RegistrationPayload `json:"results"`
		Pagination Pagination            `json:"pagination"`
	}
}

func (h *AdminRegistrationsHandler) HandleList(ctx context.Context, input *AdminRegistrationsListRequest) (*AdminRegistrationsListResponse, error) {
	query := h.db.WithContext(ctx).Model(&models.EventRegistration{}).
		Joins("JOIN events ON events.id = event_registrations.event_id").
		Joins("JOIN users ON users.id = event_registrations.user_id")
	if input.Status != "" {
		query = query.Where("event_registrations.status = ?", input.Status)
	}
	if input.Event != "" {
		query = query.Where("events.slug = ?", input.Event)
	}
	if input.Query != "" {
		like := "%" + input.Query + "%"
		query = query.Where("event_registrations.reference_code LIKE ? OR users.username LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load registrations")
	}
	pagination := paginate(input.Page, adminRegistrationPageSize, total)

	var registrations []models.EventRegistration
	err := query.
		Preload("User").Preload("Event.Categories").Preload("Category").
		Order("event_registrations.created_at DESC").
		Offset((pagination.Page - 1) * adminRegistrationPageSize).
		Limit(adminRegistrationPageSize).
		Find(&registrations).Error
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load registrations")
	}

	res := &AdminRegistrationsListResponse{}
	res.Body.Results = make([]RegistrationPayload, 0, len(registrations))
	for i := range registrations {
		res.Body.Results = append(res.Body.Results, serializeRegistration(&registrations[i]))
	}
	res.Body.Pagination = pagination
	return res, nil
}

type AdminRegistrationStatusRequest struct {
	ID   string `path:"id" doc:"Registration UUID"`
	Body struct {
		Status       string `json:"status" enum:"pending,confirmed,waitlisted,cancelled,rejected"`
		DecisionNote string `json:"decision_note,omitempty"`
	}
}

type AdminRegistrationResponse struct {
	Body RegistrationPayload
}

func (h *AdminRegistrationsHandler) HandleSetStatus(ctx context.Context, input *AdminRegistrationStatusRequest) (*AdminRegistrationResponse, error) {
	id, err := uuid.Parse(input.ID)
	if err != nil {
		return nil, huma.Error404NotFound("Registration not found")
	}
	reg, err := h.service.SetStatus(ctx, id, models.RegistrationStatus(input.Body.Status), input.Body.DecisionNote)
	if err != nil {
		return nil, adminRegistrationError(err)
	}
	return h.respond(ctx, reg.ID)
}

type AdminRegistrationPaymentRequest struct {
	ID   string `path:"id" doc:"Registration UUID"`
	Body struct {
		PaymentStatus string `json:"payment_status" enum:"unpaid,paid,refunded"`
	}
}

func (h *AdminRegistrationsHandler) HandleSetPayment(ctx context.Context, input *AdminRegistrationPaymentRequest) (*AdminRegistrationResponse, error) {
	id, err := uuid.Parse(input.ID)
	if err != nil {
		return nil, huma.Error404NotFound("Registration not found")
	}
	reg, err := h.service.SetPaymentStatus(ctx, id, models.PaymentStatus(input.Body.PaymentStatus))
	if err != nil {
		return nil, adminRegistrationError(err)
	}
	return h.respond(ctx, reg.ID)
}

type AdminRegistrationDeleteRequest struct {
	ID string `path:"id" doc:"Registration UUID"`
}

type AdminRegistrationDeleteResponse struct {
	Body struct {
		Success bool `json:"success"`
	}
}

func (h *AdminRegistrationsHandler) HandleDelete(ctx context.Context, input *AdminRegistrationDeleteRequest) (*AdminRegistrationDeleteResponse, error) {
	id, err := uuid.Parse(input.ID)
	if err != nil {
		return nil, huma.Error404NotFound("Registration not found")
	}
	if err := h.service.Delete(ctx, id); err != nil {
		return nil, adminRegistrationError(err)
	}
	res := &AdminRegistrationDeleteResponse{}
	res.Body.Success = true
	return res, nil
}

func (h *AdminRegistrationsHandler) respond(ctx context.Context, id uuid.UUID) (*AdminRegistrationResponse, error) {
	var reg models.EventRegistration
	err := h.db.WithContext(ctx).
		Preload("User").Preload("Event.Categories").Preload("Category").
		Where("id = ?", id).First(&reg).Error
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load registration")
	}
	return &AdminRegistrationResponse{Body: serializeRegistration(&reg)}, nil
}

func adminRegistrationError(err error) error {
	if errors.Is(err, registration.ErrRegistrationNotFound) {
		return huma.Error404NotFound("Registration not found")
	}
	return huma.Error500InternalServerError("Failed to update registration")
}

type ParticipantPayload struct {
	ID               uint   `json:"id"`
	Username         string `json:"username"`
	DisplayName      string `json:"display_name"`
	Category         string `json:"category"`
	Status           string `json:"status"`
	BibNumber        string `json:"bib_number"`
	RegistrationDate string `json:"registration_date"`
}

type ParticipantsRequest struct {
	Slug string `path:"slug"`
	Page int    `query:"page" minimum:"1" default:"1"`
}

type ParticipantsResponse struct {
	Body struct {
		Results    []ParticipantPayload `json:"results"`
		Pagination Pagination           `json:"pagination"`
	}
}

// HandleParticipants lists the race-history rows for an event, which is the
// start-list view: one row per runner per category.
func (h *AdminRegistrationsHandler) HandleParticipants(ctx context.Context, input *ParticipantsRequest) (*ParticipantsResponse, error) {
	var event models.Event
	if err := h.db.WithContext(ctx).Where("slug = ?", input.Slug).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Event not found")
		}
		return nil, huma.Error500InternalServerError("Failed to load event")
	}

	query := h.db.WithContext(ctx).Model(&models.UserRaceHistory{}).
		Where("event_id = ?", event.ID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load participants")
	}
	pagination := paginate(input.Page, adminRegistrationPageSize, total)

	var rows []models.UserRaceHistory
	err := query.Preload("Profile.User").
		Order("registration_date").
		Offset((pagination.Page - 1) * adminRegistrationPageSize).
		Limit(adminRegistrationPageSize).
		Find(&rows).Error
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load participants")
	}

	res := &ParticipantsResponse{}
	res.Body.Results = make([]ParticipantPayload, 0, len(rows))
	for i := range rows {
		res.Body.Results = append(res.Body.Results, serializeParticipant(&rows[i]))
	}
	res.Body.Pagination = pagination
	return res, nil
}

type ParticipantConfirmRequest struct {
	Slug string `path:"slug"`
	ID   uint   `path:"id" doc:"Race history row ID"`
}

type ParticipantConfirmResponse struct {
	Body ParticipantPayload
}

// HandleConfirmParticipant marks a start-list row as upcoming and assigns a
// bib number if the runner does not have one yet.
func (h *AdminRegistrationsHandler) HandleConfirmParticipant(ctx context.Context, input *ParticipantConfirmRequest) (*ParticipantConfirmResponse, error) {
	var event models.Event
	if err := h.db.WithContext(ctx).Where("slug = ?", input.Slug).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Event not found")
		}
		return nil, huma.Error500InternalServerError("Failed to load event")
	}

	var row models.UserRaceHistory
	err := h.db.WithContext(ctx).Preload("Profile.User").
		Where("id = ? AND event_id = ?", input.ID, event.ID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Participant not found")
		}
		return nil, huma.Error500InternalServerError("Failed to load participant")
	}

	row.Status = models.RaceUpcoming
	if row.BibNumber == "" {
		row.BibNumber = newBibNumber(event.ID, row.Profile.UserID)
	}
	if err := h.db.WithContext(ctx).Save(&row).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to confirm participant")
	}
	return &ParticipantConfirmResponse{Body: serializeParticipant(&row)}, nil
}

// newBibNumber concatenates the event and user IDs with a random three-digit
// suffix. Uniqueness within an event comes from the user ID component.
func newBibNumber(eventID, userID uint) string {
	return fmt.Sprintf("%d%d%d", eventID, userID, 100+rand.IntN(900))
}

func serializeParticipant(row *models.UserRaceHistory) ParticipantPayload {
	return ParticipantPayload{
		ID:               row.ID,
		Username:         row.Profile.User.Username,
		DisplayName:      row.Profile.FullDisplayName(),
		Category:         row.Category,
		Status:           string(row.Status),
		BibNumber:        row.BibNumber,
		RegistrationDate: dateString(row.RegistrationDate),
	}
}
