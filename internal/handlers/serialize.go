package handlers

import (
	"time"

	"github.com/vacathon/vacathon-api/internal/models"
)

// Canonical JSON shapes shared by the web, mobile, and admin surfaces.

type CategoryPayload struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	DistanceKM  float64 `json:"distance_km"`
}

type EventPayload struct {
	ID                   uint              `json:"id"`
	Title                string            `json:"title"`
	Slug                 string            `json:"slug"`
	Description          string            `json:"description"`
	City                 string            `json:"city"`
	Country              string            `json:"country"`
	Venue                string            `json:"venue"`
	StartDate            string            `json:"start_date"`
	EndDate              *string           `json:"end_date"`
	RegistrationOpenDate *string           `json:"registration_open_date"`
	RegistrationDeadline string            `json:"registration_deadline"`
	Status               string            `json:"status"`
	IsRegistrationOpen   bool              `json:"is_registration_open"`
	PopularityScore      int               `json:"popularity_score"`
	ParticipantLimit     int               `json:"participant_limit"`
	RegisteredCount      int               `json:"registered_count"`
	CapacityRatio        int               `json:"capacity_ratio"`
	RemainingSlots       *int              `json:"remaining_slots"`
	Featured             bool              `json:"featured"`
	BannerImage          string            `json:"banner_image"`
	Categories           []CategoryPayload `json:"categories"`
}

type SchedulePayload struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	StartTime   string  `json:"start_time"`
	EndTime     *string `json:"end_time"`
	Description string  `json:"description"`
}

type AidStationPayload struct {
	ID              uint    `json:"id"`
	Name            string  `json:"name"`
	KilometerMarker float64 `json:"kilometer_marker"`
	Supplies        string  `json:"supplies"`
	IsMedical       bool    `json:"is_medical"`
}

type RouteSegmentPayload struct {
	ID            uint    `json:"id"`
	Order         int     `json:"order"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	DistanceKM    float64 `json:"distance_km"`
	ElevationGain int     `json:"elevation_gain"`
}

type DocumentPayload struct {
	ID           uint   `json:"id"`
	Title        string `json:"title"`
	DocumentURL  string `json:"document_url"`
	DocumentType string `json:"document_type"`
	UploadedBy   string `json:"uploaded_by"`
}

type RegistrationPayload struct {
	ID                    string            `json:"id"`
	ReferenceCode         string            `json:"reference_code"`
	UserID                uint              `json:"user_id"`
	UserUsername          string            `json:"user_username"`
	Event                 EventPayload      `json:"event"`
	CategoryID            *uint             `json:"category"`
	CategoryDisplayName   *string           `json:"category_display_name"`
	DistanceLabel         string            `json:"distance_label"`
	PhoneNumber           string            `json:"phone_number"`
	EmergencyContactName  string            `json:"emergency_contact_name"`
	EmergencyContactPhone string            `json:"emergency_contact_phone"`
	MedicalNotes          string            `json:"medical_notes"`
	Status                string            `json:"status"`
	PaymentStatus         string            `json:"payment_status"`
	FormPayload           map[string]string `json:"form_payload"`
	DecisionNote          string            `json:"decision_note"`
	CreatedAt             string            `json:"created_at"`
	UpdatedAt             string            `json:"updated_at"`
	ConfirmedAt           *string           `json:"confirmed_at"`
	CancelledAt           *string           `json:"cancelled_at"`
}

type Pagination struct {
	Page        int   `json:"page"`
	Pages       int   `json:"pages"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
	Total       int64 `json:"total"`
}

// paginate clamps the requested page into range and computes the envelope.
func paginate(page, perPage int, total int64) Pagination {
	pages := int((total + int64(perPage) - 1) / int64(perPage))
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	return Pagination{
		Page:        page,
		Pages:       pages,
		HasNext:     page < pages,
		HasPrevious: page > 1,
		Total:       total,
	}
}

func serializeCategory(c *models.EventCategory) CategoryPayload {
	return CategoryPayload{
		ID:          c.ID,
		Name:        c.Name,
		DisplayName: c.DisplayName,
		DistanceKM:  c.DistanceKM,
	}
}

func serializeEvent(e *models.Event) EventPayload {
	categories := make([]CategoryPayload, 0, len(e.Categories))
	for i := range e.Categories {
		categories = append(categories, serializeCategory(&e.Categories[i]))
	}
	return EventPayload{
		ID:                   e.ID,
		Title:                e.Title,
		Slug:                 e.Slug,
		Description:          e.Description,
		City:                 e.City,
		Country:              e.Country,
		Venue:                e.Venue,
		StartDate:            dateString(e.StartDate),
		EndDate:              dateStringPtr(e.EndDate),
		RegistrationOpenDate: dateStringPtr(e.RegistrationOpenDate),
		RegistrationDeadline: dateString(e.RegistrationDeadline),
		Status:               string(e.Status),
		IsRegistrationOpen:   e.IsRegistrationOpen(time.Now()),
		PopularityScore:      e.PopularityScore,
		ParticipantLimit:     e.ParticipantLimit,
		RegisteredCount:      e.RegisteredCount,
		CapacityRatio:        e.CapacityRatio(),
		RemainingSlots:       e.RemainingSlots(),
		Featured:             e.Featured,
		BannerImage:          e.BannerImage,
		Categories:           categories,
	}
}

func serializeRegistration(r *models.EventRegistration) RegistrationPayload {
	payload := RegistrationPayload{
		ID:                    r.ID.String(),
		ReferenceCode:         r.ReferenceCode,
		UserID:                r.UserID,
		UserUsername:          r.User.Username,
		Event:                 serializeEvent(&r.Event),
		CategoryID:            r.CategoryID,
		DistanceLabel:         r.DistanceLabel,
		PhoneNumber:           r.PhoneNumber,
		EmergencyContactName:  r.EmergencyContactName,
		EmergencyContactPhone: r.EmergencyContactPhone,
		MedicalNotes:          r.MedicalNotes,
		Status:                string(r.Status),
		PaymentStatus:         string(r.PaymentStatus),
		FormPayload:           r.FormPayload,
		DecisionNote:          r.DecisionNote,
		CreatedAt:             r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:             r.UpdatedAt.Format(time.RFC3339),
		ConfirmedAt:           timeStringPtr(r.ConfirmedAt),
		CancelledAt:           timeStringPtr(r.CancelledAt),
	}
	if r.Category != nil {
		payload.CategoryDisplayName = &r.Category.DisplayName
	}
	return payload
}

func dateString(t time.Time) string {
	return t.Format("2006-01-02")
}

func dateStringPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := dateString(*t)
	return &s
}

func timeStringPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
