package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RegistrationStatus string

const (
	RegistrationPending    RegistrationStatus = "pending"
	RegistrationConfirmed  RegistrationStatus = "confirmed"
	RegistrationWaitlisted RegistrationStatus = "waitlisted"
	RegistrationCancelled  RegistrationStatus = "cancelled"
	RegistrationRejected   RegistrationStatus = "rejected"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// ActiveRegistrationStatuses are the statuses that count toward event capacity.
var ActiveRegistrationStatuses = []RegistrationStatus{
	RegistrationPending,
	RegistrationConfirmed,
	RegistrationWaitlisted,
}

// EventRegistration is a user's request to participate in an event.
// Exactly one row exists per (user, event) pair.
type EventRegistration struct {
	ID                    uuid.UUID          `json:"id" gorm:"primaryKey"`
	ReferenceCode         string             `json:"reference_code" gorm:"size:18;uniqueIndex"`
	UserID                uint               `json:"user_id" gorm:"uniqueIndex:idx_registration_user_event;index:idx_registration_user_status"`
	User                  User               `json:"-"`
	EventID               uint               `json:"event_id" gorm:"uniqueIndex:idx_registration_user_event;index:idx_registration_event_status"`
	Event                 Event              `json:"-"`
	CategoryID            *uint              `json:"category_id"`
	Category              *EventCategory     `json:"-"`
	DistanceLabel         string             `json:"distance_label" gorm:"size:50"`
	PhoneNumber           string             `json:"phone_number" gorm:"size:30"`
	EmergencyContactName  string             `json:"emergency_contact_name" gorm:"size:120"`
	EmergencyContactPhone string             `json:"emergency_contact_phone" gorm:"size:30"`
	MedicalNotes          string             `json:"medical_notes"`
	Status                RegistrationStatus `json:"status" gorm:"size:20;default:pending;index:idx_registration_user_status;index:idx_registration_event_status"`
	PaymentStatus         PaymentStatus      `json:"payment_status" gorm:"size:15;default:unpaid"`
	FormPayload           map[string]string  `json:"form_payload" gorm:"serializer:json"`
	DecisionNote          string             `json:"decision_note"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`
	ConfirmedAt           *time.Time         `json:"confirmed_at"`
	CancelledAt           *time.Time         `json:"cancelled_at"`
}

func (r *EventRegistration) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// IsActive reports whether the registration counts toward event capacity.
func (r *EventRegistration) IsActive() bool {
	switch r.Status {
	case RegistrationPending, RegistrationConfirmed, RegistrationWaitlisted:
		return true
	}
	return false
}

// CategoryLabel is the human label of the chosen distance, falling back to
// the free-text label, then to "Open Category".
func (r *EventRegistration) CategoryLabel() string {
	if r.Category != nil {
		return r.Category.DisplayName
	}
	if r.DistanceLabel != "" {
		return r.DistanceLabel
	}
	return "Open Category"
}
