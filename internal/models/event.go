package models

import (
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/vacathon/vacathon-api/internal/slug"
)

type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventOngoing   EventStatus = "ongoing"
	EventCompleted EventStatus = "completed"
)

// EventCategory is a race category inside an event (e.g. 5K, 21K).
// Reference data, immutable after creation.
type EventCategory struct {
	gorm.Model
	Name        string  `json:"name" gorm:"size:100;uniqueIndex"`
	DisplayName string  `json:"display_name" gorm:"size:150;uniqueIndex"`
	DistanceKM  float64 `json:"distance_km"`
}

// Event is a marathon event that can host multiple race categories.
type Event struct {
	gorm.Model
	Title                string          `json:"title" gorm:"size:200"`
	Slug                 string          `json:"slug" gorm:"size:220;uniqueIndex"`
	Description          string          `json:"description"`
	City                 string          `json:"city" gorm:"size:120;index"`
	Country              string          `json:"country" gorm:"size:120;default:Indonesia"`
	Venue                string          `json:"venue" gorm:"size:150"`
	StartDate            time.Time       `json:"start_date" gorm:"index"`
	EndDate              *time.Time      `json:"end_date"`
	RegistrationOpenDate *time.Time      `json:"registration_open_date"`
	RegistrationDeadline time.Time       `json:"registration_deadline"`
	Status               EventStatus     `json:"status" gorm:"size:20;default:upcoming;index"`
	PopularityScore      int             `json:"popularity_score"`
	ParticipantLimit     int             `json:"participant_limit"`
	RegisteredCount      int             `json:"registered_count"`
	Featured             bool            `json:"featured"`
	BannerImage          string          `json:"banner_image"`
	Categories           []EventCategory `json:"categories" gorm:"many2many:event_categories_events"`
}

// BeforeCreate assigns a unique slug derived from the title.
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.Slug != "" {
		return nil
	}
	unique, err := slug.Unique(slug.Make(e.Title), func(candidate string) (bool, error) {
		var count int64
		if err := tx.Model(&Event{}).Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return false, err
		}
		return count > 0, nil
	})
	if err != nil {
		return err
	}
	e.Slug = unique
	return nil
}

// IsRegistrationOpen reports whether registrations are accepted on the given
// day. A missing open date means the window opened already.
func (e *Event) IsRegistrationOpen(today time.Time) bool {
	if e.Status == EventCompleted {
		return false
	}
	day := today.Truncate(24 * time.Hour)
	if e.RegistrationOpenDate != nil && e.RegistrationOpenDate.After(day) {
		return false
	}
	return !e.RegistrationDeadline.Before(day)
}

// CapacityRatio is the filled percentage of the participant limit, capped at
// 100. Zero when the event has no limit.
func (e *Event) CapacityRatio() int {
	if e.ParticipantLimit == 0 {
		return 0
	}
	ratio := float64(e.RegisteredCount) / float64(e.ParticipantLimit) * 100
	return int(math.Round(math.Min(100, ratio)))
}

// RemainingSlots is the number of open slots, nil when unlimited.
func (e *Event) RemainingSlots() *int {
	if e.ParticipantLimit == 0 {
		return nil
	}
	remaining := e.ParticipantLimit - e.RegisteredCount
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

// DurationDays is the inclusive day span of the event, nil for single-day
// events without an end date.
func (e *Event) DurationDays() *int {
	if e.EndDate == nil {
		return nil
	}
	days := int(e.EndDate.Sub(e.StartDate).Hours()/24) + 1
	return &days
}
