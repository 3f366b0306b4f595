package models

import (
	"time"

	"gorm.io/gorm"
)

type RaceHistoryStatus string

const (
	RacePending    RaceHistoryStatus = "pending"
	RaceRegistered RaceHistoryStatus = "registered"
	RaceCompleted  RaceHistoryStatus = "completed"
	RaceDNF        RaceHistoryStatus = "dnf"
	RaceDNS        RaceHistoryStatus = "dns"
	RaceUpcoming   RaceHistoryStatus = "upcoming"
)

// UserRaceHistory is the denormalized per-(profile, event, category) record
// of participation. Mirrored from EventRegistration, never the source of
// truth on its own.
type UserRaceHistory struct {
	gorm.Model
	ProfileID        uint              `json:"profile_id" gorm:"uniqueIndex:idx_history_profile_event_category"`
	Profile          UserProfile       `json:"-"`
	EventID          uint              `json:"event_id" gorm:"uniqueIndex:idx_history_profile_event_category"`
	Event            Event             `json:"-"`
	Category         string            `json:"category" gorm:"size:50;uniqueIndex:idx_history_profile_event_category"`
	RegistrationDate time.Time         `json:"registration_date"`
	Status           RaceHistoryStatus `json:"status" gorm:"size:20;default:pending"`
	BibNumber        string            `json:"bib_number" gorm:"size:20"`
	FinishTime       *time.Duration    `json:"finish_time"`
	MedalAwarded     bool              `json:"medal_awarded"`
	CertificateURL   string            `json:"certificate_url"`
	Notes            string            `json:"notes"`
}

// RunnerAchievement is a spotlight achievement on a runner profile.
type RunnerAchievement struct {
	gorm.Model
	ProfileID   uint       `json:"profile_id"`
	Title       string     `json:"title" gorm:"size:150"`
	Description string     `json:"description"`
	AchievedOn  *time.Time `json:"achieved_on"`
	Link        string     `json:"link"`
}
