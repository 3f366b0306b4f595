package models

import (
	"time"

	"gorm.io/gorm"
)

// EventSchedule is a timetable item tied to an event (expo, briefing, flag-off).
type EventSchedule struct {
	gorm.Model
	EventID     uint       `json:"event_id"`
	Title       string     `json:"title" gorm:"size:150"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Description string     `json:"description"`
}

// AidStation is a checkpoint along the route.
type AidStation struct {
	gorm.Model
	EventID         uint    `json:"event_id"`
	Name            string  `json:"name" gorm:"size:120"`
	KilometerMarker float64 `json:"kilometer_marker"`
	Supplies        string  `json:"supplies" gorm:"size:200"`
	IsMedical       bool    `json:"is_medical"`
}

// RouteSegment is a narrative section of the marathon route.
type RouteSegment struct {
	gorm.Model
	EventID       uint    `json:"event_id" gorm:"uniqueIndex:idx_event_segment_order"`
	Order         int     `json:"order" gorm:"uniqueIndex:idx_event_segment_order"`
	Title         string  `json:"title" gorm:"size:150"`
	Description   string  `json:"description"`
	DistanceKM    float64 `json:"distance_km"`
	ElevationGain int     `json:"elevation_gain"`
}

type DocumentType string

const (
	DocumentGPX      DocumentType = "gpx"
	DocumentGuide    DocumentType = "guide"
	DocumentBrochure DocumentType = "brochure"
	DocumentOther    DocumentType = "other"
)

// EventDocument is a supporting file such as a GPX route or race guide.
type EventDocument struct {
	gorm.Model
	EventID      uint         `json:"event_id"`
	Title        string       `json:"title" gorm:"size:150"`
	DocumentURL  string       `json:"document_url"`
	DocumentType DocumentType `json:"document_type" gorm:"size:20;default:other"`
	UploadedBy   string       `json:"uploaded_by" gorm:"size:120;default:Organizing Committee"`
}
