package handlers

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"gorm.io/gorm"

	"github.com/vacathon/vacathon-api/internal/models"
)

const eventPageSize = 9

type EventsHandler struct {
	db *gorm.DB
}

func NewEventsHandler(db *gorm.DB) *EventsHandler {
	return &EventsHandler{db: db}
}

type EventListRequest struct {
	Q        string `query:"q" doc:"Free-text search over title and description"`
	City     string `query:"city"`
	Status   string `query:"status" enum:"upcoming,ongoing,completed,"`
	Category uint   `query:"category" doc:"Category id filter"`
	SortBy   string `query:"sort_by" enum:"popularity,soonest,latest,"`
	Page     int    `query:"page" minimum:"1" default:"1"`
}

type EventListResponse struct {
	Body struct {
		Results    []EventPayload `json:"results"`
		Pagination Pagination     `json:"pagination"`
	}
}

func (h *EventsHandler) HandleList(ctx context.Context, input *EventListRequest) (*EventListResponse, error) {
	query := h.db.WithContext(ctx).Model(&models.Event{})

	if input.Q != "" {
		like := "%" + input.Q + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", like, like)
	}
	if input.City != "" {
		query = query.Where("city LIKE ?", "%"+input.City+"%")
	}
	if input.Status != "" {
		query = query.Where("status = ?", input.Status)
	}
	if input.Category != 0 {
		query = query.
			Joins("JOIN event_categories_events ece ON ece.event_id = events.id").
			Where("ece.event_category_id = ?", input.Category)
	}

	switch input.SortBy {
	case "popularity":
		query = query.Order("popularity_score DESC").Order("start_date")
	case "latest":
		query = query.Order("start_date DESC")
	default:
		query = query.Order("start_date")
	}

	// Count on its own session so the DISTINCT id select does not leak
	// into the row query below.
	var total int64
	if err := query.Session(&gorm.Session{}).Distinct("events.id").Count(&total).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to count events")
	}

	page := paginate(input.Page, eventPageSize, total)

	var events []models.Event
	if err := query.Distinct("events.*").Preload("Categories").
		Offset((page.Page - 1) * eventPageSize).Limit(eventPageSize).
		Find(&events).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load events")
	}

	res := &EventListResponse{}
	res.Body.Results = make([]EventPayload, 0, len(events))
	for i := range events {
		res.Body.Results = append(res.Body.Results, serializeEvent(&events[i]))
	}
	res.Body.Pagination = page
	return res, nil
}

type EventDetailRequest struct {
	Slug string `path:"slug"`
}

type EventDetailResponse struct {
	Body struct {
		EventPayload
		Schedules     []SchedulePayload     `json:"schedules"`
		AidStations   []AidStationPayload   `json:"aid_stations"`
		RouteSegments []RouteSegmentPayload `json:"route_segments"`
		Documents     []DocumentPayload     `json:"documents"`
		MapURL        string                `json:"map_url"`
	}
}

func (h *EventsHandler) HandleDetail(ctx context.Context, input *EventDetailRequest) (*EventDetailResponse, error) {
	var event models.Event
	if err := h.db.WithContext(ctx).Preload("Categories").
		Where("slug = ?", input.Slug).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Event not found")
		}
		return nil, huma.Error500InternalServerError("Failed to load event")
	}

	res := &EventDetailResponse{}
	res.Body.EventPayload = serializeEvent(&event)
	res.Body.MapURL = mapURL(&event)

	var schedules []models.EventSchedule
	if err := h.db.WithContext(ctx).Where("event_id = ?", event.ID).
		Order("start_time").Find(&schedules).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load schedules")
	}
	res.Body.Schedules = make([]SchedulePayload, 0, len(schedules))
	for _, s := range schedules {
		res.Body.Schedules = append(res.Body.Schedules, SchedulePayload{
			ID:          s.ID,
			Title:       s.Title,
			StartTime:   s.StartTime.Format(time.RFC3339),
			EndTime:     timeStringPtr(s.EndTime),
			Description: s.Description,
		})
	}

	var stations []models.AidStation
	if err := h.db.WithContext(ctx).Where("event_id = ?", event.ID).
		Order("kilometer_marker").Find(&stations).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load aid stations")
	}
	res.Body.AidStations = make([]AidStationPayload, 0, len(stations))
	for _, a := range stations {
		res.Body.AidStations = append(res.Body.AidStations, AidStationPayload{
			ID:              a.ID,
			Name:            a.Name,
			KilometerMarker: a.KilometerMarker,
			Supplies:        a.Supplies,
			IsMedical:       a.IsMedical,
		})
	}

	var segments []models.RouteSegment
	if err := h.db.WithContext(ctx).Where("event_id = ?", event.ID).
		Order("`order`").Find(&segments).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load route segments")
	}
	res.Body.RouteSegments = make([]RouteSegmentPayload, 0, len(segments))
	for _, seg := range segments {
		res.Body.RouteSegments = append(res.Body.RouteSegments, RouteSegmentPayload{
			ID:            seg.ID,
			Order:         seg.Order,
			Title:         seg.Title,
			Description:   seg.Description,
			DistanceKM:    seg.DistanceKM,
			ElevationGain: seg.ElevationGain,
		})
	}

	var documents []models.EventDocument
	if err := h.db.WithContext(ctx).Where("event_id = ?", event.ID).
		Order("document_type").Order("title").Find(&documents).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load documents")
	}
	res.Body.Documents = make([]DocumentPayload, 0, len(documents))
	for _, d := range documents {
		res.Body.Documents = append(res.Body.Documents, DocumentPayload{
			ID:           d.ID,
			Title:        d.Title,
			DocumentURL:  d.DocumentURL,
			DocumentType: string(d.DocumentType),
			UploadedBy:   d.UploadedBy,
		})
	}

	return res, nil
}

type HomeRequest struct{}

type HomeStat struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

type HomeResponse struct {
	Body struct {
		Stats          []HomeStat     `json:"stats"`
		Highlight      *EventPayload  `json:"highlight"`
		UpcomingEvents []EventPayload `json:"upcoming_events"`
	}
}

// HandleHome builds the landing summary: platform stats, the highlighted
// event, and up to three other upcoming events.
func (h *EventsHandler) HandleHome(ctx context.Context, _ *HomeRequest) (*HomeResponse, error) {
	db := h.db.WithContext(ctx)

	var totalEvents int64
	if err := db.Model(&models.Event{}).Count(&totalEvents).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load stats")
	}
	var totalRunners int64
	if err := db.Model(&models.Event{}).
		Select("COALESCE(SUM(registered_count), 0)").Scan(&totalRunners).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load stats")
	}
	var cities int64
	if err := db.Model(&models.Event{}).Where("city <> ''").
		Distinct("city").Count(&cities).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load stats")
	}

	res := &HomeResponse{}
	res.Body.Stats = []HomeStat{
		{Label: "Events", Value: totalEvents},
		{Label: "Registered Runners", Value: totalRunners},
		{Label: "Active Cities", Value: cities},
	}

	highlight, err := h.highlightEvent(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load highlight")
	}

	excludeIDs := []uint{0}
	if highlight != nil {
		payload := serializeEvent(highlight)
		res.Body.Highlight = &payload
		excludeIDs = append(excludeIDs, highlight.ID)
	}

	var upcoming []models.Event
	if err := db.Preload("Categories").
		Where("status IN ?", []models.EventStatus{models.EventUpcoming, models.EventOngoing}).
		Where("id NOT IN ?", excludeIDs).
		Order("start_date").Limit(3).Find(&upcoming).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load upcoming events")
	}
	if len(upcoming) < 3 {
		already := append([]uint{}, excludeIDs...)
		for _, e := range upcoming {
			already = append(already, e.ID)
		}
		var fallback []models.Event
		if err := db.Preload("Categories").Where("id NOT IN ?", already).
			Order("start_date").Limit(3 - len(upcoming)).Find(&fallback).Error; err != nil {
			return nil, huma.Error500InternalServerError("Failed to load upcoming events")
		}
		upcoming = append(upcoming, fallback...)
	}

	res.Body.UpcomingEvents = make([]EventPayload, 0, len(upcoming))
	for i := range upcoming {
		res.Body.UpcomingEvents = append(res.Body.UpcomingEvents, serializeEvent(&upcoming[i]))
	}
	return res, nil
}

// highlightEvent picks the featured selection: nearest upcoming/ongoing
// event (ties broken by popularity), else the most recent past event, else
// any event at all.
func (h *EventsHandler) highlightEvent(ctx context.Context) (*models.Event, error) {
	db := h.db.WithContext(ctx)

	var event models.Event
	err := db.Preload("Categories").
		Where("status IN ?", []models.EventStatus{models.EventUpcoming, models.EventOngoing}).
		Order("start_date").Order("popularity_score DESC").
		First(&event).Error
	if err == nil {
		return &event, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = db.Preload("Categories").
		Where("start_date <= ?", time.Now()).
		Order("start_date DESC").Order("popularity_score DESC").
		First(&event).Error
	if err == nil {
		return &event, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = db.Preload("Categories").Order("start_date").First(&event).Error
	if err == nil {
		return &event, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, err
}

func mapURL(event *models.Event) string {
	parts := ""
	for _, p := range []string{event.Venue, event.City, event.Country} {
		if p == "" {
			continue
		}
		if parts != "" {
			parts += " "
		}
		parts += p
	}
	if parts == "" {
		return ""
	}
	return "https://www.google.com/maps?q=" + url.QueryEscape(parts+" marathon") + "&output=embed"
}
