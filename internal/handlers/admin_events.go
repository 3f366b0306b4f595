package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"gorm.io/gorm"

	"github.com/vacathon/vacathon-api/internal/models"
)

// AdminEventsHandler serves the staff-only event management API. All routes
// sit behind the staff middleware.
type AdminEventsHandler struct {
	db *gorm.DB
}

func NewAdminEventsHandler(db *gorm.DB) *AdminEventsHandler {
	return &AdminEventsHandler{db: db}
}

type eventFields struct {
	Title                string  `json:"title" minLength:"1" maxLength:"200"`
	Description          string  `json:"description,omitempty"`
	City                 string  `json:"city" minLength:"1" maxLength:"120"`
	Country              string  `json:"country,omitempty" maxLength:"120"`
	Venue                string  `json:"venue,omitempty" maxLength:"150"`
	StartDate            string  `json:"start_date" doc:"ISO date (YYYY-MM-DD)"`
	EndDate              *string `json:"end_date,omitempty"`
	RegistrationOpenDate *string `json:"registration_open_date,omitempty"`
	RegistrationDeadline string  `json:"registration_deadline" doc:"ISO date (YYYY-MM-DD)"`
	Status               string  `json:"status,omitempty" enum:"upcoming,ongoing,completed"`
	PopularityScore      *int    `json:"popularity_score,omitempty" minimum:"0"`
	ParticipantLimit     *int    `json:"participant_limit,omitempty" minimum:"0"`
	Featured             *bool   `json:"featured,omitempty"`
	BannerImage          string  `json:"banner_image,omitempty"`
	CategoryIDs          []uint  `json:"category_ids,omitempty"`
}

func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}

func (f *eventFields) apply(event *models.Event) error {
	event.Title = f.Title
	event.Description = f.Description
	event.City = f.City
	if f.Country != "" {
		event.Country = f.Country
	}
	event.Venue = f.Venue
	event.BannerImage = f.BannerImage

	start, err := parseDate(f.StartDate)
	if err != nil {
		return huma.Error400BadRequest("Invalid start_date format. Use ISO 8601 (YYYY-MM-DD).")
	}
	event.StartDate = start
	deadline, err := parseDate(f.RegistrationDeadline)
	if err != nil {
		return huma.Error400BadRequest("Invalid registration_deadline format. Use ISO 8601 (YYYY-MM-DD).")
	}
	event.RegistrationDeadline = deadline

	event.EndDate = nil
	if f.EndDate != nil && *f.EndDate != "" {
		end, err := parseDate(*f.EndDate)
		if err != nil {
			return huma.Error400BadRequest("Invalid end_date format. Use ISO 8601 (YYYY-MM-DD).")
		}
		if end.Before(event.StartDate) {
			return huma.Error400BadRequest("end_date cannot be before start_date")
		}
		event.EndDate = &end
	}
	event.RegistrationOpenDate = nil
	if f.RegistrationOpenDate != nil && *f.RegistrationOpenDate != "" {
		open, err := parseDate(*f.RegistrationOpenDate)
		if err != nil {
			return huma.Error400BadRequest("Invalid registration_open_date format. Use ISO 8601 (YYYY-MM-DD).")
		}
		event.RegistrationOpenDate = &open
	}

	if f.Status != "" {
		event.Status = models.EventStatus(f.Status)
	}
	if f.PopularityScore != nil {
		event.PopularityScore = *f.PopularityScore
	}
	if f.ParticipantLimit != nil {
		event.ParticipantLimit = *f.ParticipantLimit
	}
	if f.Featured != nil {
		event.Featured = *f.Featured
	}
	return nil
}

func (h *AdminEventsHandler) loadCategories(ctx context.Context, ids []uint) ([]models.EventCategory, error) {
	if len(ids) == 0 {
		return []models.EventCategory{}, nil
	}
	var categories []models.EventCategory
	if err := h.db.WithContext(ctx).Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load categories")
	}
	if len(categories) != len(ids) {
		return nil, huma.Error400BadRequest("One or more category_ids do not exist")
	}
	return categories, nil
}

type AdminEventCreateRequest struct {
	Body eventFields
}

type AdminEventResponse struct {
	Body EventPayload
}

func (h *AdminEventsHandler) HandleCreate(ctx context.Context, input *AdminEventCreateRequest) (*AdminEventResponse, error) {
	var event models.Event
	if err := input.Body.apply(&event); err != nil {
		return nil, err
	}
	categories, err := h.loadCategories(ctx, input.Body.CategoryIDs)
	if err != nil {
		return nil, err
	}
	event.Categories = categories

	if err := h.db.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to create event")
	}
	return &AdminEventResponse{Body: serializeEvent(&event)}, nil
}

type AdminEventUpdateRequest struct {
	Slug string `path:"slug"`
	Body eventFields
}

func (h *AdminEventsHandler) HandleUpdate(ctx context.Context, input *AdminEventUpdateRequest) (*AdminEventResponse, error) {
	var event models.Event
	if err := h.db.WithContext(ctx).Where("slug = ?", input.Slug).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Event not found")
		}
		return nil, huma.Error500InternalServerError("Failed to load event")
	}
	if err := input.Body.apply(&event); err != nil {
		return nil, err
	}
	categories, err := h.loadCategories(ctx, input.Body.CategoryIDs)
	if err != nil {
		return nil, err
	}

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Categories").Save(&event).Error; err != nil {
			return err
		}
		return tx.Model(&event).Association("Categories").Replace(categories)
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to update event")
	}
	event.Categories = categories
	return &AdminEventResponse{Body: serializeEvent(&event)}, nil
}

type AdminEventDeleteRequest struct {
	Slug string `path:"slug"`
}

type AdminEventDeleteResponse struct {
	Body struct {
		Success bool `json:"success"`
	}
}

func (h *AdminEventsHandler) HandleDelete(ctx context.Context, input *AdminEventDeleteRequest) (*AdminEventDeleteResponse, error) {
	var event models.Event
	if err := h.db.WithContext(ctx).Where("slug = ?", input.Slug).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Event not found")
		}
		return nil, huma.Error500InternalServerError("Failed to load event")
	}

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&event).Association("Categories").Clear(); err != nil {
			return err
		}
		return tx.Delete(&event).Error
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to delete event")
	}

	res := &AdminEventDeleteResponse{}
	res.Body.Success = true
	return res, nil
}

type CategoriesRequest struct{}

type CategoriesResponse struct {
	Body struct {
		Results []CategoryPayload `json:"results"`
	}
}

func (h *AdminEventsHandler) HandleListCategories(ctx context.Context, _ *CategoriesRequest) (*CategoriesResponse, error) {
	var categories []models.EventCategory
	if err := h.db.WithContext(ctx).Order("distance_km").Order("name").Find(&categories).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load categories")
	}
	res := &CategoriesResponse{}
	res.Body.Results = make([]CategoryPayload, 0, len(categories))
	for i := range categories {
		res.Body.Results = append(res.Body.Results, serializeCategory(&categories[i]))
	}
	return res, nil
}

type CategoryCreateRequest struct {
	Body struct {
		Name        string  `json:"name" minLength:"1" maxLength:"100"`
		DisplayName string  `json:"display_name" minLength:"1" maxLength:"150"`
		DistanceKM  float64 `json:"distance_km" minimum:"0"`
	}
}

type CategoryCreateResponse struct {
	Body CategoryPayload
}

func (h *AdminEventsHandler) HandleCreateCategory(ctx context.Context, input *CategoryCreateRequest) (*CategoryCreateResponse, error) {
	category := models.EventCategory{
		Name:        input.Body.Name,
		DisplayName: input.Body.DisplayName,
		DistanceKM:  input.Body.DistanceKM,
	}
	var existing int64
	if err := h.db.WithContext(ctx).Model(&models.EventCategory{}).
		Where("name = ? OR display_name = ?", category.Name, category.DisplayName).
		Count(&existing).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to create category")
	}
	if existing > 0 {
		return nil, huma.Error400BadRequest("A category with that name already exists")
	}
	if err := h.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to create category")
	}
	return &CategoryCreateResponse{Body: serializeCategory(&category)}, nil
}
