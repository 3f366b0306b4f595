package handlers

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"gorm.io/gorm"

	"github.com/vacathon/vacathon-api/internal/auth"
	"github.com/vacathon/vacathon-api/internal/models"
)

type ProfilesHandler struct {
	db *gorm.DB
}

func NewProfilesHandler(db *gorm.DB) *ProfilesHandler {
	return &ProfilesHandler{db: db}
}

type AchievementPayload struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	AchievedOn  *string `json:"achieved_on"`
	Link        string  `json:"link"`
}

type HistoryPayload struct {
	ID               uint     `json:"id"`
	Event            string   `json:"event"`
	EventSlug        string   `json:"event_slug"`
	Category         string   `json:"category"`
	Status           string   `json:"status"`
	RegistrationDate string   `json:"registration_date"`
	BibNumber        string   `json:"bib_number"`
	FinishSeconds    *float64 `json:"finish_time"`
	MedalAwarded     bool     `json:"medal_awarded"`
	CertificateURL   string   `json:"certificate_url"`
}

type ProfilePayload struct {
	Username              string               `json:"username"`
	DisplayName           string               `json:"display_name"`
	Bio                   string               `json:"bio"`
	City                  string               `json:"city"`
	Country               string               `json:"country"`
	AvatarURL             string               `json:"avatar_url"`
	FavoriteDistance      string               `json:"favorite_distance"`
	EmergencyContactName  string               `json:"emergency_contact_name"`
	EmergencyContactPhone string               `json:"emergency_contact_phone"`
	Website               string               `json:"website"`
	InstagramHandle       string               `json:"instagram_handle"`
	StravaProfile         string               `json:"strava_profile"`
	BirthDate             *string              `json:"birth_date"`
	IsStaff               bool                 `json:"is_staff"`
	Achievements          []AchievementPayload `json:"achievements"`
	History               []HistoryPayload     `json:"history"`
}

// profileFor loads the caller's profile. Profiles are provisioned at
// signup, so a missing row is an error, not a cue to create one.
func (h *ProfilesHandler) profileFor(ctx context.Context, userID uint) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := h.db.WithContext(ctx).Preload("User").
		Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Profile not found")
		}
		return nil, huma.Error500InternalServerError("Failed to load profile")
	}
	return &profile, nil
}

type ProfileRequest struct{}

type ProfileResponse struct {
	Body ProfilePayload
}

func (h *ProfilesHandler) HandleGetProfile(ctx context.Context, _ *ProfileRequest) (*ProfileResponse, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}
	profile, err := h.profileFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	payload, err := h.serializeProfile(ctx, profile)
	if err != nil {
		return nil, err
	}
	return &ProfileResponse{Body: *payload}, nil
}

type ProfileUpdateRequest struct {
	Body struct {
		DisplayName           *string `json:"display_name,omitempty" maxLength:"150"`
		Bio                   *string `json:"bio,omitempty"`
		City                  *string `json:"city,omitempty" maxLength:"120"`
		Country               *string `json:"country,omitempty" maxLength:"120"`
		AvatarURL             *string `json:"avatar_url,omitempty"`
		FavoriteDistance      *string `json:"favorite_distance,omitempty"`
		EmergencyContactName  *string `json:"emergency_contact_name,omitempty" maxLength:"120"`
		EmergencyContactPhone *string `json:"emergency_contact_phone,omitempty" maxLength:"30"`
		Website               *string `json:"website,omitempty"`
		InstagramHandle       *string `json:"instagram_handle,omitempty" maxLength:"80"`
		StravaProfile         *string `json:"strava_profile,omitempty"`
		BirthDate             *string `json:"birth_date,omitempty" doc:"ISO date (YYYY-MM-DD)"`
	}
}

func (h *ProfilesHandler) HandleUpdateProfile(ctx context.Context, input *ProfileUpdateRequest) (*ProfileResponse, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}
	profile, err := h.profileFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&profile.DisplayName, input.Body.DisplayName)
	set(&profile.Bio, input.Body.Bio)
	set(&profile.City, input.Body.City)
	set(&profile.Country, input.Body.Country)
	set(&profile.AvatarURL, input.Body.AvatarURL)
	set(&profile.EmergencyContactName, input.Body.EmergencyContactName)
	set(&profile.EmergencyContactPhone, input.Body.EmergencyContactPhone)
	set(&profile.Website, input.Body.Website)
	set(&profile.InstagramHandle, input.Body.InstagramHandle)
	set(&profile.StravaProfile, input.Body.StravaProfile)

	if input.Body.FavoriteDistance != nil {
		fd := *input.Body.FavoriteDistance
		if fd != "" && !slices.Contains(models.FavoriteDistances, fd) {
			return nil, huma.Error400BadRequest("Invalid favorite_distance")
		}
		profile.FavoriteDistance = fd
	}
	if input.Body.BirthDate != nil {
		if *input.Body.BirthDate == "" {
			profile.BirthDate = nil
		} else {
			parsed, err := time.Parse("2006-01-02", *input.Body.BirthDate)
			if err != nil {
				return nil, huma.Error400BadRequest("Invalid birth_date format. Use ISO 8601 (YYYY-MM-DD).")
			}
			profile.BirthDate = &parsed
		}
	}

	if err := h.db.WithContext(ctx).Save(profile).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to save profile")
	}

	payload, err := h.serializeProfile(ctx, profile)
	if err != nil {
		return nil, err
	}
	return &ProfileResponse{Body: *payload}, nil
}

type DashboardRequest struct{}

type DashboardResponse struct {
	Body struct {
		Profile   ProfilePayload   `json:"profile"`
		Upcoming  []HistoryPayload `json:"upcoming_history"`
		Completed []HistoryPayload `json:"completed_history"`
		Stats     struct {
			TotalEvents int64 `json:"total_events"`
			Completed   int64 `json:"completed"`
			Upcoming    int64 `json:"upcoming"`
		} `json:"stats"`
		NextEvent *EventPayload `json:"next_event"`
	}
}

func (h *ProfilesHandler) HandleDashboard(ctx context.Context, _ *DashboardRequest) (*DashboardResponse, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}
	profile, err := h.profileFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	payload, err := h.serializeProfile(ctx, profile)
	if err != nil {
		return nil, err
	}

	base := h.db.WithContext(ctx).Model(&models.UserRaceHistory{}).Where("profile_id = ?", profile.ID)
	upcomingStatuses := []models.RaceHistoryStatus{models.RaceUpcoming, models.RaceRegistered}

	res := &DashboardResponse{}
	res.Body.Profile = *payload

	if err := base.Session(&gorm.Session{}).Count(&res.Body.Stats.TotalEvents).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load stats")
	}
	if err := base.Session(&gorm.Session{}).Where("status = ?", models.RaceCompleted).
		Count(&res.Body.Stats.Completed).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load stats")
	}
	if err := base.Session(&gorm.Session{}).Where("status IN ?", upcomingStatuses).
		Count(&res.Body.Stats.Upcoming).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load stats")
	}

	var upcoming []models.UserRaceHistory
	if err := h.db.WithContext(ctx).Preload("Event").
		Where("profile_id = ? AND status IN ?", profile.ID, upcomingStatuses).
		Order("registration_date DESC").Limit(5).Find(&upcoming).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load history")
	}
	res.Body.Upcoming = serializeHistoryRows(upcoming)

	var completed []models.UserRaceHistory
	if err := h.db.WithContext(ctx).Preload("Event").
		Where("profile_id = ? AND status = ?", profile.ID, models.RaceCompleted).
		Order("registration_date DESC").Limit(5).Find(&completed).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load history")
	}
	res.Body.Completed = serializeHistoryRows(completed)

	var next models.UserRaceHistory
	err = h.db.WithContext(ctx).
		Joins("JOIN events ON events.id = user_race_histories.event_id").
		Preload("Event.Categories").
		Where("profile_id = ? AND user_race_histories.status IN ?", profile.ID, upcomingStatuses).
		Order("events.start_date").First(&next).Error
	if err == nil {
		eventPayload := serializeEvent(&next.Event)
		res.Body.NextEvent = &eventPayload
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, huma.Error500InternalServerError("Failed to load next event")
	}

	return res, nil
}

type AchievementsRequest struct{}

type AchievementsResponse struct {
	Body struct {
		Results []AchievementPayload `json:"results"`
	}
}

func (h *ProfilesHandler) HandleListAchievements(ctx context.Context, _ *AchievementsRequest) (*AchievementsResponse, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}
	profile, err := h.profileFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	achievements, err := h.loadAchievements(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	res := &AchievementsResponse{}
	res.Body.Results = achievements
	return res, nil
}

type AchievementCreateRequest struct {
	Body struct {
		Title       string  `json:"title" minLength:"1" maxLength:"150"`
		Description string  `json:"description,omitempty"`
		AchievedOn  *string `json:"achieved_on,omitempty" doc:"ISO date (YYYY-MM-DD)"`
		Link        string  `json:"link,omitempty"`
	}
}

type AchievementCreateResponse struct {
	Body AchievementPayload
}

func (h *ProfilesHandler) HandleCreateAchievement(ctx context.Context, input *AchievementCreateRequest) (*AchievementCreateResponse, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}
	profile, err := h.profileFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	achievement := models.RunnerAchievement{
		ProfileID:   profile.ID,
		Title:       input.Body.Title,
		Description: input.Body.Description,
		Link:        input.Body.Link,
	}
	if input.Body.AchievedOn != nil && *input.Body.AchievedOn != "" {
		parsed, err := time.Parse("2006-01-02", *input.Body.AchievedOn)
		if err != nil {
			return nil, huma.Error400BadRequest("Invalid achieved_on format. Use ISO 8601 (YYYY-MM-DD).")
		}
		achievement.AchievedOn = &parsed
	}
	if err := h.db.WithContext(ctx).Create(&achievement).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to create achievement")
	}

	return &AchievementCreateResponse{Body: serializeAchievement(&achievement)}, nil
}

type AchievementDeleteRequest struct {
	ID uint `path:"id"`
}

type AchievementDeleteResponse struct {
	Body struct {
		Success bool `json:"success"`
	}
}

func (h *ProfilesHandler) HandleDeleteAchievement(ctx context.Context, input *AchievementDeleteRequest) (*AchievementDeleteResponse, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}
	profile, err := h.profileFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := h.db.WithContext(ctx).
		Where("id = ? AND profile_id = ?", input.ID, profile.ID).
		Delete(&models.RunnerAchievement{})
	if result.Error != nil {
		return nil, huma.Error500InternalServerError("Failed to delete achievement")
	}
	if result.RowsAffected == 0 {
		return nil, huma.Error404NotFound("Achievement not found")
	}

	res := &AchievementDeleteResponse{}
	res.Body.Success = true
	return res, nil
}

func (h *ProfilesHandler) loadAchievements(ctx context.Context, profileID uint) ([]AchievementPayload, error) {
	var achievements []models.RunnerAchievement
	if err := h.db.WithContext(ctx).Where("profile_id = ?", profileID).
		Order("achieved_on DESC").Order("title").Find(&achievements).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load achievements")
	}
	payloads := make([]AchievementPayload, 0, len(achievements))
	for i := range achievements {
		payloads = append(payloads, serializeAchievement(&achievements[i]))
	}
	return payloads, nil
}

func (h *ProfilesHandler) serializeProfile(ctx context.Context, profile *models.UserProfile) (*ProfilePayload, error) {
	achievements, err := h.loadAchievements(ctx, profile.ID)
	if err != nil {
		return nil, err
	}

	var history []models.UserRaceHistory
	if err := h.db.WithContext(ctx).Preload("Event").
		Where("profile_id = ?", profile.ID).
		Order("registration_date DESC").Find(&history).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load history")
	}

	return &ProfilePayload{
		Username:              profile.User.Username,
		DisplayName:           profile.FullDisplayName(),
		Bio:                   profile.Bio,
		City:                  profile.City,
		Country:               profile.Country,
		AvatarURL:             profile.AvatarURL,
		FavoriteDistance:      profile.FavoriteDistance,
		EmergencyContactName:  profile.EmergencyContactName,
		EmergencyContactPhone: profile.EmergencyContactPhone,
		Website:               profile.Website,
		InstagramHandle:       profile.InstagramHandle,
		StravaProfile:         profile.StravaProfile,
		BirthDate:             dateStringPtr(profile.BirthDate),
		IsStaff:               profile.User.IsStaff,
		Achievements:          achievements,
		History:               serializeHistoryRows(history),
	}, nil
}

func serializeAchievement(a *models.RunnerAchievement) AchievementPayload {
	return AchievementPayload{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		AchievedOn:  dateStringPtr(a.AchievedOn),
		Link:        a.Link,
	}
}

func serializeHistoryRows(rows []models.UserRaceHistory) []HistoryPayload {
	payloads := make([]HistoryPayload, 0, len(rows))
	for i := range rows {
		payloads = append(payloads, serializeHistory(&rows[i]))
	}
	return payloads
}

func serializeHistory(item *models.UserRaceHistory) HistoryPayload {
	payload := HistoryPayload{
		ID:               item.ID,
		Event:            item.Event.Title,
		EventSlug:        item.Event.Slug,
		Category:         item.Category,
		Status:           string(item.Status),
		RegistrationDate: dateString(item.RegistrationDate),
		BibNumber:        item.BibNumber,
		MedalAwarded:     item.MedalAwarded,
		CertificateURL:   item.CertificateURL,
	}
	if item.FinishTime != nil {
		seconds := item.FinishTime.Seconds()
		payload.FinishSeconds = &seconds
	}
	return payload
}
