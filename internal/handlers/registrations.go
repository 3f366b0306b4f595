package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/vacathon/vacathon-api/internal/auth"
	"github.com/vacathon/vacathon-api/internal/metrics"
	"github.com/vacathon/vacathon-api/internal/models"
	"github.com/vacathon/vacathon-api/internal/registration"
)

const registrationPageSize = 20

type RegistrationsHandler struct {
	db      *gorm.DB
	service *registration.Service
}

func NewRegistrationsHandler(db *gorm.DB, service *registration.Service) *RegistrationsHandler {
	return &RegistrationsHandler{db: db, service: service}
}

type RegisterRequest struct {
	Slug string `path:"slug"`
	Body struct {
		Category              *uint  `json:"category,omitempty" doc:"Category id; required when the event defines categories"`
		DistanceLabel         string `json:"distance_label,omitempty" doc:"Free-text distance; required when the event has no categories"`
		PhoneNumber           string `json:"phone_number"`
		EmergencyContactName  string `json:"emergency_contact_name"`
		EmergencyContactPhone string `json:"emergency_contact_phone"`
		MedicalNotes          string `json:"medical_notes,omitempty"`
	}
}

type RegisterResponse struct {
	Body struct {
		Created      bool                `json:"created"`
		Message      string              `json:"message"`
		Registration RegistrationPayload `json:"registration"`
	}
}

func (h *RegistrationsHandler) HandleRegister(ctx context.Context, input *RegisterRequest) (*RegisterResponse, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	reg, created, err := h.service.Submit(ctx, userID, input.Slug, registration.SubmitInput{
		CategoryID:            input.Body.Category,
		DistanceLabel:         input.Body.DistanceLabel,
		PhoneNumber:           strings.TrimSpace(input.Body.PhoneNumber),
		EmergencyContactName:  strings.TrimSpace(input.Body.EmergencyContactName),
		EmergencyContactPhone: strings.TrimSpace(input.Body.EmergencyContactPhone),
		MedicalNotes:          input.Body.MedicalNotes,
		SubmittedVia:          "api",
	})
	if err != nil {
		return nil, registrationError(err)
	}
	metrics.RegistrationsSubmitted.WithLabelValues(string(reg.Status)).Inc()

	if err := h.db.WithContext(ctx).Preload("Event.Categories").Preload("Category").Preload("User").
		First(reg, "id = ?", reg.ID).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to reload registration")
	}

	message := "Registration updated successfully."
	if created {
		message = "Registration submitted successfully."
	}
	if reg.Status == models.RegistrationWaitlisted {
		message += " You have been placed on the waitlist due to limited slots."
	}

	res := &RegisterResponse{}
	res.Body.Created = created
	res.Body.Message = message
	res.Body.Registration = serializeRegistration(reg)
	return res, nil
}

type MyRegistrationsRequest struct {
	Page int `query:"page" minimum:"1" default:"1"`
}

type MyRegistrationsResponse struct {
	Body struct {
		Results    []RegistrationPayload `json:"results"`
		Pagination Pagination            `json:"pagination"`
	}
}

func (h *RegistrationsHandler) HandleList(ctx context.Context, input *MyRegistrationsRequest) (*MyRegistrationsResponse, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	query := h.db.WithContext(ctx).Model(&models.EventRegistration{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to count registrations")
	}
	page := paginate(input.Page, registrationPageSize, total)

	var regs []models.EventRegistration
	if err := query.Preload("Event.Categories").Preload("Category").Preload("User").
		Order("created_at DESC").
		Offset((page.Page - 1) * registrationPageSize).Limit(registrationPageSize).
		Find(&regs).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load registrations")
	}

	res := &MyRegistrationsResponse{}
	res.Body.Results = make([]RegistrationPayload, 0, len(regs))
	for i := range regs {
		res.Body.Results = append(res.Body.Results, serializeRegistration(&regs[i]))
	}
	res.Body.Pagination = page
	return res, nil
}

type RegistrationDetailRequest struct {
	Reference string `path:"reference"`
}

type RegistrationDetailResponse struct {
	Body RegistrationPayload
}

// HandleDetail returns a registration by reference code. Registrations of
// other users surface as 404, never 403.
func (h *RegistrationsHandler) HandleDetail(ctx context.Context, input *RegistrationDetailRequest) (*RegistrationDetailResponse, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	var reg models.EventRegistration
	err := h.db.WithContext(ctx).Preload("Event.Categories").Preload("Category").Preload("User").
		Where("reference_code = ? AND user_id = ?", input.Reference, userID).
		First(&reg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Registration not found")
		}
		return nil, huma.Error500InternalServerError("Failed to load registration")
	}

	return &RegistrationDetailResponse{Body: serializeRegistration(&reg)}, nil
}

// registrationError maps service errors onto HTTP statuses.
func registrationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		details := make([]*huma.ErrorDetail, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, &huma.ErrorDetail{
				Message:  "This field is required.",
				Location: fe.Field(),
			})
		}
		return huma.Error422UnprocessableEntity("Validation failed", errorDetails(details)...)
	}

	switch {
	case errors.Is(err, registration.ErrEventNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, registration.ErrCategoryRequired),
		errors.Is(err, registration.ErrCategoryMismatch),
		errors.Is(err, registration.ErrDistanceRequired),
		errors.Is(err, registration.ErrRegistrationClosed):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, registration.ErrRegistrationNotFound):
		return huma.Error404NotFound(err.Error())
	}
	return huma.Error500InternalServerError("Failed to process registration: " + err.Error())
}

func errorDetails(details []*huma.ErrorDetail) []error {
	errs := make([]error, 0, len(details))
	for _, d := range details {
		errs = append(errs, d)
	}
	return errs
}
