// Package registration implements the registration workflow: one row per
// (user, event), capacity-aware status assignment, and the save-time side
// effects (reference code, history sync, event counter, notifications).
package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vacathon/vacathon-api/internal/models"
	"github.com/vacathon/vacathon-api/internal/notifier"
)

var (
	ErrEventNotFound        = errors.New("event not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrRegistrationClosed   = errors.New("registration window is closed")
	ErrCategoryRequired     = errors.New("please select an available distance")
	ErrCategoryMismatch     = errors.New("category does not belong to this event")
	ErrDistanceRequired     = errors.New("please specify your intended distance")
)

type Service struct {
	db       *gorm.DB
	notifier notifier.Notifier
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewService(db *gorm.DB, n notifier.Notifier, logger zerolog.Logger) *Service {
	return &Service{
		db:       db,
		notifier: n,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// SubmitInput carries the submitted contact and category data.
type SubmitInput struct {
	CategoryID            *uint
	DistanceLabel         string
	PhoneNumber           string `validate:"required,max=30"`
	EmergencyContactName  string `validate:"required,max=120"`
	EmergencyContactPhone string `validate:"required,max=30"`
	MedicalNotes          string
	SubmittedVia          string
}

// NewReferenceCode builds the human-shareable registration identifier:
// a fixed prefix plus ten uppercase hex characters. Generated once per
// registration and never changed afterwards.
func NewReferenceCode() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "VAC-" + strings.ToUpper(hex[:10])
}

// Submit creates or updates the user's registration for the event. The
// capacity check and the write happen in one transaction so two concurrent
// submissions cannot both be admitted past the limit. Returns the saved
// registration and whether it was newly created.
func (s *Service) Submit(ctx context.Context, userID uint, eventSlug string, in SubmitInput) (*models.EventRegistration, bool, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, false, err
	}

	var (
		reg        models.EventRegistration
		isNew      bool
		prevStatus models.RegistrationStatus
		prevPay    models.PaymentStatus
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := tx.Preload("Categories").Where("slug = ?", eventSlug).First(&event).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if !event.IsRegistrationOpen(time.Now()) {
			return ErrRegistrationClosed
		}

		var category *models.EventCategory
		if len(event.Categories) > 0 {
			if in.CategoryID == nil {
				return ErrCategoryRequired
			}
			for i := range event.Categories {
				if event.Categories[i].ID == *in.CategoryID {
					category = &event.Categories[i]
					break
				}
			}
			if category == nil {
				return ErrCategoryMismatch
			}
		} else if strings.TrimSpace(in.DistanceLabel) == "" {
			return ErrDistanceRequired
		}

		if err := tx.Where("user_id = ? AND event_id = ?", userID, event.ID).First(&reg).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			isNew = true
			reg = models.EventRegistration{UserID: userID, EventID: event.ID}
		} else {
			prevStatus = reg.Status
			prevPay = reg.PaymentStatus
		}

		status := models.RegistrationPending
		if event.ParticipantLimit > 0 {
			var active int64
			q := tx.Model(&models.EventRegistration{}).
				Where("event_id = ? AND status IN ?", event.ID, models.ActiveRegistrationStatuses)
			if !isNew {
				q = q.Where("id <> ?", reg.ID)
			}
			if err := q.Count(&active).Error; err != nil {
				return err
			}
			if active >= int64(event.ParticipantLimit) {
				status = models.RegistrationWaitlisted
			}
		}

		if category != nil {
			reg.CategoryID = &category.ID
			reg.DistanceLabel = category.DisplayName
		} else {
			reg.CategoryID = nil
			reg.DistanceLabel = strings.TrimSpace(in.DistanceLabel)
		}
		reg.Category = category
		reg.Event = event
		reg.PhoneNumber = in.PhoneNumber
		reg.EmergencyContactName = in.EmergencyContactName
		reg.EmergencyContactPhone = in.EmergencyContactPhone
		reg.MedicalNotes = in.MedicalNotes
		reg.Status = status
		reg.FormPayload = map[string]string{"submitted_via": in.SubmittedVia}

		return s.save(tx, &reg)
	})
	if err != nil {
		return nil, false, err
	}

	s.dispatch(&reg, isNew, prevStatus, prevPay)
	return &reg, isNew, nil
}

// SetStatus applies an admin status decision and runs the full save
// pipeline, so the counter, history, and notifications stay in sync.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status models.RegistrationStatus, decisionNote string) (*models.EventRegistration, error) {
	return s.applyChange(ctx, id, func(reg *models.EventRegistration) {
		reg.Status = status
		if decisionNote != "" {
			reg.DecisionNote = decisionNote
		}
	})
}

// SetPaymentStatus applies an admin payment decision.
func (s *Service) SetPaymentStatus(ctx context.Context, id uuid.UUID, payment models.PaymentStatus) (*models.EventRegistration, error) {
	return s.applyChange(ctx, id, func(reg *models.EventRegistration) {
		reg.PaymentStatus = payment
	})
}

func (s *Service) applyChange(ctx context.Context, id uuid.UUID, mutate func(*models.EventRegistration)) (*models.EventRegistration, error) {
	var (
		reg        models.EventRegistration
		prevStatus models.RegistrationStatus
		prevPay    models.PaymentStatus
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Event").Preload("Category").Where("id = ?", id).First(&reg).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRegistrationNotFound
			}
			return err
		}
		prevStatus = reg.Status
		prevPay = reg.PaymentStatus
		mutate(&reg)
		return s.save(tx, &reg)
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(&reg, false, prevStatus, prevPay)
	return &reg, nil
}

// Delete removes a registration together with its mirrored history row and
// recounts the event. Notifications already sent are not reversed; the
// recipient gets a final cancellation notice.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	var reg models.EventRegistration
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Event").Preload("Category").Where("id = ?", id).First(&reg).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRegistrationNotFound
			}
			return err
		}
		if err := s.removeHistory(tx, &reg); err != nil {
			return err
		}
		if err := tx.Delete(&models.EventRegistration{}, "id = ?", reg.ID).Error; err != nil {
			return err
		}
		return s.recountEvent(tx, reg.EventID)
	})
	if err != nil {
		return err
	}

	s.notify(reg.UserID, notifier.Message{
		Title:    fmt.Sprintf("Registration cancelled - %s", reg.Event.Title),
		Body:     "Your registration has been cancelled by an administrator. Contact support for more details.",
		Category: models.NotificationRegistration,
		LinkURL:  registrationLink(&reg),
	})
	return nil
}

// save runs the side effects every registration write goes through.
func (s *Service) save(tx *gorm.DB, reg *models.EventRegistration) error {
	if reg.ReferenceCode == "" {
		reg.ReferenceCode = NewReferenceCode()
	}
	now := time.Now()
	if reg.Status == models.RegistrationConfirmed && reg.ConfirmedAt == nil {
		reg.ConfirmedAt = &now
	}
	if reg.Status == models.RegistrationCancelled && reg.CancelledAt == nil {
		reg.CancelledAt = &now
	}
	if err := tx.Omit(clause.Associations).Save(reg).Error; err != nil {
		return err
	}
	if err := s.syncHistory(tx, reg); err != nil {
		return err
	}
	return s.recountEvent(tx, reg.EventID)
}

// syncHistory upserts the denormalized race-history row for this
// registration and mirrors the status into the runner vocabulary.
func (s *Service) syncHistory(tx *gorm.DB, reg *models.EventRegistration) error {
	var profile models.UserProfile
	if err := tx.Where(models.UserProfile{UserID: reg.UserID}).FirstOrCreate(&profile).Error; err != nil {
		return err
	}

	history := models.UserRaceHistory{
		ProfileID: profile.ID,
		EventID:   reg.EventID,
		Category:  reg.CategoryLabel(),
	}
	if err := tx.Where(history).Attrs(models.UserRaceHistory{
		Status:           models.RaceRegistered,
		RegistrationDate: time.Now(),
	}).FirstOrCreate(&history).Error; err != nil {
		return err
	}

	var status models.RaceHistoryStatus
	switch reg.Status {
	case models.RegistrationConfirmed:
		status = models.RaceUpcoming
	case models.RegistrationCancelled, models.RegistrationRejected:
		status = models.RaceDNS
	default:
		status = models.RaceRegistered
	}
	return tx.Model(&history).Update("status", status).Error
}

func (s *Service) removeHistory(tx *gorm.DB, reg *models.EventRegistration) error {
	var profile models.UserProfile
	if err := tx.Where(models.UserProfile{UserID: reg.UserID}).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return tx.Where("profile_id = ? AND event_id = ? AND category = ?",
		profile.ID, reg.EventID, reg.CategoryLabel()).
		Delete(&models.UserRaceHistory{}).Error
}

// recountEvent recomputes registered_count from the active registrations.
func (s *Service) recountEvent(tx *gorm.DB, eventID uint) error {
	var count int64
	if err := tx.Model(&models.EventRegistration{}).
		Where("event_id = ? AND status IN ?", eventID, models.ActiveRegistrationStatuses).
		Count(&count).Error; err != nil {
		return err
	}
	return tx.Model(&models.Event{}).Where("id = ?", eventID).
		Update("registered_count", count).Error
}

// dispatch fires at most one notification per save. Branches are checked in
// a fixed order and the first match wins.
func (s *Service) dispatch(reg *models.EventRegistration, isNew bool, prevStatus models.RegistrationStatus, prevPay models.PaymentStatus) {
	link := registrationLink(reg)
	title := reg.Event.Title

	var msg *notifier.Message
	switch {
	case isNew && reg.Status != models.RegistrationWaitlisted:
		msg = &notifier.Message{
			Title: fmt.Sprintf("Registration received for %s", title),
			Body:  "Your registration is pending confirmation. We'll keep you posted.",
		}
	case isNew:
		msg = &notifier.Message{
			Title: fmt.Sprintf("Waitlist for %s", title),
			Body:  "The event has reached capacity but we've placed you on the waitlist. We'll notify you if a slot opens.",
		}
	case prevStatus != reg.Status && reg.Status == models.RegistrationConfirmed:
		msg = &notifier.Message{
			Title: fmt.Sprintf("You're confirmed for %s", title),
			Body:  "See your registration summary for race-day details.",
		}
	case prevStatus != reg.Status && reg.Status == models.RegistrationRejected:
		msg = &notifier.Message{
			Title: fmt.Sprintf("Registration update for %s", title),
			Body:  "We were unable to confirm your registration. Contact support for more details.",
		}
	case prevStatus != reg.Status && reg.Status == models.RegistrationCancelled:
		msg = &notifier.Message{
			Title: fmt.Sprintf("Registration cancelled - %s", title),
			Body:  "Your registration has been cancelled. If this is unexpected please reach out.",
		}
	case prevPay != reg.PaymentStatus && reg.PaymentStatus == models.PaymentPaid:
		msg = &notifier.Message{
			Title: "Payment received",
			Body:  fmt.Sprintf("We've recorded your payment for %s. See the summary for confirmation.", title),
		}
	}
	if msg == nil {
		return
	}
	msg.Category = models.NotificationRegistration
	msg.LinkURL = link
	s.notify(reg.UserID, *msg)
}

func (s *Service) notify(recipientID uint, msg notifier.Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(recipientID, msg); err != nil {
		s.logger.Error().Err(err).Uint("recipient", recipientID).Msg("notification dispatch failed")
	}
}

func registrationLink(reg *models.EventRegistration) string {
	return "/registrations/" + reg.ReferenceCode
}
