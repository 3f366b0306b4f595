package handlers

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/vacathon/vacathon-api/internal/models"
	"github.com/vacathon/vacathon-api/internal/notifier"
	"github.com/vacathon/vacathon-api/internal/registration"
)

func seedUserWithProfile(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := seedUser(t, db, username)
	if err := db.Create(&models.UserProfile{UserID: user.ID}).Error; err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	return user
}

func TestHandleUpdateProfile(t *testing.T) {
	db := testDB(t)
	handler := NewProfilesHandler(db)
	user := seedUserWithProfile(t, db, "runner")

	displayName := "Budi Santoso"
	city := "Jakarta"
	favorite := "21K"
	birthDate := "1990-05-14"
	req := &ProfileUpdateRequest{}
	req.Body.DisplayName = &displayName
	req.Body.City = &city
	req.Body.FavoriteDistance = &favorite
	req.Body.BirthDate = &birthDate

	res, err := handler.HandleUpdateProfile(userCtx(user.ID), req)
	if err != nil {
		t.Fatalf("HandleUpdateProfile returned error: %v", err)
	}
	if res.Body.DisplayName != "Budi Santoso" || res.Body.City != "Jakarta" {
		t.Errorf("unexpected profile %+v", res.Body)
	}
	if res.Body.BirthDate == nil || *res.Body.BirthDate != "1990-05-14" {
		t.Errorf("unexpected birth date %v", res.Body.BirthDate)
	}

	bogus := "7K"
	bad := &ProfileUpdateRequest{}
	bad.Body.FavoriteDistance = &bogus
	if _, err := handler.HandleUpdateProfile(userCtx(user.ID), bad); err == nil {
		t.Fatal("expected invalid favorite_distance to be rejected")
	}

	badDate := "14/05/1990"
	bad = &ProfileUpdateRequest{}
	bad.Body.BirthDate = &badDate
	if _, err := handler.HandleUpdateProfile(userCtx(user.ID), bad); err == nil {
		t.Fatal("expected invalid birth_date to be rejected")
	}
}

func TestHandleGetProfileRequiresProvisionedRow(t *testing.T) {
	db := testDB(t)
	handler := NewProfilesHandler(db)
	user := seedUser(t, db, "no-profile")

	if _, err := handler.HandleGetProfile(userCtx(user.ID), &ProfileRequest{}); err == nil {
		t.Fatal("expected 404 when no profile row exists")
	}
}

func TestAchievementsCRUDOwnerScoped(t *testing.T) {
	db := testDB(t)
	handler := NewProfilesHandler(db)
	owner := seedUserWithProfile(t, db, "owner")
	intruder := seedUserWithProfile(t, db, "intruder")

	create := &AchievementCreateRequest{}
	create.Body.Title = "First 100K finish"
	achievedOn := "2025-11-02"
	create.Body.AchievedOn = &achievedOn

	created, err := handler.HandleCreateAchievement(userCtx(owner.ID), create)
	if err != nil {
		t.Fatalf("HandleCreateAchievement returned error: %v", err)
	}
	if created.Body.AchievedOn == nil || *created.Body.AchievedOn != "2025-11-02" {
		t.Errorf("unexpected achieved_on %v", created.Body.AchievedOn)
	}

	list, err := handler.HandleListAchievements(userCtx(owner.ID), &AchievementsRequest{})
	if err != nil {
		t.Fatalf("HandleListAchievements returned error: %v", err)
	}
	if len(list.Body.Results) != 1 {
		t.Fatalf("expected 1 achievement, got %d", len(list.Body.Results))
	}

	if _, err := handler.HandleDeleteAchievement(userCtx(intruder.ID), &AchievementDeleteRequest{ID: created.Body.ID}); err == nil {
		t.Fatal("expected 404 deleting someone else's achievement")
	}

	if _, err := handler.HandleDeleteAchievement(userCtx(owner.ID), &AchievementDeleteRequest{ID: created.Body.ID}); err != nil {
		t.Fatalf("HandleDeleteAchievement returned error: %v", err)
	}
	list, err = handler.HandleListAchievements(userCtx(owner.ID), &AchievementsRequest{})
	if err != nil {
		t.Fatalf("HandleListAchievements returned error: %v", err)
	}
	if len(list.Body.Results) != 0 {
		t.Errorf("expected empty list after delete, got %d", len(list.Body.Results))
	}
}

func TestHandleDashboard(t *testing.T) {
	db := testDB(t)
	handler := NewProfilesHandler(db)
	service := registration.NewService(db, notifier.NewInboxNotifier(db, zerolog.Nop()), zerolog.Nop())
	regHandler := NewRegistrationsHandler(db, service)

	user := seedUserWithProfile(t, db, "runner")
	soon := seedEvent(t, db, "Jakarta Marathon", "Jakarta", models.EventUpcoming, 24*time.Hour)
	later := seedEvent(t, db, "Bandung Trail", "Bandung", models.EventUpcoming, 72*time.Hour)

	for _, event := range []*models.Event{later, soon} {
		req := &RegisterRequest{Slug: event.Slug}
		fillRegisterBody(req)
		if _, err := regHandler.HandleRegister(userCtx(user.ID), req); err != nil {
			t.Fatalf("HandleRegister returned error: %v", err)
		}
	}

	res, err := handler.HandleDashboard(userCtx(user.ID), &DashboardRequest{})
	if err != nil {
		t.Fatalf("HandleDashboard returned error: %v", err)
	}
	if res.Body.Stats.TotalEvents != 2 {
		t.Errorf("expected 2 history rows, got %d", res.Body.Stats.TotalEvents)
	}
	if res.Body.Stats.Upcoming != 2 {
		t.Errorf("expected 2 upcoming, got %d", res.Body.Stats.Upcoming)
	}
	if res.Body.NextEvent == nil || res.Body.NextEvent.Title != "Jakarta Marathon" {
		t.Fatalf("expected soonest event as next, got %+v", res.Body.NextEvent)
	}
	if len(res.Body.Upcoming) != 2 {
		t.Errorf("expected 2 upcoming history entries, got %d", len(res.Body.Upcoming))
	}
}
