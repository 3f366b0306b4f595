package handlers

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/vacathon/vacathon-api/internal/models"
	"github.com/vacathon/vacathon-api/internal/notifier"
	"github.com/vacathon/vacathon-api/internal/registration"
)

func registrationsFixture(t *testing.T) (*gorm.DB, *RegistrationsHandler) {
	t.Helper()
	db := testDB(t)
	service := registration.NewService(db, notifier.NewInboxNotifier(db, zerolog.Nop()), zerolog.Nop())
	return db, NewRegistrationsHandler(db, service)
}

func fillRegisterBody(req *RegisterRequest) {
	req.Body.DistanceLabel = "42K"
	req.Body.PhoneNumber = "+62811111111"
	req.Body.EmergencyContactName = "Siti"
	req.Body.EmergencyContactPhone = "+62822222222"
}

func TestHandleRegisterMessages(t *testing.T) {
	db, handler := registrationsFixture(t)
	event := seedEvent(t, db, "Jakarta Marathon", "Jakarta", models.EventUpcoming, 48*time.Hour)
	user := seedUser(t, db, "runner")

	req := &RegisterRequest{Slug: event.Slug}
	fillRegisterBody(req)

	res, err := handler.HandleRegister(userCtx(user.ID), req)
	if err != nil {
		t.Fatalf("HandleRegister returned error: %v", err)
	}
	if !res.Body.Created {
		t.Error("expected created flag on first submit")
	}
	if res.Body.Message != "Registration submitted successfully." {
		t.Errorf("unexpected message %q", res.Body.Message)
	}
	if res.Body.Registration.Event.Slug != event.Slug {
		t.Errorf("expected nested event payload, got %+v", res.Body.Registration.Event)
	}

	res, err = handler.HandleRegister(userCtx(user.ID), req)
	if err != nil {
		t.Fatalf("second HandleRegister returned error: %v", err)
	}
	if res.Body.Created {
		t.Error("expected update, not create, on resubmit")
	}
	if res.Body.Message != "Registration updated successfully." {
		t.Errorf("unexpected message %q", res.Body.Message)
	}
}

func TestHandleRegisterWaitlistMessage(t *testing.T) {
	db, handler := registrationsFixture(t)
	event := seedEvent(t, db, "Jakarta Marathon", "Jakarta", models.EventUpcoming, 48*time.Hour)
	db.Model(event).Update("participant_limit", 1)

	first := seedUser(t, db, "first")
	second := seedUser(t, db, "second")

	req := &RegisterRequest{Slug: event.Slug}
	fillRegisterBody(req)
	if _, err := handler.HandleRegister(userCtx(first.ID), req); err != nil {
		t.Fatalf("HandleRegister returned error: %v", err)
	}

	res, err := handler.HandleRegister(userCtx(second.ID), req)
	if err != nil {
		t.Fatalf("HandleRegister returned error: %v", err)
	}
	if res.Body.Registration.Status != string(models.RegistrationWaitlisted) {
		t.Errorf("expected waitlisted, got %s", res.Body.Registration.Status)
	}
	if !strings.Contains(res.Body.Message, "waitlist") {
		t.Errorf("expected waitlist notice in message, got %q", res.Body.Message)
	}
}

func TestHandleRegisterValidation(t *testing.T) {
	db, handler := registrationsFixture(t)
	event := seedEvent(t, db, "Jakarta Marathon", "Jakarta", models.EventUpcoming, 48*time.Hour)
	user := seedUser(t, db, "runner")

	req := &RegisterRequest{Slug: event.Slug}
	req.Body.DistanceLabel = "42K"
	if _, err := handler.HandleRegister(userCtx(user.ID), req); err == nil {
		t.Fatal("expected validation error for missing contact fields")
	}

	missing := &RegisterRequest{Slug: "no-such-event"}
	fillRegisterBody(missing)
	if _, err := handler.HandleRegister(userCtx(user.ID), missing); err == nil {
		t.Fatal("expected 404 for unknown event")
	}
}

func TestHandleDetailScopedToOwner(t *testing.T) {
	db, handler := registrationsFixture(t)
	event := seedEvent(t, db, "Jakarta Marathon", "Jakarta", models.EventUpcoming, 48*time.Hour)
	owner := seedUser(t, db, "owner")
	intruder := seedUser(t, db, "intruder")

	req := &RegisterRequest{Slug: event.Slug}
	fillRegisterBody(req)
	res, err := handler.HandleRegister(userCtx(owner.ID), req)
	if err != nil {
		t.Fatalf("HandleRegister returned error: %v", err)
	}
	reference := res.Body.Registration.ReferenceCode

	detail, err := handler.HandleDetail(userCtx(owner.ID), &RegistrationDetailRequest{Reference: reference})
	if err != nil {
		t.Fatalf("HandleDetail returned error: %v", err)
	}
	if detail.Body.ReferenceCode != reference {
		t.Errorf("unexpected reference %s", detail.Body.ReferenceCode)
	}

	if _, err := handler.HandleDetail(userCtx(intruder.ID), &RegistrationDetailRequest{Reference: reference}); err == nil {
		t.Fatal("expected 404 for someone else's registration")
	}
}

func TestHandleListMine(t *testing.T) {
	db, handler := registrationsFixture(t)
	user := seedUser(t, db, "runner")
	other := seedUser(t, db, "other")

	for _, title := range []string{"Race A", "Race B"} {
		event := seedEvent(t, db, title, "Jakarta", models.EventUpcoming, 48*time.Hour)
		req := &RegisterRequest{Slug: event.Slug}
		fillRegisterBody(req)
		if _, err := handler.HandleRegister(userCtx(user.ID), req); err != nil {
			t.Fatalf("HandleRegister returned error: %v", err)
		}
		if title == "Race A" {
			if _, err := handler.HandleRegister(userCtx(other.ID), req); err != nil {
				t.Fatalf("HandleRegister returned error: %v", err)
			}
		}
	}

	res, err := handler.HandleList(userCtx(user.ID), &MyRegistrationsRequest{Page: 1})
	if err != nil {
		t.Fatalf("HandleList returned error: %v", err)
	}
	if len(res.Body.Results) != 2 {
		t.Fatalf("expected 2 registrations, got %d", len(res.Body.Results))
	}
	if res.Body.Pagination.Total != 2 {
		t.Errorf("expected total 2, got %d", res.Body.Pagination.Total)
	}
}
