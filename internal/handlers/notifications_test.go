package handlers

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/vacathon/vacathon-api/internal/models"
	"github.com/vacathon/vacathon-api/internal/notifier"
)

func TestHandleInboxAndMarkRead(t *testing.T) {
	db := testDB(t)
	handler := NewNotificationsHandler(db)
	inbox := notifier.NewInboxNotifier(db, zerolog.Nop())
	user := seedUser(t, db, "runner")
	other := seedUser(t, db, "other")

	for _, title := range []string{"first", "second", "third"} {
		if err := inbox.Notify(user.ID, notifier.Message{Title: title, Body: "hi"}); err != nil {
			t.Fatalf("Notify returned error: %v", err)
		}
	}
	if err := inbox.Notify(other.ID, notifier.Message{Title: "not yours", Body: "hi"}); err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}

	res, err := handler.HandleInbox(userCtx(user.ID), &InboxRequest{Page: 1})
	if err != nil {
		t.Fatalf("HandleInbox returned error: %v", err)
	}
	if len(res.Body.Results) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(res.Body.Results))
	}
	if res.Body.Unread != 3 {
		t.Errorf("expected unread 3, got %d", res.Body.Unread)
	}
	// Messages without an explicit category fall back to system.
	if res.Body.Results[0].Category != string(models.NotificationSystem) {
		t.Errorf("expected system category, got %s", res.Body.Results[0].Category)
	}

	marked, err := handler.HandleMarkRead(userCtx(user.ID), &MarkReadRequest{ID: res.Body.Results[0].ID})
	if err != nil {
		t.Fatalf("HandleMarkRead returned error: %v", err)
	}
	if !marked.Body.IsRead || marked.Body.ReadAt == nil {
		t.Errorf("expected read flag and timestamp, got %+v", marked.Body)
	}
	firstReadAt := *marked.Body.ReadAt

	// Re-reading keeps the original timestamp.
	marked, err = handler.HandleMarkRead(userCtx(user.ID), &MarkReadRequest{ID: res.Body.Results[0].ID})
	if err != nil {
		t.Fatalf("second HandleMarkRead returned error: %v", err)
	}
	if marked.Body.ReadAt == nil || *marked.Body.ReadAt != firstReadAt {
		t.Errorf("read_at changed on re-read: %v -> %v", firstReadAt, marked.Body.ReadAt)
	}

	res, err = handler.HandleInbox(userCtx(user.ID), &InboxRequest{Page: 1, Unread: true})
	if err != nil {
		t.Fatalf("HandleInbox returned error: %v", err)
	}
	if len(res.Body.Results) != 2 || res.Body.Unread != 2 {
		t.Errorf("expected 2 unread, got %d results / %d unread", len(res.Body.Results), res.Body.Unread)
	}
}

func TestHandleMarkReadOtherUsersNotification(t *testing.T) {
	db := testDB(t)
	handler := NewNotificationsHandler(db)
	inbox := notifier.NewInboxNotifier(db, zerolog.Nop())
	owner := seedUser(t, db, "owner")
	intruder := seedUser(t, db, "intruder")

	if err := inbox.Notify(owner.ID, notifier.Message{Title: "private", Body: "hi"}); err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
	var note models.Notification
	db.First(&note)

	if _, err := handler.HandleMarkRead(userCtx(intruder.ID), &MarkReadRequest{ID: note.ID}); err == nil {
		t.Fatal("expected 404 for another user's notification")
	}
}

func TestHandleMarkAllRead(t *testing.T) {
	db := testDB(t)
	handler := NewNotificationsHandler(db)
	inbox := notifier.NewInboxNotifier(db, zerolog.Nop())
	user := seedUser(t, db, "runner")

	for i := 0; i < 4; i++ {
		if err := inbox.Notify(user.ID, notifier.Message{Title: "n", Body: "hi"}); err != nil {
			t.Fatalf("Notify returned error: %v", err)
		}
	}

	res, err := handler.HandleMarkAllRead(userCtx(user.ID), &MarkAllReadRequest{})
	if err != nil {
		t.Fatalf("HandleMarkAllRead returned error: %v", err)
	}
	if res.Body.Updated != 4 {
		t.Errorf("expected 4 updated, got %d", res.Body.Updated)
	}

	again, err := handler.HandleMarkAllRead(userCtx(user.ID), &MarkAllReadRequest{})
	if err != nil {
		t.Fatalf("second HandleMarkAllRead returned error: %v", err)
	}
	if again.Body.Updated != 0 {
		t.Errorf("expected idempotent second pass, got %d", again.Body.Updated)
	}
}
