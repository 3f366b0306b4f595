package handlers

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/vacathon/vacathon-api/internal/auth"
	"github.com/vacathon/vacathon-api/internal/models"
)

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := models.User{Username: username}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return &user
}

func userCtx(userID uint) context.Context {
	return context.WithValue(context.Background(), auth.UserIDKey, userID)
}

func seedThread(t *testing.T, db *gorm.DB, eventID, authorID uint, title string) *models.ForumThread {
	t.Helper()
	thread := models.ForumThread{EventID: eventID, AuthorID: authorID, Title: title, Body: "body"}
	if err := db.Create(&thread).Error; err != nil {
		t.Fatalf("failed to create thread: %v", err)
	}
	return &thread
}

func TestHandleCreatePostAndNesting(t *testing.T) {
	db := testDB(t)
	handler := NewForumHandler(db)
	event := seedEvent(t, db, "Jakarta Marathon", "Jakarta", models.EventUpcoming, 48*time.Hour)
	author := seedUser(t, db, "author")
	thread := seedThread(t, db, event.ID, author.ID, "Race day tips")

	req := &PostCreateRequest{Slug: thread.Slug}
	req.Body.Content = "Bring salt tabs"
	top, err := handler.HandleCreatePost(userCtx(author.ID), req)
	if err != nil {
		t.Fatalf("HandleCreatePost returned error: %v", err)
	}

	reply := &PostCreateRequest{Slug: thread.Slug}
	reply.Body.Content = "And electrolytes"
	reply.Body.Parent = &top.Body.ID
	nested, err := handler.HandleCreatePost(userCtx(author.ID), reply)
	if err != nil {
		t.Fatalf("reply returned error: %v", err)
	}

	// Replies cannot target replies; nesting stops at one level.
	tooDeep := &PostCreateRequest{Slug: thread.Slug}
	tooDeep.Body.Content = "re: re:"
	tooDeep.Body.Parent = &nested.Body.ID
	if _, err := handler.HandleCreatePost(userCtx(author.ID), tooDeep); err == nil {
		t.Fatal("expected nested reply to be rejected")
	}

	detail, err := handler.HandleThreadDetail(context.Background(), &ThreadDetailRequest{Slug: thread.Slug})
	if err != nil {
		t.Fatalf("HandleThreadDetail returned error: %v", err)
	}
	if len(detail.Body.Posts) != 1 {
		t.Fatalf("expected 1 top-level post, got %d", len(detail.Body.Posts))
	}
	if len(detail.Body.Posts[0].Replies) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(detail.Body.Posts[0].Replies))
	}
	if detail.Body.Thread.PostCount != 2 {
		t.Errorf("expected post count 2, got %d", detail.Body.Thread.PostCount)
	}
}

func TestHandleCreatePostLockedThread(t *testing.T) {
	db := testDB(t)
	handler := NewForumHandler(db)
	event := seedEvent(t, db, "Jakarta Marathon", "Jakarta", models.EventUpcoming, 48*time.Hour)
	author := seedUser(t, db, "author")
	thread := seedThread(t, db, event.ID, author.ID, "Announcements")
	db.Model(thread).Update("is_locked", true)

	req := &PostCreateRequest{Slug: thread.Slug}
	req.Body.Content = "hello"
	if _, err := handler.HandleCreatePost(userCtx(author.ID), req); err == nil {
		t.Fatal("expected locked thread to reject new posts")
	}
}

func TestHandleThreadDetailBumpsViewCount(t *testing.T) {
	db := testDB(t)
	handler := NewForumHandler(db)
	event := seedEvent(t, db, "Jakarta Marathon", "Jakarta", models.EventUpcoming, 48*time.Hour)
	author := seedUser(t, db, "author")
	thread := seedThread(t, db, event.ID, author.ID, "Race day tips")

	for i := 0; i < 3; i++ {
		if _, err := handler.HandleThreadDetail(context.Background(), &ThreadDetailRequest{Slug: thread.Slug}); err != nil {
			t.Fatalf("HandleThreadDetail returned error: %v", err)
		}
	}
	var reloaded models.ForumThread
	db.First(&reloaded, thread.ID)
	if reloaded.ViewCount != 3 {
		t.Errorf("expected view count 3, got %d", reloaded.ViewCount)
	}
}

func TestHandleToggleLike(t *testing.T) {
	db := testDB(t)
	handler := NewForumHandler(db)
	event := seedEvent(t, db, "Jakarta Marathon", "Jakarta", models.EventUpcoming, 48*time.Hour)
	author := seedUser(t, db, "author")
	liker := seedUser(t, db, "liker")
	thread := seedThread(t, db, event.ID, author.ID, "Race day tips")
	post := models.ForumPost{ThreadID: thread.ID, AuthorID: author.ID, Content: "hi"}
	db.Create(&post)

	res, err := handler.HandleToggleLike(userCtx(liker.ID), &LikeRequest{PostID: post.ID})
	if err != nil {
		t.Fatalf("HandleToggleLike returned error: %v", err)
	}
	if !res.Body.Liked || res.Body.LikeCount != 1 {
		t.Errorf("expected liked with count 1, got %+v", res.Body)
	}

	res, err = handler.HandleToggleLike(userCtx(liker.ID), &LikeRequest{PostID: post.ID})
	if err != nil {
		t.Fatalf("second toggle returned error: %v", err)
	}
	if res.Body.Liked || res.Body.LikeCount != 0 {
		t.Errorf("expected unliked with count 0, got %+v", res.Body)
	}

	// The row is gone, so toggling again likes from scratch.
	res, err = handler.HandleToggleLike(userCtx(liker.ID), &LikeRequest{PostID: post.ID})
	if err != nil {
		t.Fatalf("third toggle returned error: %v", err)
	}
	if !res.Body.Liked || res.Body.LikeCount != 1 {
		t.Errorf("expected re-liked with count 1, got %+v", res.Body)
	}
}

func TestHandleReportPostDeduplicates(t *testing.T) {
	db := testDB(t)
	handler := NewForumHandler(db)
	event := seedEvent(t, db, "Jakarta Marathon", "Jakarta", models.EventUpcoming, 48*time.Hour)
	author := seedUser(t, db, "author")
	reporter := seedUser(t, db, "reporter")
	thread := seedThread(t, db, event.ID, author.ID, "Race day tips")
	post := models.ForumPost{ThreadID: thread.ID, AuthorID: author.ID, Content: "spam"}
	db.Create(&post)

	req := &ReportRequest{PostID: post.ID}
	req.Body.Reason = "spam"
	if _, err := handler.HandleReportPost(userCtx(reporter.ID), req); err != nil {
		t.Fatalf("HandleReportPost returned error: %v", err)
	}
	if _, err := handler.HandleReportPost(userCtx(reporter.ID), req); err == nil {
		t.Fatal("expected duplicate report to be rejected")
	}

	// A different user may still report the same post.
	other := seedUser(t, db, "other")
	if _, err := handler.HandleReportPost(userCtx(other.ID), req); err != nil {
		t.Fatalf("report from second user returned error: %v", err)
	}
}

func TestHandleAdminDeletePostResolvesReports(t *testing.T) {
	db := testDB(t)
	handler := NewForumHandler(db)
	event := seedEvent(t, db, "Jakarta Marathon", "Jakarta", models.EventUpcoming, 48*time.Hour)
	author := seedUser(t, db, "author")
	thread := seedThread(t, db, event.ID, author.ID, "Race day tips")

	post := models.ForumPost{ThreadID: thread.ID, AuthorID: author.ID, Content: "spam"}
	db.Create(&post)
	reply := models.ForumPost{ThreadID: thread.ID, AuthorID: author.ID, ParentID: &post.ID, Content: "more spam"}
	db.Create(&reply)
	keeper := models.ForumPost{ThreadID: thread.ID, AuthorID: author.ID, Content: "on topic"}
	db.Create(&keeper)

	for i, reporter := range []*models.User{seedUser(t, db, "rep1"), seedUser(t, db, "rep2")} {
		target := post.ID
		if i == 1 {
			target = reply.ID
		}
		db.Create(&models.PostReport{PostID: target, ReporterID: reporter.ID, Reason: "spam"})
	}

	res, err := handler.HandleAdminDeletePost(context.Background(), &AdminDeletePostRequest{PostID: post.ID})
	if err != nil {
		t.Fatalf("HandleAdminDeletePost returned error: %v", err)
	}
	if res.Body.ResolvedReports != 2 {
		t.Errorf("expected 2 resolved reports, got %d", res.Body.ResolvedReports)
	}

	var unresolved int64
	db.Model(&models.PostReport{}).Where("resolved = ?", false).Count(&unresolved)
	if unresolved != 0 {
		t.Errorf("expected all reports resolved, found %d open", unresolved)
	}

	// The post and its reply are gone; the unrelated post survives.
	var remaining []models.ForumPost
	db.Where("thread_id = ?", thread.ID).Find(&remaining)
	if len(remaining) != 1 || remaining[0].ID != keeper.ID {
		t.Fatalf("expected only the unreported post to remain, got %+v", remaining)
	}

	if _, err := handler.HandleAdminDeletePost(context.Background(), &AdminDeletePostRequest{PostID: post.ID}); err == nil {
		t.Fatal("expected 404 for an already-deleted post")
	}
}

func TestHandleThreadsSortsPinnedFirst(t *testing.T) {
	db := testDB(t)
	handler := NewForumHandler(db)
	event := seedEvent(t, db, "Jakarta Marathon", "Jakarta", models.EventUpcoming, 48*time.Hour)
	author := seedUser(t, db, "author")

	seedThread(t, db, event.ID, author.ID, "Older thread")
	pinned := seedThread(t, db, event.ID, author.ID, "Read me first")
	db.Model(pinned).Update("is_pinned", true)
	newest := seedThread(t, db, event.ID, author.ID, "Fresh thread")
	db.Model(newest).Update("last_activity_at", time.Now().Add(time.Hour))

	res, err := handler.HandleThreads(context.Background(), &ThreadListRequest{Page: 1})
	if err != nil {
		t.Fatalf("HandleThreads returned error: %v", err)
	}
	if len(res.Body.Results) != 3 {
		t.Fatalf("expected 3 threads, got %d", len(res.Body.Results))
	}
	if res.Body.Results[0].Title != "Read me first" {
		t.Errorf("expected pinned thread first, got %s", res.Body.Results[0].Title)
	}
	if res.Body.Results[1].Title != "Fresh thread" {
		t.Errorf("expected most recent activity second, got %s", res.Body.Results[1].Title)
	}
}
