package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/vacathon/vacathon-api/internal/slug"
)

type ForumThread struct {
	gorm.Model
	EventID        uint      `json:"event_id" gorm:"index"`
	Event          Event     `json:"-"`
	AuthorID       uint      `json:"author_id"`
	Author         User      `json:"-"`
	Title          string    `json:"title" gorm:"size:150"`
	Slug           string    `json:"slug" gorm:"size:170;uniqueIndex"`
	Body           string    `json:"body"`
	LastActivityAt time.Time `json:"last_activity_at"`
	IsPinned       bool      `json:"is_pinned"`
	IsLocked       bool      `json:"is_locked"`
	ViewCount      int       `json:"view_count"`
}

// BeforeCreate assigns a unique slug and seeds the activity timestamp.
func (t *ForumThread) BeforeCreate(tx *gorm.DB) error {
	if t.LastActivityAt.IsZero() {
		t.LastActivityAt = time.Now()
	}
	if t.Slug != "" {
		return nil
	}
	base := slug.Make(t.Title)
	if len(base) > 130 {
		base = base[:130]
	}
	if base == "" {
		base = "thread"
	}
	unique, err := slug.Unique(base, func(candidate string) (bool, error) {
		var count int64
		if err := tx.Model(&ForumThread{}).Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return false, err
		}
		return count > 0, nil
	})
	if err != nil {
		return err
	}
	t.Slug = unique
	return nil
}

type ForumPost struct {
	gorm.Model
	ThreadID uint        `json:"thread_id" gorm:"index:idx_post_thread_created"`
	Thread   ForumThread `json:"-"`
	AuthorID uint        `json:"author_id"`
	Author   User        `json:"-"`
	ParentID *uint       `json:"parent_id"`
	Content  string      `json:"content"`
}

// PostLike is a like membership row, unique per (post, user).
type PostLike struct {
	gorm.Model
	PostID uint `json:"post_id" gorm:"uniqueIndex:idx_like_post_user"`
	UserID uint `json:"user_id" gorm:"uniqueIndex:idx_like_post_user"`
}

// PostReport is a moderation report, deduplicated per (post, reporter).
type PostReport struct {
	gorm.Model
	PostID     uint      `json:"post_id" gorm:"uniqueIndex:idx_report_post_reporter"`
	Post       ForumPost `json:"-"`
	ReporterID uint      `json:"reporter_id" gorm:"uniqueIndex:idx_report_post_reporter"`
	Reason     string    `json:"reason" gorm:"size:255"`
	Resolved   bool      `json:"resolved"`
}
