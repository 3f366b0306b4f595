package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"gorm.io/gorm"

	"github.com/vacathon/vacathon-api/internal/auth"
	"github.com/vacathon/vacathon-api/internal/models"
)

const threadPageSize = 20

type ForumHandler struct {
	db *gorm.DB
}

func NewForumHandler(db *gorm.DB) *ForumHandler {
	return &ForumHandler{db: db}
}

type ThreadPayload struct {
	ID             uint   `json:"id"`
	Title          string `json:"title"`
	Slug           string `json:"slug"`
	Body           string `json:"body"`
	Event          string `json:"event"`
	EventID        uint   `json:"event_id"`
	Author         string `json:"author"`
	CreatedAt      string `json:"created_at"`
	LastActivityAt string `json:"last_activity_at"`
	IsPinned       bool   `json:"is_pinned"`
	IsLocked       bool   `json:"is_locked"`
	ViewCount      int    `json:"view_count"`
	PostCount      int64  `json:"post_count"`
}

type PostPayload struct {
	ID        uint          `json:"id"`
	Author    string        `json:"author"`
	ParentID  *uint         `json:"parent_id"`
	Content   string        `json:"content"`
	CreatedAt string        `json:"created_at"`
	LikeCount int64         `json:"like_count"`
	Replies   []PostPayload `json:"replies,omitempty"`
}

type threadRow struct {
	models.ForumThread
	PostCount int64
}

const postCountSelect = "forum_threads.*, (SELECT COUNT(*) FROM forum_posts WHERE forum_posts.thread_id = forum_threads.id AND forum_posts.deleted_at IS NULL) AS post_count"

type ThreadListRequest struct {
	Event uint   `query:"event" doc:"Filter by event id"`
	Q     string `query:"q"`
	Sort  string `query:"sort" enum:"recent,popular,latest,"`
	Page  int    `query:"page" minimum:"1" default:"1"`
}

type ThreadListResponse struct {
	Body struct {
		Results    []ThreadPayload `json:"results"`
		Pagination Pagination      `json:"pagination"`
	}
}

func (h *ForumHandler) HandleThreads(ctx context.Context, input *ThreadListRequest) (*ThreadListResponse, error) {
	query := h.db.WithContext(ctx).Model(&models.ForumThread{})
	if input.Event != 0 {
		query = query.Where("event_id = ?", input.Event)
	}
	if input.Q != "" {
		like := "%" + input.Q + "%"
		query = query.Where("title LIKE ? OR body LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to count threads")
	}
	page := paginate(input.Page, threadPageSize, total)

	query = query.Select(postCountSelect)
	switch input.Sort {
	case "popular":
		query = query.Order("is_pinned DESC").Order("post_count DESC")
	case "latest":
		query = query.Order("is_pinned DESC").Order("created_at DESC")
	default:
		query = query.Order("is_pinned DESC").Order("last_activity_at DESC")
	}

	var rows []threadRow
	if err := query.Preload("Event").Preload("Author").
		Offset((page.Page - 1) * threadPageSize).Limit(threadPageSize).
		Find(&rows).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load threads")
	}

	res := &ThreadListResponse{}
	res.Body.Results = make([]ThreadPayload, 0, len(rows))
	for i := range rows {
		res.Body.Results = append(res.Body.Results, serializeThread(&rows[i].ForumThread, rows[i].PostCount))
	}
	res.Body.Pagination = page
	return res, nil
}

type ThreadCreateRequest struct {
	Body struct {
		Event uint   `json:"event" doc:"Event id the thread belongs to"`
		Title string `json:"title" minLength:"1" maxLength:"150"`
		Body  string `json:"body" minLength:"1"`
	}
}

type ThreadCreateResponse struct {
	Body ThreadPayload
}

func (h *ForumHandler) HandleCreateThread(ctx context.Context, input *ThreadCreateRequest) (*ThreadCreateResponse, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	var event models.Event
	if err := h.db.WithContext(ctx).First(&event, input.Body.Event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Event not found")
		}
		return nil, huma.Error500InternalServerError("Failed to load event")
	}

	thread := models.ForumThread{
		EventID:  event.ID,
		AuthorID: userID,
		Title:    strings.TrimSpace(input.Body.Title),
		Body:     input.Body.Body,
	}
	if err := h.db.WithContext(ctx).Create(&thread).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to create thread")
	}
	if err := h.db.WithContext(ctx).Preload("Event").Preload("Author").
		First(&thread, thread.ID).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to reload thread")
	}

	return &ThreadCreateResponse{Body: serializeThread(&thread, 0)}, nil
}

type ThreadDetailRequest struct {
	Slug string `path:"slug"`
}

type ThreadDetailResponse struct {
	Body struct {
		Thread ThreadPayload `json:"thread"`
		Posts  []PostPayload `json:"posts"`
	}
}

// HandleThreadDetail loads a thread with its post tree. Every view bumps
// the view counter; there is no dedup by viewer.
func (h *ForumHandler) HandleThreadDetail(ctx context.Context, input *ThreadDetailRequest) (*ThreadDetailResponse, error) {
	var thread models.ForumThread
	if err := h.db.WithContext(ctx).Preload("Event").Preload("Author").
		Where("slug = ?", input.Slug).First(&thread).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Thread not found")
		}
		return nil, huma.Error500InternalServerError("Failed to load thread")
	}

	if err := h.db.WithContext(ctx).Model(&models.ForumThread{}).
		Where("id = ?", thread.ID).
		Update("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to update view count")
	}
	thread.ViewCount++

	var posts []models.ForumPost
	if err := h.db.WithContext(ctx).Preload("Author").
		Where("thread_id = ?", thread.ID).Order("created_at").
		Find(&posts).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load posts")
	}

	likeCounts, err := h.likeCounts(ctx, posts)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load likes")
	}

	res := &ThreadDetailResponse{}
	res.Body.Thread = serializeThread(&thread, int64(len(posts)))
	res.Body.Posts = buildPostTree(posts, likeCounts)
	return res, nil
}

type PostCreateRequest struct {
	Slug string `path:"slug"`
	Body struct {
		Content string `json:"content" minLength:"1"`
		Parent  *uint  `json:"parent,omitempty" doc:"Id of the top-level post this replies to"`
	}
}

type PostCreateResponse struct {
	Body PostPayload
}

// HandleCreatePost adds a post or a one-level reply. Replying to a reply is
// rejected.
func (h *ForumHandler) HandleCreatePost(ctx context.Context, input *PostCreateRequest) (*PostCreateResponse, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	var thread models.ForumThread
	if err := h.db.WithContext(ctx).Where("slug = ?", input.Slug).First(&thread).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Thread not found")
		}
		return nil, huma.Error500InternalServerError("Failed to load thread")
	}
	if thread.IsLocked {
		return nil, huma.Error400BadRequest("Thread is locked")
	}

	post := models.ForumPost{
		ThreadID: thread.ID,
		AuthorID: userID,
		Content:  input.Body.Content,
	}
	if input.Body.Parent != nil {
		var parent models.ForumPost
		if err := h.db.WithContext(ctx).
			Where("id = ? AND thread_id = ?", *input.Body.Parent, thread.ID).
			First(&parent).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, huma.Error404NotFound("Parent post not found")
			}
			return nil, huma.Error500InternalServerError("Failed to load parent post")
		}
		if parent.ParentID != nil {
			return nil, huma.Error400BadRequest("Replies can only target top-level posts")
		}
		post.ParentID = &parent.ID
	}

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		return tx.Model(&models.ForumThread{}).Where("id = ?", thread.ID).
			Update("last_activity_at", time.Now()).Error
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to create post")
	}

	if err := h.db.WithContext(ctx).Preload("Author").First(&post, post.ID).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to reload post")
	}

	return &PostCreateResponse{Body: serializePost(&post, 0)}, nil
}

type LikeRequest struct {
	PostID uint `path:"post_id"`
}

type LikeResponse struct {
	Body struct {
		Liked     bool  `json:"liked"`
		LikeCount int64 `json:"like_count"`
	}
}

// HandleToggleLike flips the caller's like membership on the post.
func (h *ForumHandler) HandleToggleLike(ctx context.Context, input *LikeRequest) (*LikeResponse, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	var post models.ForumPost
	if err := h.db.WithContext(ctx).First(&post, input.PostID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Post not found")
		}
		return nil, huma.Error500InternalServerError("Failed to load post")
	}

	var liked bool
	var existing models.PostLike
	err := h.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", post.ID, userID).
		First(&existing).Error
	switch {
	case err == nil:
		if err := h.db.WithContext(ctx).Unscoped().Delete(&existing).Error; err != nil {
			return nil, huma.Error500InternalServerError("Failed to remove like")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := h.db.WithContext(ctx).Create(&models.PostLike{PostID: post.ID, UserID: userID}).Error; err != nil {
			return nil, huma.Error500InternalServerError("Failed to add like")
		}
		liked = true
	default:
		return nil, huma.Error500InternalServerError("Failed to check like")
	}

	var count int64
	if err := h.db.WithContext(ctx).Model(&models.PostLike{}).
		Where("post_id = ?", post.ID).Count(&count).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to count likes")
	}

	res := &LikeResponse{}
	res.Body.Liked = liked
	res.Body.LikeCount = count
	return res, nil
}

type ReportRequest struct {
	PostID uint `path:"post_id"`
	Body   struct {
		Reason string `json:"reason" minLength:"1" maxLength:"255"`
	}
}

type ReportResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

// HandleReportPost files a moderation report, one per (post, reporter).
func (h *ForumHandler) HandleReportPost(ctx context.Context, input *ReportRequest) (*ReportResponse, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	var post models.ForumPost
	if err := h.db.WithContext(ctx).First(&post, input.PostID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Post not found")
		}
		return nil, huma.Error500InternalServerError("Failed to load post")
	}

	var existing int64
	if err := h.db.WithContext(ctx).Model(&models.PostReport{}).
		Where("post_id = ? AND reporter_id = ?", post.ID, userID).
		Count(&existing).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to check reports")
	}
	if existing > 0 {
		return nil, huma.Error400BadRequest("You already reported this post.")
	}

	report := models.PostReport{
		PostID:     post.ID,
		ReporterID: userID,
		Reason:     strings.TrimSpace(input.Body.Reason),
	}
	if err := h.db.WithContext(ctx).Create(&report).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to file report")
	}

	res := &ReportResponse{}
	res.Body.Message = "Report submitted. Thank you for keeping the forum safe."
	return res, nil
}

type AdminDeletePostRequest struct {
	PostID uint `path:"post_id"`
}

type AdminDeletePostResponse struct {
	Body struct {
		Message         string `json:"message"`
		ResolvedReports int64  `json:"resolved_reports"`
	}
}

// HandleAdminDeletePost removes a post and its replies. Reports filed
// against any of them are marked resolved before the rows go away.
func (h *ForumHandler) HandleAdminDeletePost(ctx context.Context, input *AdminDeletePostRequest) (*AdminDeletePostResponse, error) {
	var post models.ForumPost
	if err := h.db.WithContext(ctx).First(&post, input.PostID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Post not found")
		}
		return nil, huma.Error500InternalServerError("Failed to load post")
	}

	var resolved int64
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := []uint{post.ID}
		var replies []models.ForumPost
		if err := tx.Where("parent_id = ?", post.ID).Find(&replies).Error; err != nil {
			return err
		}
		for _, reply := range replies {
			ids = append(ids, reply.ID)
		}

		result := tx.Model(&models.PostReport{}).
			Where("post_id IN ? AND resolved = ?", ids, false).
			Update("resolved", true)
		if result.Error != nil {
			return result.Error
		}
		resolved = result.RowsAffected

		if err := tx.Where("post_id IN ?", ids).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.ForumPost{}).Error
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to delete post")
	}

	res := &AdminDeletePostResponse{}
	res.Body.Message = "Post deleted."
	res.Body.ResolvedReports = resolved
	return res, nil
}

func (h *ForumHandler) likeCounts(ctx context.Context, posts []models.ForumPost) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(posts))
	if len(posts) == 0 {
		return counts, nil
	}
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	type row struct {
		PostID uint
		N      int64
	}
	var rows []row
	if err := h.db.WithContext(ctx).Model(&models.PostLike{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", ids).Group("post_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.PostID] = r.N
	}
	return counts, nil
}

func serializeThread(t *models.ForumThread, postCount int64) ThreadPayload {
	return ThreadPayload{
		ID:             t.ID,
		Title:          t.Title,
		Slug:           t.Slug,
		Body:           t.Body,
		Event:          t.Event.Title,
		EventID:        t.EventID,
		Author:         t.Author.Username,
		CreatedAt:      t.CreatedAt.Format(time.RFC3339),
		LastActivityAt: t.LastActivityAt.Format(time.RFC3339),
		IsPinned:       t.IsPinned,
		IsLocked:       t.IsLocked,
		ViewCount:      t.ViewCount,
		PostCount:      postCount,
	}
}

func serializePost(p *models.ForumPost, likeCount int64) PostPayload {
	return PostPayload{
		ID:        p.ID,
		Author:    p.Author.Username,
		ParentID:  p.ParentID,
		Content:   p.Content,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		LikeCount: likeCount,
	}
}

// buildPostTree nests replies one level under their top-level post,
// preserving creation order.
func buildPostTree(posts []models.ForumPost, likeCounts map[uint]int64) []PostPayload {
	top := make([]PostPayload, 0)
	index := make(map[uint]int)
	for i := range posts {
		if posts[i].ParentID != nil {
			continue
		}
		top = append(top, serializePost(&posts[i], likeCounts[posts[i].ID]))
		index[posts[i].ID] = len(top) - 1
	}
	for i := range posts {
		if posts[i].ParentID == nil {
			continue
		}
		if parentIdx, ok := index[*posts[i].ParentID]; ok {
			top[parentIdx].Replies = append(top[parentIdx].Replies, serializePost(&posts[i], likeCounts[posts[i].ID]))
		}
	}
	return top
}
