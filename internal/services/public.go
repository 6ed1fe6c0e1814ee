package services

import (
	"errors"
	"strconv"

	"gorm.io/gorm"

	"teamline/internal/database"
	"teamline/internal/models"
)

// PublicTimeline is the unauthenticated read-only projection of one user's
// posts: author + tags + comment counts, never shares or mentions.
type PublicTimeline struct {
	Owner models.User `json:"owner"`
	FeedPage
}

// GetPublicTimeline resolves a public slug (or raw user id) to a user who
// opted in to public sharing and returns one page of their posts.
func GetPublicTimeline(db *gorm.DB, caps database.Capabilities, slug string, cursor uint, limit int) (*PublicTimeline, error) {
	owner, err := resolvePublicUser(db, slug)
	if err != nil {
		return nil, err
	}

	pageSize := clampFeedLimit(limit)
	tx := db.Model(&models.Post{}).
		Where("posts.user_id = ?", owner.ID)

	if cursor != 0 {
		var anchor models.Post
		err := db.Select("id", "created_at").First(&anchor, cursor).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if err == nil {
			tx = tx.Where("(posts.created_at < ?) OR (posts.created_at = ? AND posts.id < ?)",
				anchor.CreatedAt, anchor.CreatedAt, anchor.ID)
		}
	}

	tx = tx.Order("posts.created_at DESC, posts.id DESC").
		Limit(pageSize + 1).
		Preload("User")
	if caps.Tags {
		tx = tx.Preload("Tags")
	}

	var posts []models.Post
	if err := tx.Find(&posts).Error; err != nil {
		return nil, err
	}

	hasMore := len(posts) > pageSize
	if hasMore {
		posts = posts[:pageSize]
	}

	if err := attachCommentCounts(db, posts); err != nil {
		return nil, err
	}
	backfillRelations(posts)
	if posts == nil {
		posts = []models.Post{}
	}

	timeline := &PublicTimeline{
		Owner: *owner,
		FeedPage: FeedPage{
			Posts:   posts,
			HasMore: hasMore,
		},
	}
	if hasMore && len(posts) > 0 {
		timeline.NextCursor = posts[len(posts)-1].ID
	}
	return timeline, nil
}

// resolvePublicUser matches by slug first, then by raw numeric id. Either
// way the account must have public sharing enabled.
func resolvePublicUser(db *gorm.DB, slug string) (*models.User, error) {
	var user models.User
	err := db.Where("public_slug = ? AND public_share = ?", slug, true).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	id, parseErr := strconv.ParseUint(slug, 10, 32)
	if parseErr != nil {
		return nil, ErrNotFound
	}
	err = db.Where("id = ? AND public_share = ?", uint(id), true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
