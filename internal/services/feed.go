package services

import (
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/hints"

	"teamline/internal/database"
	"teamline/internal/models"
)

// Feed page size bounds.
const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 50
)

// FeedQuery is the feed endpoint's filter set. Cursor is the id of the last
// post seen on the previous page; FolderID is "", "uncategorized"/"null", or
// a numeric folder id.
type FeedQuery struct {
	Tag      string
	FolderID string
	Cursor   uint
	Limit    int
}

// FeedPage is one page of the feed, newest first.
type FeedPage struct {
	Posts      []models.Post `json:"posts"`
	HasMore    bool          `json:"hasMore"`
	NextCursor uint          `json:"nextCursor,omitempty"`
}

// ListPosts assembles one feed page for the requesting user: posts ordered
// by creation time descending, paginated with the cursor row as an exclusive
// anchor. The relation set attached to each post follows the schema
// capabilities detected at startup; missing relations are backfilled as
// empty collections so the response shape stays stable.
func ListPosts(db *gorm.DB, caps database.Capabilities, user models.User, q FeedQuery) (*FeedPage, error) {
	limit := clampFeedLimit(q.Limit)

	tx := db.Model(&models.Post{}).
		Clauses(hints.CommentBefore("select", "feed")).
		Scopes(visiblePosts(db, caps, user))

	switch q.FolderID {
	case "":
		// no folder filter
	case "null", "uncategorized":
		tx = tx.Where("posts.folder_id IS NULL AND posts.user_id = ?", user.ID)
	default:
		folderID, err := strconv.ParseUint(q.FolderID, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid folderId", ErrInvalidInput)
		}
		var folder models.Folder
		if err := db.First(&folder, uint(folderID)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		// Cross-user folder references read as missing, not forbidden.
		if folder.UserID != user.ID {
			return nil, ErrNotFound
		}
		tx = tx.Where("posts.folder_id = ?", folder.ID)
	}

	if q.Tag != "" {
		if !caps.Tags {
			return &FeedPage{Posts: []models.Post{}}, nil
		}
		tx = tx.
			Joins("JOIN post_tags ON post_tags.post_id = posts.id").
			Joins("JOIN tags ON tags.id = post_tags.tag_id").
			Where("tags.name = ?", NormalizeTagName(q.Tag))
	}

	if q.Cursor != 0 {
		var anchor models.Post
		err := db.Select("id", "created_at").First(&anchor, q.Cursor).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if err == nil {
			tx = tx.Where("(posts.created_at < ?) OR (posts.created_at = ? AND posts.id < ?)",
				anchor.CreatedAt, anchor.CreatedAt, anchor.ID)
		}
	}

	// Fetch one extra row to learn whether another page exists.
	tx = tx.Order("posts.created_at DESC, posts.id DESC").Limit(limit + 1)
	tx = feedPreloads(tx, caps)

	var posts []models.Post
	if err := tx.Find(&posts).Error; err != nil {
		return nil, err
	}

	hasMore := len(posts) > limit
	if hasMore {
		posts = posts[:limit]
	}

	if err := attachCommentCounts(db, posts); err != nil {
		return nil, err
	}
	backfillRelations(posts)

	page := &FeedPage{Posts: posts, HasMore: hasMore}
	if hasMore && len(posts) > 0 {
		page.NextCursor = posts[len(posts)-1].ID
	}
	if page.Posts == nil {
		page.Posts = []models.Post{}
	}
	return page, nil
}

// visiblePosts scopes a post query to what the user may read: own posts,
// posts shared with them, everything for admins.
func visiblePosts(db *gorm.DB, caps database.Capabilities, user models.User) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if user.IsAdmin() {
			return tx
		}
		if !caps.Shares {
			return tx.Where("posts.user_id = ?", user.ID)
		}
		shared := db.Session(&gorm.Session{NewDB: true}).
			Model(&models.PostShare{}).
			Select("post_id").
			Where("user_id = ?", user.ID)
		return tx.Where("posts.user_id = ? OR posts.id IN (?)", user.ID, shared)
	}
}

func feedPreloads(tx *gorm.DB, caps database.Capabilities) *gorm.DB {
	tx = tx.Preload("User")
	if caps.Tags {
		tx = tx.Preload("Tags")
	}
	if caps.Shares {
		tx = tx.Preload("Shares.User")
	}
	if caps.Mentions {
		tx = tx.Preload("Mentions.User")
	}
	if caps.Attachments {
		tx = tx.Preload("Attachments.MediaFile")
	}
	if caps.Folders {
		tx = tx.Preload("Folder")
	}
	return tx
}

func clampFeedLimit(limit int) int {
	if limit == 0 {
		return DefaultFeedLimit
	}
	if limit < 1 {
		return 1
	}
	if limit > MaxFeedLimit {
		return MaxFeedLimit
	}
	return limit
}

type commentCountRow struct {
	PostID uint
	Count  int
}

func attachCommentCounts(db *gorm.DB, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]uint, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}

	var rows []commentCountRow
	if err := db.Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS count").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&rows).Error; err != nil {
		return err
	}

	counts := make(map[uint]int, len(rows))
	for _, r := range rows {
		counts[r.PostID] = r.Count
	}
	for i := range posts {
		posts[i].CommentsCount = counts[posts[i].ID]
	}
	return nil
}

// backfillRelations normalizes nil relation slices to empty ones so reduced
// projections serialize with the same shape as full ones.
func backfillRelations(posts []models.Post) {
	for i := range posts {
		p := &posts[i]
		if p.Tags == nil {
			p.Tags = []models.Tag{}
		}
		if p.Shares == nil {
			p.Shares = []models.PostShare{}
		}
		if p.Mentions == nil {
			p.Mentions = []models.PostMention{}
		}
		if p.Attachments == nil {
			p.Attachments = []models.PostAttachment{}
		}
	}
}
