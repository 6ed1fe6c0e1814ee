package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"teamline/internal/database"
	"teamline/internal/models"
)

// PostInput is the payload for creating or editing a post.
type PostInput struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	FolderID      *uint    `json:"folderId"`
	Tags          []string `json:"tags"`
	AttachmentIDs []uint   `json:"attachmentIds"`
}

// PostDetail is the full single-post projection, comments included.
type PostDetail struct {
	models.Post
	Comments []models.Comment `json:"comments"`
}

// NormalizeTagName trims and lowercases a tag name. Tag identity is the
// normalized form; "Foo", " foo " and "FOO" are the same tag.
func NormalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CreatePost creates a post with its tags and attachments, resolves mention
// markers in the content and fans out mention notifications after commit.
func CreatePost(db *gorm.DB, user models.User, in PostInput) (*models.Post, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	if err := validateFolderRef(db, user, in.FolderID); err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:    in.Title,
		Content:  in.Content,
		UserID:   user.ID,
		FolderID: in.FolderID,
	}

	var mentioned []uint
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		if err := syncTags(tx, post, in.Tags); err != nil {
			return err
		}
		if err := syncAttachments(tx, user, post.ID, in.AttachmentIDs); err != nil {
			return err
		}
		mentioned = resyncMentions(tx, post)
		return nil
	})
	if err != nil {
		return nil, err
	}

	NotifyMentions(db, post, user, mentioned)
	return post, nil
}

// UpdatePost edits a post as author or admin. The pre-edit title and content
// are snapshotted into PostHistory inside the same transaction as the
// overwrite and mention resync; notifications go out only after commit.
func UpdatePost(db *gorm.DB, user models.User, postID uint, in PostInput) (*models.Post, error) {
	post, err := loadPost(db, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != user.ID && !user.IsAdmin() {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	if err := validateFolderRef(db, user, in.FolderID); err != nil {
		return nil, err
	}

	var mentioned []uint
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := snapshotHistory(tx, post); err != nil {
			return err
		}

		post.Title = in.Title
		post.Content = in.Content
		post.FolderID = in.FolderID
		if err := tx.Model(post).
			Select("title", "content", "folder_id").
			Updates(map[string]interface{}{
				"title":     post.Title,
				"content":   post.Content,
				"folder_id": post.FolderID,
			}).Error; err != nil {
			return err
		}

		if err := syncTags(tx, post, in.Tags); err != nil {
			return err
		}
		if err := syncAttachments(tx, user, post.ID, in.AttachmentIDs); err != nil {
			return err
		}
		mentioned = resyncMentions(tx, post)
		return nil
	})
	if err != nil {
		return nil, err
	}

	NotifyMentions(db, post, user, mentioned)
	return post, nil
}

// DeletePost removes a post and all of its dependent rows.
func DeletePost(db *gorm.DB, user models.User, postID uint) error {
	post, err := loadPost(db, postID)
	if err != nil {
		return err
	}
	if post.UserID != user.ID && !user.IsAdmin() {
		return ErrForbidden
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(post).Association("Tags").Clear(); err != nil {
			return err
		}
		for _, dep := range []interface{}{
			&models.PostMention{},
			&models.PostShare{},
			&models.PostAttachment{},
			&models.Comment{},
			&models.PostHistory{},
		} {
			if err := tx.Where("post_id = ?", post.ID).Delete(dep).Error; err != nil {
				return err
			}
		}
		return tx.Delete(post).Error
	})
}

// GetPostDetail returns the full single-post projection for a reader:
// author, tags, shares, mentions, attachments, folder and comments.
func GetPostDetail(db *gorm.DB, caps database.Capabilities, user models.User, postID uint) (*PostDetail, error) {
	tx := feedPreloads(db, caps)

	var post models.Post
	if err := tx.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !canViewPost(db, user, &post) {
		return nil, ErrForbidden
	}

	var comments []models.Comment
	if err := db.Preload("User").
		Where("post_id = ?", post.ID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}

	post.CommentsCount = len(comments)
	posts := []models.Post{post}
	backfillRelations(posts)

	return &PostDetail{Post: posts[0], Comments: comments}, nil
}

// ListPostHistory returns a post's revisions, newest first.
func ListPostHistory(db *gorm.DB, user models.User, postID uint) ([]models.PostHistory, error) {
	post, err := loadPost(db, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != user.ID && !user.IsAdmin() {
		return nil, ErrForbidden
	}

	var history []models.PostHistory
	if err := db.Where("post_id = ?", post.ID).
		Order("edited_at DESC, id DESC").
		Find(&history).Error; err != nil {
		return nil, err
	}
	return history, nil
}

// RestorePost rolls a post back to a prior revision. The current state is
// snapshotted first, so a restore is itself undoable.
func RestorePost(db *gorm.DB, user models.User, postID, historyID uint) (*models.Post, error) {
	post, err := loadPost(db, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != user.ID && !user.IsAdmin() {
		return nil, ErrForbidden
	}

	var revision models.PostHistory
	if err := db.Where("id = ? AND post_id = ?", historyID, post.ID).
		First(&revision).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var mentioned []uint
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := snapshotHistory(tx, post); err != nil {
			return err
		}

		post.Title = revision.Title
		post.Content = revision.Content
		if err := tx.Model(post).
			Updates(map[string]interface{}{
				"title":   post.Title,
				"content": post.Content,
			}).Error; err != nil {
			return err
		}

		mentioned = resyncMentions(tx, post)
		return nil
	})
	if err != nil {
		return nil, err
	}

	NotifyMentions(db, post, user, mentioned)
	return post, nil
}

func loadPost(db *gorm.DB, postID uint) (*models.Post, error) {
	var post models.Post
	if err := db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

// canViewPost reports whether the user may read the post: author, admin, or
// share grantee.
func canViewPost(db *gorm.DB, user models.User, post *models.Post) bool {
	if post.UserID == user.ID || user.IsAdmin() {
		return true
	}
	var count int64
	if err := db.Model(&models.PostShare{}).
		Where("post_id = ? AND user_id = ?", post.ID, user.ID).
		Count(&count).Error; err != nil {
		log.Printf("post visibility check failed for post %d: %v", post.ID, err)
		return false
	}
	return count > 0
}

func snapshotHistory(tx *gorm.DB, post *models.Post) error {
	return tx.Create(&models.PostHistory{
		PostID:   post.ID,
		Title:    post.Title,
		Content:  post.Content,
		EditedAt: time.Now(),
	}).Error
}

// resyncMentions resolves and replaces the post's mention set inside the
// caller's transaction. A failure is logged and leaves the previous set in
// place; it never aborts the post write.
func resyncMentions(tx *gorm.DB, post *models.Post) []uint {
	mentioned, err := ResolveMentions(tx, post.Content)
	if err != nil {
		log.Printf("mention resolution failed for post %d: %v", post.ID, err)
		return nil
	}
	if err := SyncMentions(tx, post.ID, mentioned); err != nil {
		log.Printf("mention sync failed for post %d: %v", post.ID, err)
		return nil
	}
	return mentioned
}

// validateFolderRef rejects folder ids that do not exist or belong to
// another user.
func validateFolderRef(db *gorm.DB, user models.User, folderID *uint) error {
	if folderID == nil {
		return nil
	}
	var folder models.Folder
	if err := db.First(&folder, *folderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: folder does not exist", ErrInvalidInput)
		}
		return err
	}
	if folder.UserID != user.ID {
		return fmt.Errorf("%w: folder belongs to another user", ErrInvalidInput)
	}
	return nil
}

// syncTags upserts the normalized tag names and replaces the post's tag set.
func syncTags(tx *gorm.DB, post *models.Post, names []string) error {
	seen := make(map[string]struct{})
	tags := make([]models.Tag, 0, len(names))
	for _, raw := range names {
		name := NormalizeTagName(raw)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		var tag models.Tag
		if err := tx.Where("name = ?", name).
			FirstOrCreate(&tag, models.Tag{Name: name}).Error; err != nil {
			return err
		}
		tags = append(tags, tag)
	}

	return tx.Model(post).Association("Tags").Replace(&tags)
}

// syncAttachments replaces the post's attachment rows. Files that do not
// exist or are not visible to the author are skipped rather than failing the
// whole write.
func syncAttachments(tx *gorm.DB, user models.User, postID uint, fileIDs []uint) error {
	if err := tx.Where("post_id = ?", postID).Delete(&models.PostAttachment{}).Error; err != nil {
		return err
	}

	seen := make(map[uint]struct{})
	for _, fileID := range fileIDs {
		if _, ok := seen[fileID]; ok {
			continue
		}
		seen[fileID] = struct{}{}

		var file models.MediaFile
		if err := tx.First(&file, fileID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return err
		}
		if !canViewFile(tx, user, &file) {
			continue
		}
		if err := tx.Create(&models.PostAttachment{
			PostID:      postID,
			MediaFileID: file.ID,
		}).Error; err != nil {
			return err
		}
	}
	return nil
}
