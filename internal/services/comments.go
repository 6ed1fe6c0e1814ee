package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"teamline/internal/models"
)

// ListComments returns a post's comments oldest-first. The post must be
// visible to the reader.
func ListComments(db *gorm.DB, user models.User, postID uint) ([]models.Comment, error) {
	post, err := loadPost(db, postID)
	if err != nil {
		return nil, err
	}
	if !canViewPost(db, user, post) {
		return nil, ErrForbidden
	}

	comments := []models.Comment{}
	if err := db.Preload("User").
		Where("post_id = ?", post.ID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// CreateComment adds a comment to a post visible to the author.
func CreateComment(db *gorm.DB, user models.User, postID uint, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	post, err := loadPost(db, postID)
	if err != nil {
		return nil, err
	}
	if !canViewPost(db, user, post) {
		return nil, ErrForbidden
	}

	comment := models.Comment{Content: content, PostID: post.ID, UserID: user.ID}
	if err := db.Create(&comment).Error; err != nil {
		return nil, err
	}
	comment.User = user
	return &comment, nil
}

// DeleteComment removes a comment as its author, the post's author, or an
// admin.
func DeleteComment(db *gorm.DB, user models.User, commentID uint) error {
	var comment models.Comment
	if err := db.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if comment.UserID != user.ID && !user.IsAdmin() {
		post, err := loadPost(db, comment.PostID)
		if err != nil {
			return err
		}
		if post.UserID != user.ID {
			return ErrForbidden
		}
	}

	return db.Delete(&comment).Error
}

// CreateFileComment adds a comment to a calendar-date thread.
func CreateFileComment(db *gorm.DB, user models.User, dateKey, content string) (*models.FileThreadComment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	if _, err := ParseDateKey(dateKey); err != nil {
		return nil, err
	}

	comment := models.FileThreadComment{Content: content, DateKey: dateKey, UserID: user.ID}
	if err := db.Create(&comment).Error; err != nil {
		return nil, err
	}
	comment.User = user
	return &comment, nil
}

// UpdateFileComment edits a date-thread comment; author only.
func UpdateFileComment(db *gorm.DB, user models.User, commentID uint, content string) (*models.FileThreadComment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}

	var comment models.FileThreadComment
	if err := db.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if comment.UserID != user.ID {
		return nil, ErrForbidden
	}

	comment.Content = content
	if err := db.Model(&comment).Update("content", content).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteFileComment removes a date-thread comment as its author or an admin.
func DeleteFileComment(db *gorm.DB, user models.User, commentID uint) error {
	var comment models.FileThreadComment
	if err := db.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if comment.UserID != user.ID && !user.IsAdmin() {
		return ErrForbidden
	}

	return db.Delete(&comment).Error
}
