package services

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"teamline/internal/models"
)

// SharePost upserts read grants for the given users on a post. The caller
// must be the author or an admin. Self-shares and unknown user ids are
// skipped silently; the batch never fails on a bad target.
func SharePost(db *gorm.DB, actor models.User, postID uint, userIDs []uint) ([]models.PostShare, error) {
	post, err := loadPost(db, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	for _, id := range validShareTargets(db, userIDs, post.UserID) {
		share := models.PostShare{PostID: post.ID, UserID: id}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&share).Error; err != nil {
			return nil, err
		}
	}

	return ListPostShares(db, actor, post.ID)
}

// ListPostShares lists the current grantees of a post.
func ListPostShares(db *gorm.DB, actor models.User, postID uint) ([]models.PostShare, error) {
	post, err := loadPost(db, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	shares := []models.PostShare{}
	if err := db.Preload("User").
		Where("post_id = ?", post.ID).
		Order("id ASC").
		Find(&shares).Error; err != nil {
		return nil, err
	}
	return shares, nil
}

// DeletePostShare removes a single grant. A missing grant is not found.
func DeletePostShare(db *gorm.DB, actor models.User, postID, userID uint) error {
	post, err := loadPost(db, postID)
	if err != nil {
		return err
	}
	if post.UserID != actor.ID && !actor.IsAdmin() {
		return ErrForbidden
	}

	res := db.Where("post_id = ? AND user_id = ?", post.ID, userID).
		Delete(&models.PostShare{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ShareMedia upserts read grants for the given users on a file. The caller
// must be the uploader or an admin. Semantics mirror SharePost; the two
// ledgers are independent and no grant is ever transitive.
func ShareMedia(db *gorm.DB, actor models.User, fileID uint, userIDs []uint) ([]models.MediaShare, error) {
	file, err := loadMediaFile(db, fileID)
	if err != nil {
		return nil, err
	}
	if file.UserID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	for _, id := range validShareTargets(db, userIDs, file.UserID) {
		share := models.MediaShare{MediaFileID: file.ID, UserID: id}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "media_file_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&share).Error; err != nil {
			return nil, err
		}
	}

	return ListMediaShares(db, actor, file.ID)
}

// ListMediaShares lists the current grantees of a file.
func ListMediaShares(db *gorm.DB, actor models.User, fileID uint) ([]models.MediaShare, error) {
	file, err := loadMediaFile(db, fileID)
	if err != nil {
		return nil, err
	}
	if file.UserID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	shares := []models.MediaShare{}
	if err := db.Preload("User").
		Where("media_file_id = ?", file.ID).
		Order("id ASC").
		Find(&shares).Error; err != nil {
		return nil, err
	}
	return shares, nil
}

// DeleteMediaShare removes a single grant. A missing grant is not found.
func DeleteMediaShare(db *gorm.DB, actor models.User, fileID, userID uint) error {
	file, err := loadMediaFile(db, fileID)
	if err != nil {
		return err
	}
	if file.UserID != actor.ID && !actor.IsAdmin() {
		return ErrForbidden
	}

	res := db.Where("media_file_id = ? AND user_id = ?", file.ID, userID).
		Delete(&models.MediaShare{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// validShareTargets filters a target list down to existing users, excluding
// the owner (self-sharing is always skipped) and duplicates.
func validShareTargets(db *gorm.DB, userIDs []uint, ownerID uint) []uint {
	candidates := make([]uint, 0, len(userIDs))
	seen := make(map[uint]struct{}, len(userIDs))
	for _, id := range userIDs {
		if id == ownerID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		candidates = append(candidates, id)
	}
	if len(candidates) == 0 {
		return nil
	}

	var existing []uint
	if err := db.Model(&models.User{}).
		Where("id IN ?", candidates).
		Order("id").
		Pluck("id", &existing).Error; err != nil {
		return nil
	}
	return existing
}

func loadMediaFile(db *gorm.DB, fileID uint) (*models.MediaFile, error) {
	var file models.MediaFile
	if err := db.First(&file, fileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &file, nil
}
