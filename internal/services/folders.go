package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"teamline/internal/models"
)

// ListFolders returns the user's folders ordered by name.
func ListFolders(db *gorm.DB, user models.User) ([]models.Folder, error) {
	folders := []models.Folder{}
	if err := db.Where("user_id = ?", user.ID).
		Order("name ASC, id ASC").
		Find(&folders).Error; err != nil {
		return nil, err
	}
	return folders, nil
}

// CreateFolder creates a folder for the user. A parent, when given, must be
// one of the user's own folders.
func CreateFolder(db *gorm.DB, user models.User, name string, parentID *uint) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if parentID != nil {
		if _, err := loadOwnedFolder(db, user, *parentID); err != nil {
			return nil, err
		}
	}

	folder := models.Folder{Name: name, UserID: user.ID, ParentID: parentID}
	if err := db.Create(&folder).Error; err != nil {
		return nil, err
	}
	return &folder, nil
}

// UpdateFolder renames and/or reparents a folder. Self-parenting is rejected,
// as is any reparent that would close a cycle through the ancestor chain.
func UpdateFolder(db *gorm.DB, user models.User, folderID uint, name string, parentID *uint) (*models.Folder, error) {
	folder, err := loadOwnedFolder(db, user, folderID)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	if parentID != nil {
		if *parentID == folder.ID {
			return nil, fmt.Errorf("%w: folder cannot be its own parent", ErrInvalidInput)
		}
		parent, err := loadOwnedFolder(db, user, *parentID)
		if err != nil {
			return nil, err
		}
		ok, err := isAcyclicParent(db, folder.ID, parent)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: folder cannot be moved under its own descendant", ErrInvalidInput)
		}
	}

	folder.Name = name
	folder.ParentID = parentID
	if err := db.Model(folder).
		Updates(map[string]interface{}{
			"name":      folder.Name,
			"parent_id": folder.ParentID,
		}).Error; err != nil {
		return nil, err
	}
	return folder, nil
}

// DeleteFolder removes a folder. Its posts are unfoldered, never deleted,
// and child folders move up to the deleted folder's parent.
func DeleteFolder(db *gorm.DB, user models.User, folderID uint) error {
	folder, err := loadOwnedFolder(db, user, folderID)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).
			Where("folder_id = ?", folder.ID).
			Update("folder_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Folder{}).
			Where("parent_id = ?", folder.ID).
			Update("parent_id", folder.ParentID).Error; err != nil {
			return err
		}
		return tx.Delete(folder).Error
	})
}

// isAcyclicParent walks up from the proposed parent and reports false when
// the chain passes through the folder being moved.
func isAcyclicParent(db *gorm.DB, folderID uint, parent *models.Folder) (bool, error) {
	current := parent
	for current != nil {
		if current.ID == folderID {
			return false, nil
		}
		if current.ParentID == nil {
			return true, nil
		}
		var next models.Folder
		if err := db.First(&next, *current.ParentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return true, nil
			}
			return false, err
		}
		current = &next
	}
	return true, nil
}

func loadOwnedFolder(db *gorm.DB, user models.User, folderID uint) (*models.Folder, error) {
	var folder models.Folder
	if err := db.First(&folder, folderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	// Cross-user folder references read as missing, not forbidden.
	if folder.UserID != user.ID {
		return nil, ErrNotFound
	}
	return &folder, nil
}
