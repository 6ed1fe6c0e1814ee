package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"path/filepath"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"teamline/internal/models"
	"teamline/internal/storage"
)

// MediaFileView is a media file with its resolved URL.
type MediaFileView struct {
	models.MediaFile
	URL string `json:"url"`
}

// UploadFile streams a multipart upload into object storage, then creates
// the database row. The object is written first; if the row insert fails the
// object is deleted again so a failed upload leaves nothing behind.
func UploadFile(ctx context.Context, db *gorm.DB, store storage.Store, user models.User, fh *multipart.FileHeader) (*MediaFileView, error) {
	if fh == nil || fh.Size <= 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrInvalidInput)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	key := uuid.NewString() + filepath.Ext(fh.Filename)
	contentType := fh.Header.Get("Content-Type")

	if err := store.Put(ctx, key, src, fh.Size, contentType); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	file := models.MediaFile{
		Name:       filepath.Base(fh.Filename),
		Size:       fh.Size,
		MimeType:   contentType,
		StorageKey: key,
		UserID:     user.ID,
	}
	if err := db.Create(&file).Error; err != nil {
		// Compensate: the object must not outlive a failed row insert.
		if delErr := store.Delete(ctx, key); delErr != nil {
			log.Printf("orphaned object %s after failed insert: %v", key, delErr)
		}
		return nil, err
	}

	file.User = user
	return &MediaFileView{MediaFile: file, URL: ResolveFileURL(store, &file)}, nil
}

// ListFiles returns the user's own files plus files shared with them,
// newest first.
func ListFiles(db *gorm.DB, store storage.Store, user models.User) ([]MediaFileView, error) {
	shared := db.Session(&gorm.Session{NewDB: true}).
		Model(&models.MediaShare{}).
		Select("media_file_id").
		Where("user_id = ?", user.ID)

	var files []models.MediaFile
	if err := db.Preload("User").
		Where("user_id = ? OR id IN (?)", user.ID, shared).
		Order("created_at DESC, id DESC").
		Find(&files).Error; err != nil {
		return nil, err
	}

	views := make([]MediaFileView, 0, len(files))
	for _, f := range files {
		views = append(views, MediaFileView{MediaFile: f, URL: ResolveFileURL(store, &f)})
	}
	return views, nil
}

// DeleteFile removes the storage object best-effort, then the database row
// and its dependents. A storage failure is logged but never blocks the row
// delete, so the drive cannot keep showing a file it can no longer serve.
func DeleteFile(ctx context.Context, db *gorm.DB, store storage.Store, user models.User, fileID uint) error {
	file, err := loadMediaFile(db, fileID)
	if err != nil {
		return err
	}
	if file.UserID != user.ID && !user.IsAdmin() {
		return ErrForbidden
	}

	if err := store.Delete(ctx, file.StorageKey); err != nil {
		log.Printf("failed to delete object %s for file %d: %v", file.StorageKey, file.ID, err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, dep := range []interface{}{
			&models.MediaShare{},
			&models.FileThreadEntry{},
			&models.PostAttachment{},
		} {
			if err := tx.Where("media_file_id = ?", file.ID).Delete(dep).Error; err != nil {
				return err
			}
		}
		return tx.Delete(file).Error
	})
}

// OpenFile authorizes the reader and streams the object into w.
func OpenFile(ctx context.Context, db *gorm.DB, store storage.Store, user models.User, fileID uint, w io.Writer) (*models.MediaFile, error) {
	file, err := loadMediaFile(db, fileID)
	if err != nil {
		return nil, err
	}
	if !canViewFile(db, user, file) {
		return nil, ErrForbidden
	}

	if err := store.Get(ctx, file.StorageKey, w); err != nil {
		return nil, err
	}
	return file, nil
}

// ResolveFileURL returns the backend's public URL for a file, or the app's
// download route when the backend has none.
func ResolveFileURL(store storage.Store, file *models.MediaFile) string {
	if u := store.URL(file.StorageKey); u != "" {
		return u
	}
	return fmt.Sprintf("/api/media/%d/download", file.ID)
}

// canViewFile reports whether the user may read the file: uploader, admin,
// or share grantee.
func canViewFile(db *gorm.DB, user models.User, file *models.MediaFile) bool {
	if file.UserID == user.ID || user.IsAdmin() {
		return true
	}
	var count int64
	if err := db.Model(&models.MediaShare{}).
		Where("media_file_id = ? AND user_id = ?", file.ID, user.ID).
		Count(&count).Error; err != nil {
		log.Printf("file visibility check failed for file %d: %v", file.ID, err)
		return false
	}
	return count > 0
}
