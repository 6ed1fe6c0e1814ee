package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"teamline/internal/database"
	"teamline/internal/models"
)

// openTestDB opens a fresh in-memory database with the full schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func fullCaps() database.Capabilities {
	return database.Capabilities{Tags: true, Shares: true, Mentions: true, Attachments: true, Folders: true}
}

var userSeq int

func createUser(t *testing.T, db *gorm.DB, name, role string) models.User {
	t.Helper()
	userSeq++
	user := models.User{
		Name:         name,
		Email:        fmt.Sprintf("%s%d@example.com", name, userSeq),
		PasswordHash: "x",
		Role:         role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return user
}

func createPost(t *testing.T, db *gorm.DB, user models.User, title string, createdAt time.Time) models.Post {
	t.Helper()
	post := models.Post{Title: title, Content: title + " content", UserID: user.ID}
	if err := db.Create(&post).Error; err != nil {
		t.Fatalf("failed to create post %s: %v", title, err)
	}
	if !createdAt.IsZero() {
		if err := db.Model(&post).Update("created_at", createdAt).Error; err != nil {
			t.Fatalf("failed to backdate post %s: %v", title, err)
		}
		post.CreatedAt = createdAt
	}
	return post
}

func createMediaFile(t *testing.T, db *gorm.DB, user models.User, name string, createdAt time.Time) models.MediaFile {
	t.Helper()
	file := models.MediaFile{
		Name:       name,
		Size:       42,
		MimeType:   "text/plain",
		StorageKey: fmt.Sprintf("key-%s-%d", name, user.ID),
		UserID:     user.ID,
	}
	if err := db.Create(&file).Error; err != nil {
		t.Fatalf("failed to create media file %s: %v", name, err)
	}
	if !createdAt.IsZero() {
		if err := db.Model(&file).Update("created_at", createdAt).Error; err != nil {
			t.Fatalf("failed to backdate media file %s: %v", name, err)
		}
		file.CreatedAt = createdAt
	}
	return file
}
