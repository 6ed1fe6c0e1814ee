package models

import (
	"time"
)

// MediaFile is an uploaded file. The object lives in the configured storage
// backend under StorageKey; the row is created only after the object write
// succeeds.
type MediaFile struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	Size       int64     `gorm:"not null" json:"size"`
	MimeType   string    `gorm:"size:128" json:"mimeType"`
	StorageKey string    `gorm:"size:191;uniqueIndex;not null" json:"-"`
	UserID     uint      `gorm:"not null;index" json:"userId"`
	User       User      `gorm:"foreignKey:UserID" json:"uploader"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// MediaShare grants one user read access to one file. Independent of post
// sharing: sharing a post never shares its attachments.
type MediaShare struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	MediaFileID uint      `gorm:"not null;index:idx_media_share,unique" json:"mediaFileId"`
	UserID      uint      `gorm:"not null;index:idx_media_share,unique" json:"userId"`
	User        User      `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FileThreadEntry associates a file with a calendar date other than its
// creation day. CreatedAt doubles as the "added to the conversation" stamp.
type FileThreadEntry struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	DateKey     string    `gorm:"type:char(10);not null;index:idx_thread_entry,unique" json:"dateKey"`
	MediaFileID uint      `gorm:"not null;index:idx_thread_entry,unique" json:"mediaFileId"`
	MediaFile   MediaFile `gorm:"foreignKey:MediaFileID" json:"file"`
	CreatedAt   time.Time `json:"addedAt"`
}

// FileThreadComment is a comment scoped to a calendar date rather than a post.
type FileThreadComment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	DateKey   string    `gorm:"type:char(10);not null;index" json:"dateKey"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	User      User      `gorm:"foreignKey:UserID" json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
