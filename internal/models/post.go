package models

import (
	"time"
)

// Post is a timeline entry. Content is rich-text HTML produced by the editor;
// mention markers inside it are resolved server-side on every write.
type Post struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Title    string  `gorm:"size:255" json:"title"`
	Content  string  `gorm:"type:text;not null" json:"content"`
	UserID   uint    `gorm:"not null;index" json:"userId"`
	User     User    `gorm:"foreignKey:UserID" json:"author"`
	FolderID *uint   `gorm:"index" json:"folderId,omitempty"`
	Folder   *Folder `gorm:"foreignKey:FolderID" json:"folder,omitempty"`

	Tags        []Tag            `gorm:"many2many:post_tags" json:"tags"`
	Shares      []PostShare      `gorm:"foreignKey:PostID" json:"shares"`
	Mentions    []PostMention    `gorm:"foreignKey:PostID" json:"mentions"`
	Attachments []PostAttachment `gorm:"foreignKey:PostID" json:"attachments"`

	// CommentsCount is computed at query time, never persisted.
	CommentsCount int `gorm:"-" json:"commentsCount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostHistory is an immutable snapshot of a post taken before each edit or
// restore overwrites it.
type PostHistory struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	PostID   uint      `gorm:"not null;index" json:"postId"`
	Title    string    `gorm:"size:255" json:"title"`
	Content  string    `gorm:"type:text" json:"content"`
	EditedAt time.Time `gorm:"not null" json:"editedAt"`
}

// Tag is a normalized lowercase label, globally unique.
type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:64;uniqueIndex;not null" json:"name"`
}

// Folder is a per-user grouping of posts. ParentID forms a tree; deleting a
// folder leaves its posts unfoldered.
type Folder struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	ParentID  *uint     `gorm:"index" json:"parentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Comment is a reply to a post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	PostID    uint      `gorm:"not null;index" json:"postId"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	User      User      `gorm:"foreignKey:UserID" json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostAttachment links a media file to a post.
type PostAttachment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PostID      uint      `gorm:"not null;index:idx_post_attachment,unique" json:"postId"`
	MediaFileID uint      `gorm:"not null;index:idx_post_attachment,unique" json:"mediaFileId"`
	MediaFile   MediaFile `gorm:"foreignKey:MediaFileID" json:"file"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PostMention records that a user was @mentioned in a post. The whole set is
// replaced on every post write.
type PostMention struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	PostID uint `gorm:"not null;index:idx_post_mention,unique" json:"postId"`
	UserID uint `gorm:"not null;index:idx_post_mention,unique" json:"userId"`
	User   User `gorm:"foreignKey:UserID" json:"user"`
}

// PostShare grants one user read access to one post.
type PostShare struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index:idx_post_share,unique" json:"postId"`
	UserID    uint      `gorm:"not null;index:idx_post_share,unique" json:"userId"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}
