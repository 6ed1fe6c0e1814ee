package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification types.
const (
	NotificationMention = "mention"
)

// Notification is an inbox entry. At most one row exists per
// (recipient, post, type); creation is suppressed by an existence check.
type Notification struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Type        string         `gorm:"size:30;not null;index" json:"type"`
	RecipientID uint           `gorm:"not null;index" json:"recipientId"`
	ActorID     uint           `gorm:"not null;index" json:"actorId"`
	Actor       User           `gorm:"foreignKey:ActorID" json:"actor"`
	PostID      *uint          `gorm:"index" json:"postId,omitempty"`
	Read        bool           `gorm:"not null;default:false;index" json:"read"`
	Data        datatypes.JSON `gorm:"type:json" json:"data,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}
