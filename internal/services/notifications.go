package services

import (
	"errors"

	"gorm.io/gorm"

	"teamline/internal/models"
)

// NotificationList is the inbox projection: entries newest-first plus the
// unread count.
type NotificationList struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int64                 `json:"unreadCount"`
}

// ListNotifications returns the user's inbox.
func ListNotifications(db *gorm.DB, user models.User) (*NotificationList, error) {
	notifications := []models.Notification{}
	if err := db.Preload("Actor").
		Where("recipient_id = ?", user.ID).
		Order("created_at DESC, id DESC").
		Find(&notifications).Error; err != nil {
		return nil, err
	}

	var unread int64
	if err := db.Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", user.ID, false).
		Count(&unread).Error; err != nil {
		return nil, err
	}

	return &NotificationList{Notifications: notifications, UnreadCount: unread}, nil
}

// MarkNotificationRead marks a single notification read. Marking an already
// read notification again is a no-op.
func MarkNotificationRead(db *gorm.DB, user models.User, notificationID uint) (*models.Notification, error) {
	var n models.Notification
	if err := db.Where("id = ? AND recipient_id = ?", notificationID, user.ID).
		First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !n.Read {
		n.Read = true
		if err := db.Model(&n).Update("read", true).Error; err != nil {
			return nil, err
		}
	}
	return &n, nil
}

// MarkAllNotificationsRead marks the whole inbox read and returns how many
// entries flipped.
func MarkAllNotificationsRead(db *gorm.DB, user models.User) (int64, error) {
	res := db.Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", user.ID, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}
