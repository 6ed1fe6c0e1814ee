package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"teamline/internal/services"
	"teamline/internal/utils"
)

// NotificationHandler handles the notification inbox.
type NotificationHandler struct {
	DB *gorm.DB
}

type markReadRequest struct {
	ID uint `json:"id"`
}

// ListNotifications handles GET /api/notifications
// @Summary List notifications
// @Description Inbox newest-first plus unread count
// @Tags Notifications
// @Produce json
// @Success 200 {object} services.NotificationList
// @Router /notifications [get]
func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	list, err := services.ListNotifications(h.DB, currentUser(c))
	if err != nil {
		return serviceError(c, err, "listNotifications")
	}
	return c.Status(fiber.StatusOK).JSON(list)
}

// MarkRead handles PATCH /api/notifications
// @Summary Mark a notification read
// @Description Mark one notification read; already-read entries are a no-op
// @Tags Notifications
// @Accept json
// @Produce json
// @Success 200 {object} models.Notification
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /notifications [patch]
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	var in markReadRequest
	if err := c.BodyParser(&in); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	n, err := services.MarkNotificationRead(h.DB, currentUser(c), in.ID)
	if err != nil {
		return serviceError(c, err, "markNotificationRead")
	}
	return c.Status(fiber.StatusOK).JSON(n)
}

// MarkAllRead handles POST /api/notifications/read-all
// @Summary Mark all notifications read
// @Description Mark the entire inbox read and report how many flipped
// @Tags Notifications
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	updated, err := services.MarkAllNotificationsRead(h.DB, currentUser(c))
	if err != nil {
		return serviceError(c, err, "markAllNotificationsRead")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"updated": updated})
}
