package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"teamline/internal/database"
	"teamline/internal/services"
)

// PublicHandler serves the unauthenticated public timeline.
type PublicHandler struct {
	DB   *gorm.DB
	Caps database.Capabilities
}

// GetTimeline handles GET /api/public/:slug
// @Summary Public timeline
// @Description Read-only posts of a user who opted in to public sharing
// @Tags Public
// @Produce json
// @Param slug path string true "Public slug or user id"
// @Param cursor query int false "Id of the last post on the previous page"
// @Param limit query int false "Page size, 1-50"
// @Success 200 {object} services.PublicTimeline
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /public/{slug} [get]
func (h *PublicHandler) GetTimeline(c *fiber.Ctx) error {
	timeline, err := services.GetPublicTimeline(
		h.DB, h.Caps, c.Params("slug"), uint(c.QueryInt("cursor")), c.QueryInt("limit"))
	if err != nil {
		return serviceError(c, err, "getPublicTimeline")
	}
	return c.Status(fiber.StatusOK).JSON(timeline)
}
