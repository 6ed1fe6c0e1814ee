package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"teamline/internal/config"
	"teamline/internal/services"
	"teamline/internal/storage"
)

// HealthHandler reports service health.
type HealthHandler struct {
	DB    *gorm.DB
	Cfg   *config.Config
	Store storage.Store
}

// Health handles GET /api/health
// @Summary Health check
// @Description Database and storage reachability
// @Tags Health
// @Produce json
// @Success 200 {object} services.HealthCheckResult
// @Failure 503 {object} services.HealthCheckResult
// @Router /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	result := services.HealthCheck(h.Cfg, h.DB, h.Store)
	status := fiber.StatusOK
	if result.Status != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(result)
}

// Ping handles GET /api/ping
// @Summary Liveness probe
// @Description Cheap liveness check with no dependencies
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /ping [get]
func (h *HealthHandler) Ping(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"pong": true})
}
