package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"teamline/internal/middleware"
	"teamline/internal/models"
	"teamline/internal/services"
	"teamline/internal/utils"
)

// currentUser returns the authenticated user placed in locals by the auth
// middleware. Handlers behind RequireUser can rely on it being set.
func currentUser(c *fiber.Ctx) models.User {
	user, _ := c.Locals(middleware.UserKey).(models.User)
	return user
}

// parseID parses a numeric route parameter.
func parseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// serviceError maps service sentinel errors onto the uniform error responses.
// Anything unrecognized is logged and returned as a generic 500.
func serviceError(c *fiber.Ctx, err error, op string) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return utils.BadRequestResponse(c, err.Error())
	case errors.Is(err, services.ErrForbidden):
		return utils.ForbiddenResponse(c)
	case errors.Is(err, services.ErrNotFound):
		return utils.NotFoundResponse(c, "Not found")
	default:
		return utils.ServerErrorResponse(c, err, op)
	}
}
