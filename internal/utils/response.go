package utils

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse sends the uniform `{error: string}` failure body.
func ErrorResponse(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

// BadRequestResponse sends a 400 with the given message.
func BadRequestResponse(c *fiber.Ctx, message string) error {
	return ErrorResponse(c, fiber.StatusBadRequest, message)
}

// UnauthorizedResponse sends a 401.
func UnauthorizedResponse(c *fiber.Ctx) error {
	return ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
}

// ForbiddenResponse sends a 403.
func ForbiddenResponse(c *fiber.Ctx) error {
	return ErrorResponse(c, fiber.StatusForbidden, "Forbidden")
}

// NotFoundResponse sends a 404 with the given message.
func NotFoundResponse(c *fiber.Ctx, message string) error {
	return ErrorResponse(c, fiber.StatusNotFound, message)
}

// ServerErrorResponse logs the underlying error and sends a generic 500.
// The raw error never reaches the client.
func ServerErrorResponse(c *fiber.Ctx, err error, op string) error {
	log.Printf("%s: %v", op, err)
	return ErrorResponse(c, fiber.StatusInternalServerError, "Internal server error")
}

// ErrorResponseStruct defines the schema for error responses
type ErrorResponseStruct struct {
	Error string `json:"error"`
}
