package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"teamline/internal/services"
	"teamline/internal/types"
)

// SessionCookie is the name of the session cookie.
const SessionCookie = "session_id"

// UserKey is the locals key the authenticated user is stored under.
const UserKey = "user"

// RequireUser resolves the session cookie to a user and stores it in locals.
// Missing or expired sessions abort the chain with a 401.
func RequireUser(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := services.SessionUser(db, c.Cookies(SessionCookie))
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				return &types.RequestError{Code: fiber.StatusUnauthorized, Message: "Unauthorized"}
			}
			return err
		}
		c.Locals(UserKey, *user)
		return c.Next()
	}
}

// RequireAdmin is RequireUser plus an admin role check.
func RequireAdmin(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := services.SessionUser(db, c.Cookies(SessionCookie))
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				return &types.RequestError{Code: fiber.StatusUnauthorized, Message: "Unauthorized"}
			}
			return err
		}
		if !user.IsAdmin() {
			return &types.RequestError{Code: fiber.StatusForbidden, Message: "Forbidden"}
		}
		c.Locals(UserKey, *user)
		return c.Next()
	}
}
