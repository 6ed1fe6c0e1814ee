package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"teamline/internal/config"
	"teamline/internal/middleware"
	"teamline/internal/services"
	"teamline/internal/utils"
)

// AuthHandler handles registration, sessions, invitations and profiles.
type AuthHandler struct {
	DB  *gorm.DB
	Cfg *config.Config
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// Register handles POST /api/register
// @Summary Register a new account
// @Description Create an account; the first user becomes admin, later users need an invitation token
// @Tags Auth
// @Accept json
// @Produce json
// @Success 201 {object} models.User
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in services.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	user, err := services.Register(h.DB, in)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			return utils.ErrorResponse(c, fiber.StatusConflict, err.Error())
		case errors.Is(err, services.ErrInvalidInvitation):
			return utils.ForbiddenResponse(c)
		default:
			return serviceError(c, err, "register")
		}
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login handles POST /api/login
// @Summary Log in
// @Description Verify credentials and set the session cookie
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in loginRequest
	if err := c.BodyParser(&in); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	ttl := time.Duration(h.Cfg.SessionTTLHours) * time.Hour
	session, user, err := services.Login(h.DB, in.Email, in.Password, ttl)
	if err != nil {
		if errors.Is(err, services.ErrInvalidLogin) {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, err.Error())
		}
		return serviceError(c, err, "login")
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    session.ID,
		Expires:  session.ExpiresAt,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
	return c.Status(fiber.StatusOK).JSON(user)
}

// Logout handles POST /api/logout
// @Summary Log out
// @Description Delete the current session and clear the cookie
// @Tags Auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := services.Logout(h.DB, c.Cookies(middleware.SessionCookie)); err != nil {
		return serviceError(c, err, "logout")
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Path:     "/",
	})
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

// Me handles GET /api/me
// @Summary Current user
// @Description Return the authenticated user
// @Tags Auth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(currentUser(c))
}

// UpdateProfile handles PUT /api/me
// @Summary Update profile
// @Description Update display name and public timeline settings
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} models.User
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /me [put]
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	var in services.ProfileInput
	if err := c.BodyParser(&in); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	user := currentUser(c)
	if err := services.UpdateProfile(h.DB, &user, in); err != nil {
		return serviceError(c, err, "updateProfile")
	}
	return c.Status(fiber.StatusOK).JSON(user)
}

// CreateInvitation handles POST /api/invitations
// @Summary Issue an invitation
// @Description Create a one-time registration token for an email address; admin only
// @Tags Auth
// @Accept json
// @Produce json
// @Success 201 {object} models.Invitation
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /invitations [post]
func (h *AuthHandler) CreateInvitation(c *fiber.Ctx) error {
	var in emailRequest
	if err := c.BodyParser(&in); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	ttl := time.Duration(h.Cfg.InviteTTLHours) * time.Hour
	invitation, err := services.CreateInvitation(h.DB, currentUser(c), in.Email, ttl)
	if err != nil {
		return serviceError(c, err, "createInvitation")
	}
	return c.Status(fiber.StatusCreated).JSON(invitation)
}

// ListInvitations handles GET /api/invitations
// @Summary List invitations
// @Description List issued invitations; admin only
// @Tags Auth
// @Produce json
// @Success 200 {array} models.Invitation
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /invitations [get]
func (h *AuthHandler) ListInvitations(c *fiber.Ctx) error {
	invitations, err := services.ListInvitations(h.DB, currentUser(c))
	if err != nil {
		return serviceError(c, err, "listInvitations")
	}
	return c.Status(fiber.StatusOK).JSON(invitations)
}

// ForgotPassword handles POST /api/forgot-password
// @Summary Request a password reset
// @Description Issue a reset token for the email; always succeeds to avoid disclosing accounts
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var in emailRequest
	if err := c.BodyParser(&in); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	ttl := time.Duration(h.Cfg.ResetTTLHours) * time.Hour
	if err := services.ForgotPassword(h.DB, in.Email, ttl); err != nil {
		return serviceError(c, err, "forgotPassword")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

// ResetPassword handles POST /api/reset-password
// @Summary Reset a password
// @Description Consume a reset token and set a new password
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /reset-password [post]
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var in resetRequest
	if err := c.BodyParser(&in); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	if err := services.ResetPassword(h.DB, in.Token, in.Password); err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			return utils.BadRequestResponse(c, err.Error())
		}
		return serviceError(c, err, "resetPassword")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}
