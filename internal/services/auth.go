package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"teamline/internal/models"
)

// Identity lifecycle errors.
var (
	ErrEmailTaken        = errors.New("email already taken")
	ErrInvalidLogin      = errors.New("invalid email or password")
	ErrInvalidInvitation = errors.New("invalid or expired invitation")
	ErrInvalidToken      = errors.New("invalid or expired token")
)

// RegisterInput is the registration payload.
type RegisterInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	InviteToken string `json:"inviteToken"`
}

// Register creates an account. The first-ever user becomes an admin with no
// invitation; everyone after needs a valid, unexpired, unused invitation
// matching their email, which is consumed in the same transaction.
func Register(db *gorm.DB, in RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)

	if email == "" || name == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", ErrInvalidInput)
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}

	var exists int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists > 0 {
		return nil, ErrEmailTaken
	}

	var total int64
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, err
	}

	role := models.RoleMember
	var invitation *models.Invitation
	if total == 0 {
		role = models.RoleAdmin
	} else {
		var inv models.Invitation
		err := db.Where("token = ? AND email = ? AND used = ? AND expires_at > ?",
			in.InviteToken, email, false, time.Now()).
			First(&inv).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInvalidInvitation
			}
			return nil, err
		}
		invitation = &inv
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if invitation != nil {
			if err := tx.Model(invitation).Update("used", true).Error; err != nil {
				return err
			}
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login verifies credentials and opens a session.
func Login(db *gorm.DB, email, password string, ttl time.Duration) (*models.Session, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidLogin
		}
		return nil, nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, ErrInvalidLogin
	}

	session := models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := db.Create(&session).Error; err != nil {
		return nil, nil, err
	}
	return &session, &user, nil
}

// Logout removes a session. Unknown ids are a no-op.
func Logout(db *gorm.DB, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return db.Where("id = ?", sessionID).Delete(&models.Session{}).Error
}

// SessionUser resolves a session cookie to its user, expiring stale
// sessions as a side effect.
func SessionUser(db *gorm.DB, sessionID string) (*models.User, error) {
	if sessionID == "" {
		return nil, ErrNotFound
	}

	var session models.Session
	if err := db.First(&session, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if session.ExpiresAt.Before(time.Now()) {
		if err := db.Delete(&session).Error; err != nil {
			log.Printf("failed to delete expired session %s: %v", session.ID, err)
		}
		return nil, ErrNotFound
	}

	var user models.User
	if err := db.First(&user, session.UserID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateInvitation issues a one-time registration token; admin only.
func CreateInvitation(db *gorm.DB, actor models.User, email string, ttl time.Duration) (*models.Invitation, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	invitation := models.Invitation{
		Email:     email,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := db.Create(&invitation).Error; err != nil {
		return nil, err
	}
	return &invitation, nil
}

// ListInvitations lists issued invitations; admin only.
func ListInvitations(db *gorm.DB, actor models.User) ([]models.Invitation, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	invitations := []models.Invitation{}
	if err := db.Order("created_at DESC, id DESC").Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}

// ForgotPassword issues a reset token for a known email. Unknown emails are
// silently accepted so the endpoint does not disclose which addresses exist.
// Token delivery (email) is an external collaborator; the token is logged
// for operators until one is wired up.
func ForgotPassword(db *gorm.DB, email string, ttl time.Duration) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	reset := models.PasswordReset{
		Email:     email,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := db.Create(&reset).Error; err != nil {
		return err
	}
	log.Printf("password reset token issued for %s: %s", email, reset.Token)
	return nil
}

// ResetPassword consumes a reset token and sets the new password.
func ResetPassword(db *gorm.DB, token, newPassword string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}

	var reset models.PasswordReset
	err := db.Where("token = ? AND used = ? AND expires_at > ?", token, false, time.Now()).
		First(&reset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	var user models.User
	if err := db.Where("email = ?", reset.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&reset).Update("used", true).Error; err != nil {
			return err
		}
		return tx.Model(&user).Update("password_hash", string(hash)).Error
	})
}

// ProfileInput is the profile update payload.
type ProfileInput struct {
	Name        string `json:"name"`
	PublicShare bool   `json:"publicShare"`
	PublicSlug  string `json:"publicSlug"`
}

// UpdateProfile updates display name and public-timeline settings.
func UpdateProfile(db *gorm.DB, user *models.User, in ProfileInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	slug := strings.ToLower(strings.TrimSpace(in.PublicSlug))
	if slug != "" {
		var taken int64
		if err := db.Model(&models.User{}).
			Where("public_slug = ? AND id <> ?", slug, user.ID).
			Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return fmt.Errorf("%w: public slug already in use", ErrInvalidInput)
		}
	}

	user.Name = name
	user.PublicShare = in.PublicShare
	user.PublicSlug = slug
	return db.Model(user).
		Updates(map[string]interface{}{
			"name":         user.Name,
			"public_share": user.PublicShare,
			"public_slug":  user.PublicSlug,
		}).Error
}
