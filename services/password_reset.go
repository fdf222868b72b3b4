package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"jetlex_app_go/models"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	// ResetTokenLength is the length of the reset token in bytes
	ResetTokenLength = 32
	// ResetTokenExpiration is how long a reset token is valid
	ResetTokenExpiration = 2 * time.Hour
)

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RequestPasswordReset creates a reset token for the active account behind email.
// Unknown or inactive addresses yield a nil user and no error so callers cannot probe for accounts.
func RequestPasswordReset(db *gorm.DB, email string, now time.Time) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var user models.User
	if err := db.Where("email = ? AND is_active = ?", email, true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			LogSecurityEvent("PASSWORD_RESET_UNKNOWN", "", "reset requested for unknown or inactive email")
			return nil, "", nil
		}
		return nil, "", err
	}

	tokenBytes := make([]byte, ResetTokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(tokenBytes)

	err := db.Transaction(func(tx *gorm.DB) error {
		// Only the latest link works
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.PasswordResetToken{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.PasswordResetToken{
			UserID:    user.ID,
			TokenHash: hashResetToken(token),
			ExpiresAt: now.Add(ResetTokenExpiration),
		}).Error
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to store reset token: %w", err)
	}

	LogSecurityEvent("PASSWORD_RESET_REQUESTED", user.ID, "reset link issued")
	return &user, token, nil
}

// ResetPassword sets a new password using a reset token. The token is consumed and
// every access token issued before now stops working.
func ResetPassword(db *gorm.DB, token, newPassword string, now time.Time) (*models.User, error) {
	var reset models.PasswordResetToken
	err := db.Preload("User").Where("token_hash = ?", hashResetToken(token)).First(&reset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			LogSecurityEvent("PASSWORD_RESET_FAILED", "", "unknown reset token")
			return nil, Validation("token", "invalid or expired token")
		}
		return nil, err
	}
	if reset.IsExpired(now) {
		db.Delete(&reset)
		return nil, Validation("token", "invalid or expired token")
	}
	if reset.User == nil || !reset.User.IsActive {
		return nil, Validation("token", "invalid or expired token")
	}
	user := reset.User

	if err := ValidatePasswordForEmail(newPassword, user.Email); err != nil {
		return nil, Validation("password", err.Error())
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Updates(map[string]interface{}{
			"password":            hash,
			"password_changed_at": now,
		}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", user.ID).Delete(&models.PasswordResetToken{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reset password: %w", err)
	}

	LogSecurityEvent("PASSWORD_RESET_COMPLETED", user.ID, "password reset")
	return user, nil
}

// CleanupExpiredTokens deletes every reset token past its expiry
func CleanupExpiredTokens(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Where("expires_at < ?", now).Delete(&models.PasswordResetToken{})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		log.Info().Str("component", "security").Int64("count", result.RowsAffected).Msg("expired reset tokens removed")
	}
	return result.RowsAffected, nil
}
