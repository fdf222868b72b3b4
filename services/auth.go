package services

import (
	"errors"
	"fmt"
	"jetlex_app_go/models"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10
	// DefaultTokenDuration is how long an issued access token stays valid
	DefaultTokenDuration = 24 * time.Hour
)

// TokenClaims is the payload of an access token
type TokenClaims struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 access tokens
type TokenIssuer struct {
	secret   []byte
	duration time.Duration
}

func NewTokenIssuer(secret string, duration time.Duration) *TokenIssuer {
	if duration <= 0 {
		duration = DefaultTokenDuration
	}
	return &TokenIssuer{secret: []byte(secret), duration: duration}
}

// Issue signs a token for the user
func (t *TokenIssuer) Issue(user *models.User, now time.Time) (string, error) {
	claims := TokenClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.duration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns its claims
func (t *TokenIssuer) Parse(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, &Error{Kind: KindAuth, Message: "invalid token", Err: err}
	}
	if claims.UserID == "" {
		return nil, Unauthorized("invalid token")
	}
	return claims, nil
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword verifies a password against a hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// RegisterInput carries a new account request
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	PIN      string `json:"pin"`
}

// RegisterUser creates an account.
// The first account is always an admin. Later accounts need either an
// authenticated admin (registrar) or the invite PIN.
func RegisterUser(db *gorm.DB, input RegisterInput, registrar *models.User, invitePIN string) (*models.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if len([]rune(input.Name)) < 2 {
		return nil, Validation("name", "name must have at least 2 characters")
	}
	if !ValidateEmail(input.Email) {
		return nil, Validation("email", "invalid email address")
	}
	if err := ValidatePasswordForEmail(input.Password, input.Email); err != nil {
		return nil, Validation("password", err.Error())
	}
	if input.Role != "" && !models.IsValidRole(input.Role) {
		return nil, Validation("role", "invalid role")
	}

	var userCount int64
	if err := db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		return nil, err
	}

	role := input.Role
	if userCount == 0 {
		role = models.RoleAdmin
	} else {
		switch {
		case registrar != nil:
			if registrar.Role != models.RoleAdmin {
				return nil, Forbidden("only administrators can create users")
			}
		case invitePIN == "" || input.PIN != invitePIN:
			return nil, Forbidden("invalid invitation PIN")
		default:
			// Self-registration through the PIN never grants admin
			if role == models.RoleAdmin {
				role = ""
			}
		}
		if role == "" {
			role = models.RoleColaboradorB
		}
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:          input.Name,
		Email:         input.Email,
		Password:      hash,
		Role:          role,
		IsActive:      true,
		Notifications: true,
	}
	if err := db.Create(user).Error; err != nil {
		return nil, translateDBError(err, "user with this email")
	}

	LogSecurityEvent("USER_REGISTERED", user.ID, "role="+user.Role)
	return user, nil
}

// Login checks credentials of an active user and stamps the last login
func Login(db *gorm.DB, email, password string, now time.Time) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var user models.User
	err := db.Where("email = ? AND is_active = ?", email, true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			LogSecurityEvent("LOGIN_FAILED", "", "unknown email")
			return nil, Unauthorized("invalid credentials")
		}
		return nil, err
	}
	if !CheckPassword(password, user.Password) {
		LogSecurityEvent("LOGIN_FAILED", user.ID, "bad password")
		return nil, Unauthorized("invalid credentials")
	}

	user.LastLogin = &now
	if err := db.Model(&user).Update("last_login", now).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ProfileInput carries the self-editable profile fields
type ProfileInput struct {
	Name          *string `json:"name"`
	Avatar        *string `json:"avatar"`
	Notifications *bool   `json:"notifications"`
}

// UpdateProfile changes the caller's own profile
func UpdateProfile(db *gorm.DB, user *models.User, input ProfileInput) (*models.User, error) {
	updates := map[string]interface{}{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if len([]rune(name)) < 2 {
			return nil, Validation("name", "name must have at least 2 characters")
		}
		updates["name"] = name
	}
	if input.Avatar != nil {
		updates["avatar"] = strings.TrimSpace(*input.Avatar)
	}
	if input.Notifications != nil {
		updates["notifications"] = *input.Notifications
	}
	if len(updates) > 0 {
		if err := db.Model(user).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	var fresh models.User
	if err := db.First(&fresh, "id = ?", user.ID).Error; err != nil {
		return nil, translateDBError(err, "user")
	}
	return &fresh, nil
}

// GetActiveUser loads a user that may still sign in
func GetActiveUser(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := db.Where("id = ? AND is_active = ?", id, true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Unauthorized("user not found or inactive")
		}
		return nil, err
	}
	return &user, nil
}

// LogSecurityEvent logs security-related events
func LogSecurityEvent(eventType, userID, details string) {
	log.Info().Str("component", "security").Str("event", eventType).Str("user_id", userID).Msg(details)
}

// ListUsers returns every account ordered by name
func ListUsers(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := db.Order("name ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// UserAccessInput carries the admin-editable access fields of an account
type UserAccessInput struct {
	Role     *string `json:"role"`
	IsActive *bool   `json:"isActive"`
}

// UpdateUserAccess changes another account's role or active flag.
// Admins cannot demote or deactivate themselves, so the system always keeps one admin.
func UpdateUserAccess(db *gorm.DB, actor *models.User, id string, input UserAccessInput) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return nil, translateDBError(err, "user")
	}

	updates := map[string]interface{}{}
	if input.Role != nil {
		if !models.IsValidRole(*input.Role) {
			return nil, Validation("role", "invalid role")
		}
		if actor != nil && actor.ID == user.ID && *input.Role != models.RoleAdmin {
			return nil, Validation("role", "administrators cannot demote themselves")
		}
		updates["role"] = *input.Role
	}
	if input.IsActive != nil {
		if actor != nil && actor.ID == user.ID && !*input.IsActive {
			return nil, Validation("isActive", "administrators cannot deactivate themselves")
		}
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		return &user, nil
	}
	if err := db.Model(&user).Updates(updates).Error; err != nil {
		return nil, err
	}

	actorID := ""
	if actor != nil {
		actorID = actor.ID
	}
	LogSecurityEvent("USER_ACCESS_CHANGED", actorID, "target="+user.ID)
	return GetUserByID(db, user.ID)
}

// GetUserByID loads any account, active or not
func GetUserByID(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return nil, translateDBError(err, "user")
	}
	return &user, nil
}
