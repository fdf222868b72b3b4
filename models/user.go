package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles
const (
	RoleAdmin        = "admin"
	RoleColaboradorA = "colaboradorA"
	RoleColaboradorB = "colaboradorB"
)

type User struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name          string     `gorm:"not null" json:"name"`
	Email         string     `gorm:"uniqueIndex;not null" json:"email"`
	Password      string     `gorm:"not null" json:"-"`
	Role          string     `gorm:"not null;default:colaboradorB" json:"role"`
	IsActive      bool       `gorm:"not null;default:true" json:"isActive"`
	LastLogin     *time.Time `json:"lastLogin,omitempty"`
	Avatar        string     `json:"avatar,omitempty"`
	Notifications bool       `gorm:"not null;default:true" json:"notifications"`

	// Tokens issued before this instant are rejected
	PasswordChangedAt *time.Time `json:"-"`
}

// BeforeCreate hook to generate UUID
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// IsValidRole checks if a role value is known
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleColaboradorA, RoleColaboradorB:
		return true
	}
	return false
}

// Can reports whether the user's role grants the capability
func (u *User) Can(capability Capability) bool {
	return u != nil && u.IsActive && RoleHasCapability(u.Role, capability)
}
