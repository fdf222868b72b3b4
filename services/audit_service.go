package services

import (
	"encoding/json"
	"jetlex_app_go/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AuditContext contains contextual information for audit logging
type AuditContext struct {
	UserID    string
	UserName  string
	UserRole  string
	IPAddress string
	UserAgent string
	RequestID string
}

// AuditContextFor builds an audit context for a user
func AuditContextFor(user *models.User) AuditContext {
	if user == nil {
		return AuditContext{UserName: "system", UserRole: "system"}
	}
	return AuditContext{UserID: user.ID, UserName: user.Name, UserRole: user.Role}
}

// LogAuditEvent creates a new audit log entry asynchronously
func LogAuditEvent(
	db *gorm.DB,
	ctx AuditContext,
	action models.AuditAction,
	resourceType string,
	resourceID string,
	resourceName string,
	description string,
	oldValues interface{},
	newValues interface{},
) {
	go func() {
		if err := WriteAuditEvent(db, ctx, action, resourceType, resourceID, resourceName, description, oldValues, newValues); err != nil {
			log.Error().Err(err).Str("component", "audit").Str("resource", resourceType).Msg("failed to create audit log")
		}
	}()
}

// WriteAuditEvent stores an audit entry synchronously
func WriteAuditEvent(
	db *gorm.DB,
	ctx AuditContext,
	action models.AuditAction,
	resourceType, resourceID, resourceName, description string,
	oldValues, newValues interface{},
) error {
	entry := models.AuditLog{
		UserID:       ptrIfNotEmpty(ctx.UserID),
		UserName:     ctx.UserName,
		UserRole:     ctx.UserRole,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		ResourceName: resourceName,
		Action:       action,
		Description:  description,
		OldValues:    marshalAuditValue(oldValues),
		NewValues:    marshalAuditValue(newValues),
		IPAddress:    ctx.IPAddress,
		UserAgent:    ctx.UserAgent,
		RequestID:    ctx.RequestID,
	}
	return db.Create(&entry).Error
}

func marshalAuditValue(v interface{}) string {
	if v == nil {
		return ""
	}
	bytes, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(bytes)
}

// ptrIfNotEmpty returns a pointer to the string if not empty, nil otherwise
func ptrIfNotEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// GetResourceAuditHistory retrieves the audit history for a specific resource
func GetResourceAuditHistory(db *gorm.DB, resourceType, resourceID string) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := db.Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}
