package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification types
const (
	NotificationTypePhaseAlert      = "PHASE_ALERT"
	NotificationTypeMonitoringAlert = "MONITORING_ALERT"
	NotificationTypeCaseUpdate      = "CASE_UPDATE"
	NotificationTypeSystem          = "SYSTEM"
)

type Notification struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Targeting, null means every user
	UserID *string `gorm:"type:uuid;index" json:"userId,omitempty"`

	// Context
	CaseID  *string `gorm:"column:expediente_id;type:uuid" json:"expedienteId,omitempty"`
	PhaseID *string `gorm:"column:fase_id;type:uuid" json:"faseId,omitempty"`

	// Content
	Type    string `gorm:"not null" json:"type"`
	Title   string `gorm:"not null" json:"title"`
	Message string `gorm:"type:text" json:"message"`
	LinkURL string `json:"linkUrl,omitempty"`

	ReadAt *time.Time `json:"readAt,omitempty"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
	Case *Case `gorm:"foreignKey:CaseID" json:"expediente,omitempty"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}
