package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OSINTReport is a stored intelligence report and its per-source results
type OSINTReport struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`

	Query         string     `gorm:"type:text;not null" json:"query"`
	Sources       StringList `gorm:"type:text" json:"sources"`
	Results       string     `gorm:"type:text" json:"-"`
	Partial       bool       `gorm:"not null;default:false" json:"partial"`
	GeneratedByID string     `gorm:"type:uuid;not null;index" json:"generatedById"`
}

// BeforeCreate hook to generate UUID
func (r *OSINTReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for OSINTReport model
func (OSINTReport) TableName() string {
	return "osint_reports"
}
