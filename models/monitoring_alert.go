package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Monitoring sources
const (
	SourceANACNovedades    = "ANAC_NOVEDADES"
	SourceANACResoluciones = "ANAC_RESOLUCIONES"
	SourceBoletinOficial   = "BOLETIN_OFICIAL"
	SourceGoogleAlerts     = "GOOGLE_ALERTS"
	SourceLinkedIn         = "LINKEDIN"
	SourceWhatsApp         = "WHATSAPP"
	SourceOtro             = "OTRO"
)

// Alert priorities
const (
	PriorityVerde    = "verde"
	PriorityAmarillo = "amarillo"
	PriorityRojo     = "rojo"
)

// Alert statuses
const (
	AlertStatusNueva      = "nueva"
	AlertStatusEnRevision = "en_revision"
	AlertStatusProcesada  = "procesada"
	AlertStatusArchivada  = "archivada"
)

var (
	monitoringSources = []string{SourceANACNovedades, SourceANACResoluciones, SourceBoletinOficial, SourceGoogleAlerts, SourceLinkedIn, SourceWhatsApp, SourceOtro}
	alertPriorities   = []string{PriorityVerde, PriorityAmarillo, PriorityRojo}
	alertStatuses     = []string{AlertStatusNueva, AlertStatusEnRevision, AlertStatusProcesada, AlertStatusArchivada}
)

// MonitoringAlert is a regulatory news item picked up by the watch
type MonitoringAlert struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Source          string     `gorm:"column:fuente;size:32;not null;uniqueIndex:idx_monitoreo_titulo_fuente" json:"fuente"`
	Title           string     `gorm:"column:titulo;size:500;not null;uniqueIndex:idx_monitoreo_titulo_fuente" json:"titulo"`
	Content         string     `gorm:"column:contenido;type:text" json:"contenido"`
	URL             *string    `gorm:"column:url" json:"url,omitempty"`
	Priority        string     `gorm:"column:prioridad;not null;default:verde;index" json:"prioridad"`
	EstimatedImpact string     `gorm:"column:impacto_estimado;type:text" json:"impactoEstimado,omitempty"`
	RequiredAction  string     `gorm:"column:accion_requerida;type:text" json:"accionRequerida,omitempty"`
	AssigneeID      *string    `gorm:"column:responsable_asignado;type:uuid" json:"responsableAsignado,omitempty"`
	DetectedAt      time.Time  `gorm:"column:fecha_deteccion;not null;index" json:"fechaDeteccion"`
	ReviewedAt      *time.Time `gorm:"column:fecha_revision" json:"fechaRevision,omitempty"`
	Status          string     `gorm:"column:estado;not null;default:nueva;index" json:"estado"`
	Tags            StringList `gorm:"column:etiquetas;type:text" json:"etiquetas"`

	Assignee *User `gorm:"foreignKey:AssigneeID" json:"responsable,omitempty"`
}

// BeforeCreate hook to generate UUID
func (m *MonitoringAlert) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for MonitoringAlert model
func (MonitoringAlert) TableName() string {
	return "monitoreo_estrategico"
}

// IsValidMonitoringSource checks if a monitoring source is valid
func IsValidMonitoringSource(s string) bool {
	return slices.Contains(monitoringSources, s)
}

// IsValidAlertPriority checks if an alert priority is valid
func IsValidAlertPriority(p string) bool {
	return slices.Contains(alertPriorities, p)
}

// IsValidAlertStatus checks if an alert status is valid
func IsValidAlertStatus(s string) bool {
	return slices.Contains(alertStatuses, s)
}

// PriorityRank orders priorities from most to least severe
func PriorityRank(p string) int {
	switch p {
	case PriorityRojo:
		return 0
	case PriorityAmarillo:
		return 1
	default:
		return 2
	}
}
