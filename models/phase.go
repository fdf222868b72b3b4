package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Phase status constants
const (
	PhaseStatusPendiente = "pendiente"
	PhaseStatusEnProceso = "en_proceso"
	PhaseStatusAprobada  = "aprobada"
	PhaseStatusRechazada = "rechazada"
	PhaseStatusObservada = "observada"
)

// PhaseAlertThresholdDays is the number of elapsed days after which an
// unapproved phase raises an alert
const PhaseAlertThresholdDays = 15

var phaseStatuses = []string{PhaseStatusPendiente, PhaseStatusEnProceso, PhaseStatusAprobada, PhaseStatusRechazada, PhaseStatusObservada}

// phaseTransitions lists the allowed status moves. Staying in the same status is always allowed.
var phaseTransitions = map[string][]string{
	PhaseStatusPendiente: {PhaseStatusEnProceso},
	PhaseStatusEnProceso: {PhaseStatusAprobada, PhaseStatusRechazada, PhaseStatusObservada},
	PhaseStatusRechazada: {PhaseStatusEnProceso},
	PhaseStatusObservada: {PhaseStatusEnProceso},
}

// Phase is one numbered approval stage of a case
type Phase struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CaseID       string     `gorm:"column:expediente_id;type:uuid;not null;uniqueIndex:idx_fase_expediente_numero" json:"expedienteId"`
	Number       int        `gorm:"column:numero_fase;not null;uniqueIndex:idx_fase_expediente_numero" json:"numeroFase"`
	Name         string     `gorm:"column:nombre;not null" json:"nombre"`
	Status       string     `gorm:"column:estado;not null;default:pendiente;index" json:"estado"`
	StartDate    time.Time  `gorm:"column:fecha_inicio;not null" json:"fechaInicio"`
	ApprovedAt   *time.Time `gorm:"column:fecha_aprobacion" json:"fechaAprobacion,omitempty"`
	Notes        string     `gorm:"column:observaciones;type:text" json:"observaciones,omitempty"`
	RequiredDocs StringList `gorm:"column:documentos_requeridos;type:text" json:"documentosRequeridos"`
	ReceivedDocs StringList `gorm:"column:documentos_recibidos;type:text" json:"documentosRecibidos"`

	// Derived fields, maintained by the phase engine only
	Progress    int  `gorm:"column:progreso;not null;default:0" json:"progreso"`
	ElapsedDays int  `gorm:"column:dias_transcurridos;not null;default:0" json:"diasTranscurridos"`
	AlertActive bool `gorm:"column:alerta_activa;not null;default:false;index" json:"alertaActiva"`

	Case *Case `gorm:"foreignKey:CaseID" json:"expediente,omitempty"`
}

// BeforeCreate hook to generate UUID
func (p *Phase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Phase model
func (Phase) TableName() string {
	return "fases"
}

// IsApproved reports whether the phase has been approved
func (p *Phase) IsApproved() bool {
	return p.Status == PhaseStatusAprobada
}

// IsValidPhaseStatus checks if a phase status is valid
func IsValidPhaseStatus(status string) bool {
	return slices.Contains(phaseStatuses, status)
}

// CanTransitionPhase reports whether a phase may move from one status to another
func CanTransitionPhase(from, to string) bool {
	if from == to {
		return true
	}
	return slices.Contains(phaseTransitions[from], to)
}
