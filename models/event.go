package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event type constants
const (
	EventTypeReunionCliente    = "reunion_cliente"
	EventTypeVencimiento       = "vencimiento"
	EventTypeAudiencia         = "audiencia"
	EventTypeInspeccion        = "inspeccion"
	EventTypeEntregaDocumentos = "entrega_documentos"
	EventTypeSeguimiento       = "seguimiento"
	EventTypeOtro              = "otro"
)

// Event status constants
const (
	EventStatusProgramado = "programado"
	EventStatusEnCurso    = "en_curso"
	EventStatusCompletado = "completado"
	EventStatusCancelado  = "cancelado"
)

// Recurrence frequencies
const (
	RecurrenceDiaria  = "diaria"
	RecurrenceSemanal = "semanal"
	RecurrenceMensual = "mensual"
	RecurrenceAnual   = "anual"
)

var (
	eventTypes    = []string{EventTypeReunionCliente, EventTypeVencimiento, EventTypeAudiencia, EventTypeInspeccion, EventTypeEntregaDocumentos, EventTypeSeguimiento, EventTypeOtro}
	eventStatuses = []string{EventStatusProgramado, EventStatusEnCurso, EventStatusCompletado, EventStatusCancelado}
	recurrences   = []string{RecurrenceDiaria, RecurrenceSemanal, RecurrenceMensual, RecurrenceAnual}
)

// Event is a calendar entry, optionally linked to a client or case
type Event struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Title        string     `gorm:"column:titulo;not null" json:"titulo"`
	Description  string     `gorm:"column:descripcion;type:text" json:"descripcion,omitempty"`
	Type         string     `gorm:"column:tipo;not null;default:otro" json:"tipo"`
	StartsAt     time.Time  `gorm:"column:fecha_inicio;not null;index" json:"fechaInicio"`
	EndsAt       time.Time  `gorm:"column:fecha_fin;not null" json:"fechaFin"`
	Location     string     `gorm:"column:ubicacion" json:"ubicacion,omitempty"`
	ClientID     *string    `gorm:"column:cliente_id;type:uuid;index" json:"clienteId,omitempty"`
	CaseID       *string    `gorm:"column:expediente_id;type:uuid;index" json:"expedienteId,omitempty"`
	AssigneeID   string     `gorm:"column:responsable_id;type:uuid;not null;index" json:"responsableId"`
	Participants StringList `gorm:"column:participantes;type:text" json:"participantes"`
	Reminders    StringList `gorm:"column:recordatorios;type:text" json:"recordatorios"`
	Status       string     `gorm:"column:estado;not null;default:programado" json:"estado"`
	Notes        string     `gorm:"column:notas;type:text" json:"notas,omitempty"`
	Recurring    bool       `gorm:"column:es_recurrente;not null;default:false" json:"esRecurrente"`
	Frequency    *string    `gorm:"column:frecuencia_recurrencia" json:"frecuenciaRecurrencia,omitempty"`
	SeriesID     *string    `gorm:"column:serie_id;type:uuid;index" json:"serieId,omitempty"`

	Client   *Client `gorm:"foreignKey:ClientID" json:"cliente,omitempty"`
	Case     *Case   `gorm:"foreignKey:CaseID" json:"expediente,omitempty"`
	Assignee *User   `gorm:"foreignKey:AssigneeID" json:"responsable,omitempty"`
}

// BeforeCreate hook to generate UUID
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Event model
func (Event) TableName() string {
	return "eventos"
}

// IsValidEventType checks if an event type is valid
func IsValidEventType(t string) bool {
	return slices.Contains(eventTypes, t)
}

// IsValidEventStatus checks if an event status is valid
func IsValidEventStatus(s string) bool {
	return slices.Contains(eventStatuses, s)
}

// IsValidRecurrence checks if a recurrence frequency is valid
func IsValidRecurrence(f string) bool {
	return slices.Contains(recurrences, f)
}
