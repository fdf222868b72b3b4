package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Case status constants
const (
	CaseStatusBorrador      = "borrador"
	CaseStatusEnProceso     = "en_proceso"
	CaseStatusPendienteANAC = "pendiente_anac"
	CaseStatusCompletado    = "completado"
	CaseStatusCancelado     = "cancelado"
	CaseStatusBloqueado     = "bloqueado"
)

// Procedure type constants
const (
	ProcedureTransferencia         = "transferencia"
	ProcedureMatriculacion         = "matriculacion"
	ProcedureCertificacionEmpresa  = "certificacion_empresa"
	ProcedureImportacion           = "importacion"
	ProcedureRenovacionCertificado = "renovacion_certificado"
	ProcedureModificacionDatos     = "modificacion_datos"
)

// Urgency constants
const (
	UrgencyBaja    = "baja"
	UrgencyMedia   = "media"
	UrgencyAlta    = "alta"
	UrgencyCritica = "critica"
)

var (
	caseStatuses   = []string{CaseStatusBorrador, CaseStatusEnProceso, CaseStatusPendienteANAC, CaseStatusCompletado, CaseStatusCancelado, CaseStatusBloqueado}
	procedureTypes = []string{ProcedureTransferencia, ProcedureMatriculacion, ProcedureCertificacionEmpresa, ProcedureImportacion, ProcedureRenovacionCertificado, ProcedureModificacionDatos}
	urgencies      = []string{UrgencyBaja, UrgencyMedia, UrgencyAlta, UrgencyCritica}
)

// Case is a regulatory case file ("expediente") for one client
type Case struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Number is assigned once at creation and never changes
	Number        string     `gorm:"column:numero;uniqueIndex;not null" json:"numero"`
	ProcedureType string     `gorm:"column:tipo_tramite;not null;index" json:"tipoTramite"`
	ClientID      string     `gorm:"column:cliente_id;type:uuid;not null;index" json:"clienteId"`
	AssigneeID    string     `gorm:"column:responsable_id;type:uuid;not null;index" json:"responsableId"`
	Status        string     `gorm:"column:estado;not null;default:borrador;index" json:"estado"`
	StartDate     time.Time  `gorm:"column:fecha_inicio;not null" json:"fechaInicio"`
	DueDate       *time.Time `gorm:"column:fecha_vencimiento;index" json:"fechaVencimiento,omitempty"`
	Urgency       string     `gorm:"column:urgencia;not null;default:media" json:"urgencia"`
	Fees          *float64   `gorm:"column:honorarios;type:decimal(10,2)" json:"honorarios,omitempty"`
	Notes         string     `gorm:"column:observaciones;type:text" json:"observaciones,omitempty"`
	Progress      int        `gorm:"column:progreso;not null;default:0" json:"progreso"`

	// Relationships
	Client    *Client    `gorm:"foreignKey:ClientID" json:"cliente,omitempty"`
	Assignee  *User      `gorm:"foreignKey:AssigneeID" json:"responsable,omitempty"`
	Phases    []Phase    `gorm:"foreignKey:CaseID" json:"fases,omitempty"`
	Documents []Document `gorm:"foreignKey:CaseID" json:"documentos,omitempty"`
}

// BeforeCreate hook to generate UUID
func (c *Case) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Case model
func (Case) TableName() string {
	return "expedientes"
}

// IsClosed reports whether the case no longer counts as pending work
func (c *Case) IsClosed() bool {
	return c.Status == CaseStatusCompletado || c.Status == CaseStatusCancelado
}

// IsValidCaseStatus checks if a status is valid
func IsValidCaseStatus(status string) bool {
	return slices.Contains(caseStatuses, status)
}

// IsValidProcedureType checks if a procedure type is valid
func IsValidProcedureType(t string) bool {
	return slices.Contains(procedureTypes, t)
}

// IsValidUrgency checks if an urgency level is valid
func IsValidUrgency(u string) bool {
	return slices.Contains(urgencies, u)
}

// CaseCounter holds the monotonic sequence used for case numbers
type CaseCounter struct {
	Name  string `gorm:"primarykey;size:64"`
	Value int64  `gorm:"not null;default:0"`
}

// TableName specifies the table name for CaseCounter model
func (CaseCounter) TableName() string {
	return "case_counters"
}
