package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client type constants
const (
	ClientTypePersonaFisica = "persona_fisica"
	ClientTypeEmpresa       = "empresa"
	ClientTypeAeroclub      = "aeroclub"
	ClientTypeLineaAerea    = "linea_aerea"
)

var clientTypes = []string{ClientTypePersonaFisica, ClientTypeEmpresa, ClientTypeAeroclub, ClientTypeLineaAerea}

// Client is a person or organisation the consultancy works for
type Client struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name          string     `gorm:"column:nombre;size:200;not null;index" json:"nombre"`
	Email         *string    `json:"email,omitempty"`
	Phone         *string    `gorm:"column:telefono;size:20" json:"telefono,omitempty"`
	Type          string     `gorm:"column:tipo;not null;default:persona_fisica" json:"tipo"`
	CUIT          *string    `gorm:"column:cuit;size:11;uniqueIndex" json:"cuit,omitempty"`
	Address       string     `gorm:"column:domicilio;type:text" json:"domicilio,omitempty"`
	Active        bool       `gorm:"column:activo;not null;default:true" json:"activo"`
	Notes         string     `gorm:"column:notas;type:text" json:"notas,omitempty"`
	LastContactAt *time.Time `gorm:"column:fecha_ultimo_contacto" json:"fechaUltimoContacto,omitempty"`

	// Relationships
	Cases    []Case     `gorm:"foreignKey:ClientID" json:"expedientes,omitempty"`
	Aircraft []Aircraft `gorm:"foreignKey:OwnerID" json:"aeronaves,omitempty"`
}

// BeforeCreate hook to generate UUID
func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Client model
func (Client) TableName() string {
	return "clientes"
}

// IsValidClientType checks if a client type is known
func IsValidClientType(t string) bool {
	return slices.Contains(clientTypes, t)
}
