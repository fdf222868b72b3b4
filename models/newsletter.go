package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Newsletter statuses
const (
	NewsletterStatusBorrador = "borrador"
	NewsletterStatusEnviado  = "enviado"
	NewsletterStatusError    = "error"
)

// Newsletter is a generated weekly digest
type Newsletter struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Title       string     `gorm:"column:titulo;not null" json:"titulo"`
	HTMLContent string     `gorm:"column:contenido;type:text;not null" json:"contenido"`
	TextContent string     `gorm:"column:contenido_texto;type:text" json:"contenidoTexto"`
	Status      string     `gorm:"column:estado;not null;default:borrador" json:"estado"`
	SentAt      *time.Time `gorm:"column:fecha_envio" json:"fechaEnvio,omitempty"`
	SentCount   int        `gorm:"column:cantidad_enviados;not null;default:0" json:"cantidadEnviados"`
}

// BeforeCreate hook to generate UUID
func (n *Newsletter) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Newsletter model
func (Newsletter) TableName() string {
	return "newsletters"
}

// Subscriber receives the newsletter while active
type Subscriber struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Email  string `gorm:"uniqueIndex;not null" json:"email"`
	Name   string `gorm:"column:nombre" json:"nombre,omitempty"`
	Active bool   `gorm:"column:activo;not null;default:true" json:"activo"`
}

// BeforeCreate hook to generate UUID
func (s *Subscriber) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Subscriber model
func (Subscriber) TableName() string {
	return "subscribers"
}
