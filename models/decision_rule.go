package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Decision levels, 1 being the most senior
const (
	DecisionLevel1 = "1"
	DecisionLevel2 = "2"
	DecisionLevel3 = "3"
)

var decisionLevels = []string{DecisionLevel1, DecisionLevel2, DecisionLevel3}

// DecisionRule is one row of the escalation matrix
type DecisionRule struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Level            string   `gorm:"column:nivel;not null;index" json:"nivel" yaml:"nivel"`
	Criterion        string   `gorm:"column:criterio;type:text;not null" json:"criterio" yaml:"criterio"`
	MinAmount        *float64 `gorm:"column:monto_minimo;type:decimal(10,2)" json:"montoMinimo,omitempty" yaml:"montoMinimo"`
	MaxAmount        *float64 `gorm:"column:monto_maximo;type:decimal(10,2)" json:"montoMaximo,omitempty" yaml:"montoMaximo"`
	Responsible      string   `gorm:"column:responsable;not null" json:"responsable" yaml:"responsable"`
	RequiresConsult  bool     `gorm:"column:requiere_consulta;not null;default:false" json:"requiereConsulta" yaml:"requiereConsulta"`
	MaxResponseHours int      `gorm:"column:tiempo_maximo_respuesta;not null;default:24" json:"tiempoMaximoRespuesta" yaml:"tiempoMaximoRespuesta"`
	Escalation       string   `gorm:"column:escalamiento;type:text" json:"escalamiento,omitempty" yaml:"escalamiento"`
	Active           bool     `gorm:"column:activo;not null;default:true;index" json:"activo" yaml:"-"`
}

// BeforeCreate hook to generate UUID
func (r *DecisionRule) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for DecisionRule model
func (DecisionRule) TableName() string {
	return "sistema_decisiones"
}

// Matches reports whether amount falls in [MinAmount, MaxAmount)
func (r *DecisionRule) Matches(amount float64) bool {
	if r.MinAmount != nil && amount < *r.MinAmount {
		return false
	}
	if r.MaxAmount != nil && amount >= *r.MaxAmount {
		return false
	}
	return true
}

// IsValidDecisionLevel checks if a decision level is valid
func IsValidDecisionLevel(level string) bool {
	return slices.Contains(decisionLevels, level)
}
