package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Research categories
const (
	ResearchCategoryAviacionCivil = "aviacion_civil"
	ResearchCategoryDefensa       = "defensa"
	ResearchCategoryInteligencia  = "inteligencia"
	ResearchCategoryGaming        = "gaming_esports"
	ResearchCategoryRegulatorio   = "regulatorio"
	ResearchCategoryTecnologia    = "tecnologia"
	ResearchCategoryOtro          = "otro"
)

// Research statuses
const (
	ResearchStatusBorrador   = "borrador"
	ResearchStatusEnRevision = "en_revision"
	ResearchStatusPublicado  = "publicado"
	ResearchStatusArchivado  = "archivado"
)

// Research visibility
const (
	VisibilityPrivado = "privado"
	VisibilityEquipo  = "equipo"
	VisibilityPublico = "publico"
)

// Research is an internal analysis article that can be featured in the newsletter
type Research struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Title           string     `gorm:"column:titulo;not null" json:"titulo"`
	Category        string     `gorm:"column:categoria;not null;default:otro" json:"categoria"`
	Content         string     `gorm:"column:contenido;type:text;not null" json:"contenido"`
	Sources         StringList `gorm:"column:fuentes;type:text" json:"fuentes"`
	AuthorID        string     `gorm:"column:autor_id;type:uuid;not null;index" json:"autorId"`
	Status          string     `gorm:"column:estado;not null;default:borrador;index" json:"estado"`
	Visibility      string     `gorm:"column:visibilidad;not null;default:equipo" json:"visibilidad"`
	Conclusions     string     `gorm:"column:conclusiones;type:text" json:"conclusiones,omitempty"`
	Recommendations string     `gorm:"column:recomendaciones;type:text" json:"recomendaciones,omitempty"`
	Tags            StringList `gorm:"column:tags;type:text" json:"tags"`

	Author *User `gorm:"foreignKey:AuthorID" json:"autor,omitempty"`
}

// BeforeCreate hook to generate UUID
func (r *Research) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Research model
func (Research) TableName() string {
	return "research"
}
