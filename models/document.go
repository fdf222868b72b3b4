package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document category constants
const (
	DocumentCategoryCedula    = "cedula_identificacion"
	DocumentCategoryMatricula = "certificado_matricula"
	DocumentCategorySeguro    = "seguro"
	DocumentCategoryTecnica   = "documentacion_tecnica"
	DocumentCategoryPoder     = "poder"
	DocumentCategoryOtros     = "otros"
)

var documentCategories = []string{DocumentCategoryCedula, DocumentCategoryMatricula, DocumentCategorySeguro, DocumentCategoryTecnica, DocumentCategoryPoder, DocumentCategoryOtros}

// Document is a file uploaded against a case
type Document struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CaseID       string `gorm:"column:expediente_id;type:uuid;not null;index" json:"expedienteId"`
	FileName     string `gorm:"column:nombre;not null" json:"nombre"`
	OriginalName string `gorm:"column:nombre_original;not null" json:"nombreOriginal"`
	MimeType     string `gorm:"column:tipo" json:"tipo"`
	FileSize     int64  `gorm:"column:tamano" json:"tamano"`
	StorageKey   string `gorm:"column:ruta;not null" json:"ruta"`
	UploadedByID string `gorm:"column:subido_por_id;type:uuid;not null" json:"subidoPorId"`
	Category     string `gorm:"column:categoria;not null;default:otros" json:"categoria"`

	UploadedBy *User `gorm:"foreignKey:UploadedByID" json:"subidoPor,omitempty"`
}

// BeforeCreate hook to generate UUID
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Document model
func (Document) TableName() string {
	return "documentos"
}

// IsValidDocumentCategory checks if a document category is valid
func IsValidDocumentCategory(c string) bool {
	return slices.Contains(documentCategories, c)
}
