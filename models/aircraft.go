package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Aircraft type constants
const (
	AircraftTypeAvion        = "avion"
	AircraftTypeHelicoptero  = "helicoptero"
	AircraftTypePlaneador    = "planeador"
	AircraftTypeGlobo        = "globo"
	AircraftTypeUltraliviano = "ultraliviano"
)

var aircraftTypes = []string{AircraftTypeAvion, AircraftTypeHelicoptero, AircraftTypePlaneador, AircraftTypeGlobo, AircraftTypeUltraliviano}

// Aircraft is a registered aircraft owned by a client
type Aircraft struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Registration      string     `gorm:"column:matricula;size:10;uniqueIndex;not null" json:"matricula"`
	Make              string     `gorm:"column:marca;not null" json:"marca"`
	Model             string     `gorm:"column:modelo;not null" json:"modelo"`
	SerialNumber      *string    `gorm:"column:numero_serie" json:"numeroSerie,omitempty"`
	Type              string     `gorm:"column:tipo_aeronave;not null" json:"tipoAeronave"`
	OwnerID           string     `gorm:"column:propietario_id;type:uuid;not null;index" json:"propietarioId"`
	YearBuilt         *int       `gorm:"column:ano_fabricacion" json:"anoFabricacion,omitempty"`
	FlightHours       float64    `gorm:"column:horas_vuelo;not null;default:0" json:"horasVuelo"`
	CertificateValid  bool       `gorm:"column:certificado_vigente;not null;default:false" json:"certificadoVigente"`
	CertificateExpiry *time.Time `gorm:"column:fecha_vencimiento_certificado" json:"fechaVencimientoCertificado,omitempty"`

	Owner *Client `gorm:"foreignKey:OwnerID" json:"propietario,omitempty"`
}

// BeforeCreate hook to generate UUID
func (a *Aircraft) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Aircraft model
func (Aircraft) TableName() string {
	return "aeronaves"
}

// IsValidAircraftType checks if an aircraft type is known
func IsValidAircraftType(t string) bool {
	return slices.Contains(aircraftTypes, t)
}
