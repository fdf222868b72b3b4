package services

import (
	"fmt"
	"jetlex_app_go/models"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AircraftInput carries the editable fields of an aircraft
type AircraftInput struct {
	Registration      string     `json:"matricula"`
	Make              string     `json:"marca"`
	Model             string     `json:"modelo"`
	SerialNumber      *string    `json:"numeroSerie"`
	Type              string     `json:"tipoAeronave"`
	OwnerID           string     `json:"propietarioId"`
	YearBuilt         *int       `json:"anoFabricacion"`
	FlightHours       *float64   `json:"horasVuelo"`
	CertificateValid  *bool      `json:"certificadoVigente"`
	CertificateExpiry *time.Time `json:"fechaVencimientoCertificado"`
}

// AircraftFilters narrows an aircraft listing
type AircraftFilters struct {
	Type    string
	OwnerID string
	Search  string
}

func validateAircraftInput(db *gorm.DB, input *AircraftInput, partial bool) error {
	input.Registration = NormalizeRegistration(input.Registration)
	input.Make = strings.TrimSpace(input.Make)
	input.Model = strings.TrimSpace(input.Model)

	if !partial || input.Registration != "" {
		if !ValidateRegistration(input.Registration) {
			return Validation("matricula", "registration must have 5 to 10 letters, digits or a dash")
		}
		// Foreign marks are accepted but fall outside ANAC's registry
		if !IsArgentineRegistration(input.Registration) {
			log.Warn().Str("component", "aircraft").Str("matricula", input.Registration).Msg("registration is not an LV/LQ mark")
		}
	}
	if !partial {
		if input.Make == "" {
			return Validation("marca", "make is required")
		}
		if input.Model == "" {
			return Validation("modelo", "model is required")
		}
		if input.OwnerID == "" {
			return Validation("propietarioId", "owner is required")
		}
	}
	if input.Type != "" && !models.IsValidAircraftType(input.Type) {
		return Validation("tipoAeronave", "invalid aircraft type")
	}
	if !partial && input.Type == "" {
		return Validation("tipoAeronave", "aircraft type is required")
	}
	if input.YearBuilt != nil && (*input.YearBuilt < 1900 || *input.YearBuilt > time.Now().Year()+1) {
		return Validation("anoFabricacion", "invalid year of manufacture")
	}
	if input.FlightHours != nil && *input.FlightHours < 0 {
		return Validation("horasVuelo", "flight hours cannot be negative")
	}
	if input.OwnerID != "" {
		var count int64
		if err := db.Model(&models.Client{}).Where("id = ?", input.OwnerID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return Validation("propietarioId", "owner does not exist")
		}
	}
	return nil
}

// CreateAircraft validates and stores an aircraft
func CreateAircraft(db *gorm.DB, input AircraftInput) (*models.Aircraft, error) {
	if err := validateAircraftInput(db, &input, false); err != nil {
		return nil, err
	}
	aircraft := &models.Aircraft{
		Registration:      input.Registration,
		Make:              input.Make,
		Model:             input.Model,
		SerialNumber:      nilIfBlank(input.SerialNumber),
		Type:              input.Type,
		OwnerID:           input.OwnerID,
		YearBuilt:         input.YearBuilt,
		CertificateExpiry: input.CertificateExpiry,
	}
	if input.FlightHours != nil {
		aircraft.FlightHours = *input.FlightHours
	}
	if input.CertificateValid != nil {
		aircraft.CertificateValid = *input.CertificateValid
	}
	if err := db.Create(aircraft).Error; err != nil {
		return nil, translateDBError(err, "aircraft with this registration")
	}
	return aircraft, nil
}

// GetAircraftByID loads an aircraft with its owner
func GetAircraftByID(db *gorm.DB, id string) (*models.Aircraft, error) {
	var aircraft models.Aircraft
	if err := db.Preload("Owner").First(&aircraft, "id = ?", id).Error; err != nil {
		return nil, translateDBError(err, "aircraft")
	}
	return &aircraft, nil
}

// ListAircraft returns one page of aircraft ordered by registration
func ListAircraft(db *gorm.DB, filters AircraftFilters, page, limit int) ([]models.Aircraft, int64, error) {
	page, limit = normalizePage(page, limit)

	query := db.Model(&models.Aircraft{})
	if filters.Type != "" {
		query = query.Where("tipo_aeronave = ?", filters.Type)
	}
	if filters.OwnerID != "" {
		query = query.Where("propietario_id = ?", filters.OwnerID)
	}
	if s := strings.TrimSpace(filters.Search); s != "" {
		pattern := "%" + s + "%"
		query = query.Where("matricula LIKE ? OR marca LIKE ? OR modelo LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count aircraft: %w", err)
	}
	var aircraft []models.Aircraft
	err := query.Preload("Owner").Order("matricula ASC").Offset((page - 1) * limit).Limit(limit).Find(&aircraft).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list aircraft: %w", err)
	}
	return aircraft, total, nil
}

// UpdateAircraft applies the non-empty fields of input
func UpdateAircraft(db *gorm.DB, id string, input AircraftInput) (*models.Aircraft, error) {
	var aircraft models.Aircraft
	if err := db.First(&aircraft, "id = ?", id).Error; err != nil {
		return nil, translateDBError(err, "aircraft")
	}
	if err := validateAircraftInput(db, &input, true); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Registration != "" {
		updates["matricula"] = input.Registration
	}
	if input.Make != "" {
		updates["marca"] = input.Make
	}
	if input.Model != "" {
		updates["modelo"] = input.Model
	}
	if input.SerialNumber != nil {
		updates["numero_serie"] = nilIfBlank(input.SerialNumber)
	}
	if input.Type != "" {
		updates["tipo_aeronave"] = input.Type
	}
	if input.OwnerID != "" {
		updates["propietario_id"] = input.OwnerID
	}
	if input.YearBuilt != nil {
		updates["ano_fabricacion"] = *input.YearBuilt
	}
	if input.FlightHours != nil {
		updates["horas_vuelo"] = *input.FlightHours
	}
	if input.CertificateValid != nil {
		updates["certificado_vigente"] = *input.CertificateValid
	}
	if input.CertificateExpiry != nil {
		updates["fecha_vencimiento_certificado"] = *input.CertificateExpiry
	}

	if len(updates) > 0 {
		if err := db.Model(&aircraft).Updates(updates).Error; err != nil {
			return nil, translateDBError(err, "aircraft with this registration")
		}
	}
	return GetAircraftByID(db, id)
}

// DeleteAircraft removes an aircraft permanently, freeing its registration mark
func DeleteAircraft(db *gorm.DB, id string) (*models.Aircraft, error) {
	var aircraft models.Aircraft
	if err := db.First(&aircraft, "id = ?", id).Error; err != nil {
		return nil, translateDBError(err, "aircraft")
	}
	if err := db.Unscoped().Delete(&aircraft).Error; err != nil {
		return nil, fmt.Errorf("failed to delete aircraft: %w", err)
	}
	return &aircraft, nil
}

// ExpiringCertificates lists aircraft whose airworthiness certificate expires within the window
func ExpiringCertificates(db *gorm.DB, now time.Time, within time.Duration) ([]models.Aircraft, error) {
	var aircraft []models.Aircraft
	err := db.Preload("Owner").
		Where("fecha_vencimiento_certificado IS NOT NULL AND fecha_vencimiento_certificado <= ?", now.Add(within)).
		Order("fecha_vencimiento_certificado ASC").
		Find(&aircraft).Error
	return aircraft, err
}
