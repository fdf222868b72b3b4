package services

import (
	"fmt"
	"jetlex_app_go/models"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ClientInput carries the editable fields of a client
type ClientInput struct {
	Name          string     `json:"nombre"`
	Email         *string    `json:"email"`
	Phone         *string    `json:"telefono"`
	Type          string     `json:"tipo"`
	CUIT          *string    `json:"cuit"`
	Address       *string    `json:"domicilio"`
	Active        *bool      `json:"activo"`
	Notes         *string    `json:"notas"`
	LastContactAt *time.Time `json:"fechaUltimoContacto"`
}

// ClientFilters narrows a client listing
type ClientFilters struct {
	Type   string
	Active *bool
	Search string
}

// ClientDetail is a client with its latest cases
type ClientDetail struct {
	models.Client
	RecentCases []models.Case `json:"expedientes"`
}

func normalizeClientInput(input *ClientInput, partial bool) error {
	input.Name = strings.TrimSpace(input.Name)
	if !partial || input.Name != "" {
		if n := len([]rune(input.Name)); n < 2 || n > 200 {
			return Validation("nombre", "name must be between 2 and 200 characters")
		}
	}
	if input.Type != "" && !models.IsValidClientType(input.Type) {
		return Validation("tipo", "invalid client type")
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email != "" && !ValidateEmail(email) {
			return Validation("email", "invalid email address")
		}
		input.Email = &email
	}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if phone != "" && !ValidatePhone(phone) {
			return Validation("telefono", "phone must have between 10 and 20 characters")
		}
		input.Phone = &phone
	}
	if input.CUIT != nil {
		cuit := NormalizeCUIT(*input.CUIT)
		if cuit != "" && !ValidateCUIT(cuit) {
			return Validation("cuit", "invalid CUIT")
		}
		input.CUIT = &cuit
	}
	return nil
}

// nilIfBlank turns empty optional strings into NULLs so unique indexes ignore them
func nilIfBlank(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// CreateClient validates and stores a new client
func CreateClient(db *gorm.DB, input ClientInput) (*models.Client, error) {
	if err := normalizeClientInput(&input, false); err != nil {
		return nil, err
	}
	client := &models.Client{
		Name:          input.Name,
		Email:         nilIfBlank(input.Email),
		Phone:         nilIfBlank(input.Phone),
		Type:          input.Type,
		CUIT:          nilIfBlank(input.CUIT),
		Active:        true,
		LastContactAt: input.LastContactAt,
	}
	if client.Type == "" {
		client.Type = models.ClientTypePersonaFisica
	}
	if input.Address != nil {
		client.Address = strings.TrimSpace(*input.Address)
	}
	if input.Notes != nil {
		client.Notes = strings.TrimSpace(*input.Notes)
	}
	if input.Active != nil {
		client.Active = *input.Active
	}

	if err := db.Create(client).Error; err != nil {
		return nil, translateDBError(err, "client with this CUIT")
	}
	return client, nil
}

// GetClientByID loads a client with its ten latest cases
func GetClientByID(db *gorm.DB, id string) (*ClientDetail, error) {
	var client models.Client
	if err := db.Preload("Aircraft").First(&client, "id = ?", id).Error; err != nil {
		return nil, translateDBError(err, "client")
	}
	var cases []models.Case
	if err := db.Where("cliente_id = ?", id).Order("created_at DESC").Limit(10).Find(&cases).Error; err != nil {
		return nil, err
	}
	return &ClientDetail{Client: client, RecentCases: cases}, nil
}

// ListClients returns one page of clients ordered by name
func ListClients(db *gorm.DB, filters ClientFilters, page, limit int) ([]models.Client, int64, error) {
	page, limit = normalizePage(page, limit)

	query := db.Model(&models.Client{})
	if filters.Type != "" {
		query = query.Where("tipo = ?", filters.Type)
	}
	if filters.Active != nil {
		query = query.Where("activo = ?", *filters.Active)
	}
	if s := strings.TrimSpace(filters.Search); s != "" {
		pattern := "%" + s + "%"
		query = query.Where("nombre LIKE ? OR email LIKE ? OR cuit LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count clients: %w", err)
	}
	var clients []models.Client
	err := query.Order("nombre ASC").Offset((page - 1) * limit).Limit(limit).Find(&clients).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, total, nil
}

// UpdateClient applies the non-empty fields of input
func UpdateClient(db *gorm.DB, id string, input ClientInput) (*models.Client, error) {
	var client models.Client
	if err := db.First(&client, "id = ?", id).Error; err != nil {
		return nil, translateDBError(err, "client")
	}
	if err := normalizeClientInput(&input, true); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != "" {
		updates["nombre"] = input.Name
	}
	if input.Type != "" {
		updates["tipo"] = input.Type
	}
	if input.Email != nil {
		updates["email"] = nilIfBlank(input.Email)
	}
	if input.Phone != nil {
		updates["telefono"] = nilIfBlank(input.Phone)
	}
	if input.CUIT != nil {
		updates["cuit"] = nilIfBlank(input.CUIT)
	}
	if input.Address != nil {
		updates["domicilio"] = strings.TrimSpace(*input.Address)
	}
	if input.Notes != nil {
		updates["notas"] = strings.TrimSpace(*input.Notes)
	}
	if input.Active != nil {
		updates["activo"] = *input.Active
	}
	if input.LastContactAt != nil {
		updates["fecha_ultimo_contacto"] = *input.LastContactAt
	}

	if len(updates) > 0 {
		if err := db.Model(&client).Updates(updates).Error; err != nil {
			return nil, translateDBError(err, "client with this CUIT")
		}
	}
	if err := db.First(&client, "id = ?", id).Error; err != nil {
		return nil, translateDBError(err, "client")
	}
	return &client, nil
}

// DeactivateClient marks a client inactive without removing its history
func DeactivateClient(db *gorm.DB, id string) (*models.Client, error) {
	active := false
	return UpdateClient(db, id, ClientInput{Active: &active})
}

// DeleteClient permanently removes a client that never had cases and owns no aircraft.
// The row is hard-deleted so its CUIT can be registered again.
func DeleteClient(db *gorm.DB, id string) (*models.Client, error) {
	var client models.Client
	if err := db.First(&client, "id = ?", id).Error; err != nil {
		return nil, translateDBError(err, "client")
	}
	var cases int64
	if err := db.Unscoped().Model(&models.Case{}).Where("cliente_id = ?", id).Count(&cases).Error; err != nil {
		return nil, err
	}
	if cases > 0 {
		return nil, Conflict("client has cases; deactivate it instead")
	}
	var aircraft int64
	if err := db.Model(&models.Aircraft{}).Where("propietario_id = ?", id).Count(&aircraft).Error; err != nil {
		return nil, err
	}
	if aircraft > 0 {
		return nil, Conflict("client owns aircraft; reassign or delete them first")
	}
	if err := db.Unscoped().Delete(&client).Error; err != nil {
		return nil, fmt.Errorf("failed to delete client: %w", err)
	}
	return &client, nil
}
