package services

import (
	"context"
	"fmt"
	"jetlex_app_go/models"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// caseCreateMu serialises case creation within the process so SQLite
// writers never contend for the counter row
var caseCreateMu sync.Mutex

// CaseInput carries the caller-editable fields of a case
type CaseInput struct {
	ProcedureType string     `json:"tipoTramite"`
	ClientID      string     `json:"clienteId"`
	AssigneeID    string     `json:"responsableId"`
	Status        string     `json:"estado"`
	StartDate     *time.Time `json:"fechaInicio"`
	DueDate       *time.Time `json:"fechaVencimiento"`
	Urgency       string     `json:"urgencia"`
	Fees          *float64   `json:"honorarios"`
	Notes         string     `json:"observaciones"`
}

// CaseFilters narrows a case listing
type CaseFilters struct {
	Status        string
	Urgency       string
	ProcedureType string
	ClientID      string
	AssigneeID    string
	Search        string
}

// CaseStats is the dashboard summary
type CaseStats struct {
	Total     int64 `json:"totalExpedientes"`
	InProcess int64 `json:"enProceso"`
	Urgent    int64 `json:"urgentes"`
	DueSoon   int64 `json:"proximos_vencer"`
}

// CreateCase validates the input, assigns the next case number and stores the case
func CreateCase(db *gorm.DB, input CaseInput, creator *models.User, now time.Time) (*models.Case, error) {
	if !models.IsValidProcedureType(input.ProcedureType) {
		return nil, Validation("tipoTramite", "invalid procedure type")
	}
	if input.ClientID == "" {
		return nil, Validation("clienteId", "client is required")
	}
	if input.Urgency == "" {
		input.Urgency = models.UrgencyMedia
	}
	if !models.IsValidUrgency(input.Urgency) {
		return nil, Validation("urgencia", "invalid urgency")
	}
	if input.Status == "" {
		input.Status = models.CaseStatusBorrador
	}
	if !models.IsValidCaseStatus(input.Status) {
		return nil, Validation("estado", "invalid status")
	}
	if input.Fees != nil && *input.Fees < 0 {
		return nil, Validation("honorarios", "fees cannot be negative")
	}
	if input.AssigneeID == "" && creator != nil {
		input.AssigneeID = creator.ID
	}
	if input.AssigneeID == "" {
		return nil, Validation("responsableId", "assignee is required")
	}

	start := now
	if input.StartDate != nil {
		start = *input.StartDate
	}
	if input.DueDate != nil && input.DueDate.Before(start) {
		return nil, Validation("fechaVencimiento", "due date must be after start date")
	}

	caseRecord := &models.Case{
		ProcedureType: input.ProcedureType,
		ClientID:      input.ClientID,
		AssigneeID:    input.AssigneeID,
		Status:        input.Status,
		StartDate:     start,
		DueDate:       input.DueDate,
		Urgency:       input.Urgency,
		Fees:          input.Fees,
		Notes:         strings.TrimSpace(input.Notes),
	}

	caseCreateMu.Lock()
	defer caseCreateMu.Unlock()

	err := db.Transaction(func(tx *gorm.DB) error {
		var client models.Client
		if err := tx.Select("id").First(&client, "id = ?", input.ClientID).Error; err != nil {
			if e := translateDBError(err, "client"); KindOf(e) == KindNotFound {
				return Validation("clienteId", "client does not exist")
			}
			return err
		}
		var assignee models.User
		if err := tx.Select("id").First(&assignee, "id = ?", input.AssigneeID).Error; err != nil {
			if e := translateDBError(err, "user"); KindOf(e) == KindNotFound {
				return Validation("responsableId", "assignee does not exist")
			}
			return err
		}

		number, err := NextCaseNumber(tx, now)
		if err != nil {
			return err
		}
		caseRecord.Number = number

		if err := tx.Create(caseRecord).Error; err != nil {
			return translateDBError(err, "case number")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	casesCreatedTotal.WithLabelValues(caseRecord.ProcedureType).Inc()
	return caseRecord, nil
}

// GetCaseByID loads a case with its client, assignee, documents and phases
func GetCaseByID(db *gorm.DB, id string) (*models.Case, error) {
	var c models.Case
	err := db.Preload("Client").
		Preload("Assignee").
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Preload("Phases", func(db *gorm.DB) *gorm.DB { return db.Order("numero_fase ASC") }).
		First(&c, "id = ?", id).Error
	if err != nil {
		return nil, translateDBError(err, "case")
	}
	return &c, nil
}

func applyCaseFilters(query *gorm.DB, filters CaseFilters) *gorm.DB {
	if filters.Status != "" {
		query = query.Where("estado = ?", filters.Status)
	}
	if filters.Urgency != "" {
		query = query.Where("urgencia = ?", filters.Urgency)
	}
	if filters.ProcedureType != "" {
		query = query.Where("tipo_tramite = ?", filters.ProcedureType)
	}
	if filters.ClientID != "" {
		query = query.Where("cliente_id = ?", filters.ClientID)
	}
	if filters.AssigneeID != "" {
		query = query.Where("responsable_id = ?", filters.AssigneeID)
	}
	if s := strings.TrimSpace(filters.Search); s != "" {
		pattern := "%" + s + "%"
		query = query.Where("(numero LIKE ? OR observaciones LIKE ?)", pattern, pattern)
	}
	return query
}

// ListCases returns one page of cases and the total count for the filters
func ListCases(db *gorm.DB, filters CaseFilters, page, limit int) ([]models.Case, int64, error) {
	page, limit = normalizePage(page, limit)

	query := applyCaseFilters(db.Model(&models.Case{}), filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count cases: %w", err)
	}

	var cases []models.Case
	err := query.Preload("Client").
		Preload("Assignee").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&cases).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list cases: %w", err)
	}
	return cases, total, nil
}

// UpdateCase applies editable fields. The case number never changes.
func UpdateCase(db *gorm.DB, id string, input CaseInput) (*models.Case, error) {
	var c models.Case
	if err := db.First(&c, "id = ?", id).Error; err != nil {
		return nil, translateDBError(err, "case")
	}

	updates := map[string]interface{}{}
	if input.ProcedureType != "" && input.ProcedureType != c.ProcedureType {
		if !models.IsValidProcedureType(input.ProcedureType) {
			return nil, Validation("tipoTramite", "invalid procedure type")
		}
		var phases int64
		db.Model(&models.Phase{}).Where("expediente_id = ?", c.ID).Count(&phases)
		if phases > 0 {
			return nil, Unsupported("procedure type cannot change once phases exist")
		}
		updates["tipo_tramite"] = input.ProcedureType
	}
	if input.Status != "" {
		if !models.IsValidCaseStatus(input.Status) {
			return nil, Validation("estado", "invalid status")
		}
		updates["estado"] = input.Status
	}
	if input.Urgency != "" {
		if !models.IsValidUrgency(input.Urgency) {
			return nil, Validation("urgencia", "invalid urgency")
		}
		updates["urgencia"] = input.Urgency
	}
	if input.AssigneeID != "" {
		var count int64
		db.Model(&models.User{}).Where("id = ?", input.AssigneeID).Count(&count)
		if count == 0 {
			return nil, Validation("responsableId", "assignee does not exist")
		}
		updates["responsable_id"] = input.AssigneeID
	}
	if input.ClientID != "" {
		var count int64
		db.Model(&models.Client{}).Where("id = ?", input.ClientID).Count(&count)
		if count == 0 {
			return nil, Validation("clienteId", "client does not exist")
		}
		updates["cliente_id"] = input.ClientID
	}
	if input.StartDate != nil {
		updates["fecha_inicio"] = *input.StartDate
	}
	if input.DueDate != nil {
		updates["fecha_vencimiento"] = *input.DueDate
	}
	if input.Fees != nil {
		if *input.Fees < 0 {
			return nil, Validation("honorarios", "fees cannot be negative")
		}
		updates["honorarios"] = *input.Fees
	}
	if input.Notes != "" {
		updates["observaciones"] = strings.TrimSpace(input.Notes)
	}

	if len(updates) > 0 {
		if err := db.Model(&c).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update case: %w", err)
		}
	}
	return GetCaseByID(db, id)
}

// DeleteCase removes a case together with its phases and documents.
// Blobs are deleted after the rows are gone; a blob that cannot be removed is only logged.
func DeleteCase(ctx context.Context, db *gorm.DB, storage StorageProvider, id string) (*models.Case, error) {
	var c models.Case
	if err := db.Preload("Documents").First(&c, "id = ?", id).Error; err != nil {
		return nil, translateDBError(err, "case")
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expediente_id = ?", id).Delete(&models.Phase{}).Error; err != nil {
			return err
		}
		if err := tx.Where("expediente_id = ?", id).Delete(&models.Document{}).Error; err != nil {
			return err
		}
		return tx.Delete(&c).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete case: %w", err)
	}

	for _, doc := range c.Documents {
		if err := storage.Delete(ctx, doc.StorageKey); err != nil {
			log.Warn().Err(err).Str("component", "cases").Str("key", doc.StorageKey).Msg("failed to delete blob")
		}
	}
	return &c, nil
}

// GetCaseStats computes the dashboard counters
func GetCaseStats(db *gorm.DB, now time.Time) (*CaseStats, error) {
	var stats CaseStats
	if err := db.Model(&models.Case{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Case{}).Where("estado = ?", models.CaseStatusEnProceso).Count(&stats.InProcess).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Case{}).
		Where("urgencia IN ?", []string{models.UrgencyAlta, models.UrgencyCritica}).
		Count(&stats.Urgent).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Case{}).
		Where("fecha_vencimiento IS NOT NULL AND fecha_vencimiento <= ?", now.AddDate(0, 0, 7)).
		Where("estado NOT IN ?", []string{models.CaseStatusCompletado, models.CaseStatusCancelado}).
		Count(&stats.DueSoon).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

// RecomputeCaseProgress sets the case progress to the mean progress of its phases
func RecomputeCaseProgress(db *gorm.DB, caseID string) (int, error) {
	var phases []models.Phase
	if err := db.Select("progreso").Where("expediente_id = ?", caseID).Find(&phases).Error; err != nil {
		return 0, err
	}
	if len(phases) == 0 {
		return 0, nil
	}
	sum := 0
	for _, p := range phases {
		sum += p.Progress
	}
	progress := clampPercent(int(math.Round(float64(sum) / float64(len(phases)))))
	err := db.Model(&models.Case{}).Where("id = ?", caseID).UpdateColumn("progreso", progress).Error
	return progress, err
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// normalizePage applies the default page size and bounds
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
