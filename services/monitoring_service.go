package services

import (
	"jetlex_app_go/models"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// MonitoringAlertInput carries the editable fields of a monitoring alert
type MonitoringAlertInput struct {
	Source          string     `json:"fuente"`
	Title           string     `json:"titulo"`
	Content         string     `json:"contenido"`
	URL             *string    `json:"url"`
	Priority        string     `json:"prioridad"`
	EstimatedImpact string     `json:"impactoEstimado"`
	RequiredAction  string     `json:"accionRequerida"`
	AssigneeID      *string    `json:"responsableAsignado"`
	Status          string     `json:"estado"`
	Tags            []string   `json:"etiquetas"`
	DetectedAt      *time.Time `json:"fechaDeteccion"`
}

// MonitoringFilters narrows a monitoring listing
type MonitoringFilters struct {
	Priority string
	Status   string
	Source   string
	From     *time.Time
	To       *time.Time
}

// MonitoringDashboard summarises the regulatory watch
type MonitoringDashboard struct {
	Total     int64            `json:"total"`
	Red       int64            `json:"rojas"`
	Yellow    int64            `json:"amarillas"`
	NewLast7d int64            `json:"nuevasUltimaSemana"`
	BySource  map[string]int64 `json:"porFuente"`
}

// ExistsMonitoringAlert reports whether an alert with this title and source is already stored
func ExistsMonitoringAlert(db *gorm.DB, title, source string) (bool, error) {
	var count int64
	err := db.Model(&models.MonitoringAlert{}).
		Where("titulo = ? AND fuente = ?", strings.TrimSpace(title), source).
		Count(&count).Error
	return count > 0, err
}

// CreateMonitoringAlert stores a new alert; a (title, source) pair may only exist once
func CreateMonitoringAlert(db *gorm.DB, input MonitoringAlertInput, now time.Time) (*models.MonitoringAlert, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, Validation("titulo", "title is required")
	}
	if len([]rune(input.Title)) > 500 {
		return nil, Validation("titulo", "title must be at most 500 characters")
	}
	if !models.IsValidMonitoringSource(input.Source) {
		return nil, Validation("fuente", "invalid source")
	}
	if input.Priority == "" {
		input.Priority = models.PriorityVerde
	}
	if !models.IsValidAlertPriority(input.Priority) {
		return nil, Validation("prioridad", "invalid priority")
	}
	if input.Status == "" {
		input.Status = models.AlertStatusNueva
	}
	if !models.IsValidAlertStatus(input.Status) {
		return nil, Validation("estado", "invalid status")
	}

	exists, err := ExistsMonitoringAlert(db, input.Title, input.Source)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, Conflict("monitoring alert with this title and source already exists")
	}

	alert := &models.MonitoringAlert{
		Source:          input.Source,
		Title:           input.Title,
		Content:         input.Content,
		URL:             nilIfBlank(input.URL),
		Priority:        input.Priority,
		EstimatedImpact: input.EstimatedImpact,
		RequiredAction:  input.RequiredAction,
		AssigneeID:      nilIfBlank(input.AssigneeID),
		DetectedAt:      now,
		Status:          input.Status,
		Tags:            models.StringList(input.Tags),
	}
	if input.DetectedAt != nil {
		alert.DetectedAt = *input.DetectedAt
	}

	// The unique index catches a concurrent insert of the same pair
	if err := db.Create(alert).Error; err != nil {
		return nil, translateDBError(err, "monitoring alert with this title and source")
	}
	MonitoringAlertsCreatedTotal.WithLabelValues(alert.Source, alert.Priority).Inc()

	if alert.Priority == models.PriorityRojo {
		if err := NewNotificationService(db).NotifyMonitoringAlert(alert); err != nil {
			log.Error().Err(err).Str("alert_id", alert.ID).Msg("failed to notify monitoring alert")
		}
	}
	return alert, nil
}

// GetMonitoringAlertByID loads one alert with its assignee
func GetMonitoringAlertByID(db *gorm.DB, id string) (*models.MonitoringAlert, error) {
	var alert models.MonitoringAlert
	if err := db.Preload("Assignee").First(&alert, "id = ?", id).Error; err != nil {
		return nil, translateDBError(err, "monitoring alert")
	}
	return &alert, nil
}

// ListMonitoringAlerts returns one page of alerts, most severe and most recent first
func ListMonitoringAlerts(db *gorm.DB, filters MonitoringFilters, page, limit int) ([]models.MonitoringAlert, int64, error) {
	page, limit = normalizePage(page, limit)

	query := db.Model(&models.MonitoringAlert{})
	if filters.Priority != "" {
		query = query.Where("prioridad = ?", filters.Priority)
	}
	if filters.Status != "" {
		query = query.Where("estado = ?", filters.Status)
	}
	if filters.Source != "" {
		query = query.Where("fuente = ?", filters.Source)
	}
	if filters.From != nil {
		query = query.Where("fecha_deteccion >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("fecha_deteccion <= ?", *filters.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var alerts []models.MonitoringAlert
	err := query.Preload("Assignee").
		Order("CASE prioridad WHEN 'rojo' THEN 0 WHEN 'amarillo' THEN 1 ELSE 2 END").
		Order("fecha_deteccion DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&alerts).Error
	if err != nil {
		return nil, 0, err
	}
	return alerts, total, nil
}

// UpdateMonitoringAlert applies a review to an alert and stamps the review date
func UpdateMonitoringAlert(db *gorm.DB, id string, input MonitoringAlertInput, now time.Time) (*models.MonitoringAlert, error) {
	var alert models.MonitoringAlert
	if err := db.First(&alert, "id = ?", id).Error; err != nil {
		return nil, translateDBError(err, "monitoring alert")
	}

	if input.Priority != "" {
		if !models.IsValidAlertPriority(input.Priority) {
			return nil, Validation("prioridad", "invalid priority")
		}
		alert.Priority = input.Priority
	}
	if input.Status != "" {
		if !models.IsValidAlertStatus(input.Status) {
			return nil, Validation("estado", "invalid status")
		}
		alert.Status = input.Status
	}
	if input.EstimatedImpact != "" {
		alert.EstimatedImpact = input.EstimatedImpact
	}
	if input.RequiredAction != "" {
		alert.RequiredAction = input.RequiredAction
	}
	if input.AssigneeID != nil {
		alert.AssigneeID = nilIfBlank(input.AssigneeID)
	}
	if input.Tags != nil {
		alert.Tags = models.StringList(input.Tags)
	}
	alert.ReviewedAt = &now

	if err := db.Save(&alert).Error; err != nil {
		return nil, translateDBError(err, "monitoring alert")
	}
	return &alert, nil
}

// DeleteMonitoringAlert removes an alert
func DeleteMonitoringAlert(db *gorm.DB, id string) error {
	res := db.Delete(&models.MonitoringAlert{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return NotFound("monitoring alert")
	}
	return nil
}

// GetMonitoringDashboard counts alerts by severity, recency and source
func GetMonitoringDashboard(db *gorm.DB, now time.Time) (*MonitoringDashboard, error) {
	dash := &MonitoringDashboard{BySource: map[string]int64{}}
	base := func() *gorm.DB { return db.Model(&models.MonitoringAlert{}) }

	if err := base().Count(&dash.Total).Error; err != nil {
		return nil, err
	}
	if err := base().Where("prioridad = ?", models.PriorityRojo).Count(&dash.Red).Error; err != nil {
		return nil, err
	}
	if err := base().Where("prioridad = ?", models.PriorityAmarillo).Count(&dash.Yellow).Error; err != nil {
		return nil, err
	}
	if err := base().Where("estado = ? AND fecha_deteccion >= ?", models.AlertStatusNueva, now.AddDate(0, 0, -7)).
		Count(&dash.NewLast7d).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		Source string
		Total  int64
	}
	if err := base().Select("fuente AS source, COUNT(*) AS total").Group("fuente").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		dash.BySource[r.Source] = r.Total
	}
	return dash, nil
}

// RecentAlertsForDigest returns alerts detected since a date at or above a priority, most severe first
func RecentAlertsForDigest(db *gorm.DB, since time.Time, limit int) ([]models.MonitoringAlert, error) {
	var alerts []models.MonitoringAlert
	err := db.Where("fecha_deteccion >= ?", since).
		Where("prioridad IN ?", []string{models.PriorityAmarillo, models.PriorityRojo}).
		Order("fecha_deteccion DESC").
		Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return models.PriorityRank(alerts[i].Priority) < models.PriorityRank(alerts[j].Priority)
	})
	if limit > 0 && len(alerts) > limit {
		alerts = alerts[:limit]
	}
	return alerts, nil
}
