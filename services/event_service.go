package services

import (
	"jetlex_app_go/models"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecurrenceOccurrences is how many extra events a recurring series creates
const RecurrenceOccurrences = 12

// ReminderWindow is how far ahead upcoming reminders look
const ReminderWindow = 7 * 24 * time.Hour

// EventInput carries the editable fields of a calendar event
type EventInput struct {
	Title        string    `json:"titulo"`
	Description  string    `json:"descripcion"`
	Type         string    `json:"tipo"`
	StartsAt     time.Time `json:"fechaInicio"`
	EndsAt       time.Time `json:"fechaFin"`
	Location     string    `json:"ubicacion"`
	ClientID     *string   `json:"clienteId"`
	CaseID       *string   `json:"expedienteId"`
	AssigneeID   string    `json:"responsableId"`
	Participants []string  `json:"participantes"`
	Reminders    []string  `json:"recordatorios"`
	Status       string    `json:"estado"`
	Notes        string    `json:"notas"`
	Recurring    bool      `json:"esRecurrente"`
	Frequency    *string   `json:"frecuenciaRecurrencia"`
}

// EventFilters narrows a calendar listing
type EventFilters struct {
	From       *time.Time
	To         *time.Time
	Type       string
	AssigneeID string
	CaseID     string
}

func validateEventInput(input *EventInput) error {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return Validation("titulo", "title is required")
	}
	if input.StartsAt.IsZero() || input.EndsAt.IsZero() {
		return Validation("fechaInicio", "start and end are required")
	}
	if input.EndsAt.Before(input.StartsAt) {
		return Validation("fechaFin", "end must not be before start")
	}
	if input.Type == "" {
		input.Type = models.EventTypeOtro
	}
	if !models.IsValidEventType(input.Type) {
		return Validation("tipo", "invalid event type")
	}
	if input.Status == "" {
		input.Status = models.EventStatusProgramado
	}
	if !models.IsValidEventStatus(input.Status) {
		return Validation("estado", "invalid event status")
	}
	if input.Recurring {
		if input.Frequency == nil || !models.IsValidRecurrence(*input.Frequency) {
			return Validation("frecuenciaRecurrencia", "recurring events need a valid frequency")
		}
	}
	input.ClientID = nilIfBlank(input.ClientID)
	input.CaseID = nilIfBlank(input.CaseID)
	return nil
}

// shiftOccurrence moves t forward by n steps of the given frequency
func shiftOccurrence(t time.Time, frequency string, n int) time.Time {
	switch frequency {
	case models.RecurrenceDiaria:
		return t.AddDate(0, 0, n)
	case models.RecurrenceSemanal:
		return t.AddDate(0, 0, 7*n)
	case models.RecurrenceMensual:
		return t.AddDate(0, n, 0)
	case models.RecurrenceAnual:
		return t.AddDate(n, 0, 0)
	}
	return t
}

// CreateEvent stores an event, expanding recurring events into a series.
// The origin is returned; every occurrence shares its serieId.
func CreateEvent(db *gorm.DB, input EventInput, creator *models.User) (*models.Event, error) {
	if input.AssigneeID == "" && creator != nil {
		input.AssigneeID = creator.ID
	}
	if input.AssigneeID == "" {
		return nil, Validation("responsableId", "assignee is required")
	}
	if err := validateEventInput(&input); err != nil {
		return nil, err
	}

	origin := &models.Event{
		Title:        input.Title,
		Description:  input.Description,
		Type:         input.Type,
		StartsAt:     input.StartsAt,
		EndsAt:       input.EndsAt,
		Location:     input.Location,
		ClientID:     input.ClientID,
		CaseID:       input.CaseID,
		AssigneeID:   input.AssigneeID,
		Participants: models.StringList(input.Participants),
		Reminders:    models.StringList(input.Reminders),
		Status:       input.Status,
		Notes:        input.Notes,
		Recurring:    input.Recurring,
		Frequency:    input.Frequency,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if origin.CaseID != nil {
			var count int64
			if err := tx.Model(&models.Case{}).Where("id = ?", *origin.CaseID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return NotFound("case")
			}
		}
		if origin.ClientID != nil {
			var count int64
			if err := tx.Model(&models.Client{}).Where("id = ?", *origin.ClientID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return NotFound("client")
			}
		}

		if !origin.Recurring {
			return tx.Create(origin).Error
		}

		seriesID := uuid.New().String()
		origin.SeriesID = &seriesID
		series := make([]models.Event, 0, RecurrenceOccurrences+1)
		series = append(series, *origin)
		for i := 1; i <= RecurrenceOccurrences; i++ {
			occ := *origin
			occ.ID = ""
			occ.StartsAt = shiftOccurrence(origin.StartsAt, *origin.Frequency, i)
			occ.EndsAt = shiftOccurrence(origin.EndsAt, *origin.Frequency, i)
			series = append(series, occ)
		}
		if err := tx.Create(&series).Error; err != nil {
			return err
		}
		*origin = series[0]
		return nil
	})
	if err != nil {
		return nil, translateDBError(err, "event")
	}
	return origin, nil
}

// GetEventByID loads an event with its client, case and assignee
func GetEventByID(db *gorm.DB, id string) (*models.Event, error) {
	var event models.Event
	err := db.Preload("Client").Preload("Case").Preload("Assignee").First(&event, "id = ?", id).Error
	if err != nil {
		return nil, translateDBError(err, "event")
	}
	return &event, nil
}

// ListEvents returns events in a date range ordered by start
func ListEvents(db *gorm.DB, filters EventFilters) ([]models.Event, error) {
	query := db.Model(&models.Event{}).Preload("Client").Preload("Case")
	if filters.From != nil {
		query = query.Where("fecha_inicio >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("fecha_inicio <= ?", *filters.To)
	}
	if filters.Type != "" {
		query = query.Where("tipo = ?", filters.Type)
	}
	if filters.AssigneeID != "" {
		query = query.Where("responsable_id = ?", filters.AssigneeID)
	}
	if filters.CaseID != "" {
		query = query.Where("expediente_id = ?", filters.CaseID)
	}

	var events []models.Event
	if err := query.Order("fecha_inicio ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// UpdateEvent changes a single event; the rest of its series is left untouched
func UpdateEvent(db *gorm.DB, id string, input EventInput) (*models.Event, error) {
	var event models.Event
	if err := db.First(&event, "id = ?", id).Error; err != nil {
		return nil, translateDBError(err, "event")
	}

	if input.AssigneeID == "" {
		input.AssigneeID = event.AssigneeID
	}
	// Recurrence is fixed at creation
	input.Recurring = false
	if err := validateEventInput(&input); err != nil {
		return nil, err
	}

	event.Title = input.Title
	event.Description = input.Description
	event.Type = input.Type
	event.StartsAt = input.StartsAt
	event.EndsAt = input.EndsAt
	event.Location = input.Location
	event.ClientID = input.ClientID
	event.CaseID = input.CaseID
	event.AssigneeID = input.AssigneeID
	event.Participants = models.StringList(input.Participants)
	event.Reminders = models.StringList(input.Reminders)
	event.Status = input.Status
	event.Notes = input.Notes

	if err := db.Save(&event).Error; err != nil {
		return nil, translateDBError(err, "event")
	}
	return &event, nil
}

// DeleteEvent removes one event, or its whole series when wholeSeries is set
func DeleteEvent(db *gorm.DB, id string, wholeSeries bool) (int64, error) {
	var event models.Event
	if err := db.First(&event, "id = ?", id).Error; err != nil {
		return 0, translateDBError(err, "event")
	}
	if wholeSeries && event.SeriesID != nil {
		res := db.Where("serie_id = ?", *event.SeriesID).Delete(&models.Event{})
		return res.RowsAffected, res.Error
	}
	res := db.Delete(&event)
	return res.RowsAffected, res.Error
}

// UpcomingReminders lists scheduled events starting within the reminder window
func UpcomingReminders(db *gorm.DB, now time.Time, assigneeID string) ([]models.Event, error) {
	query := db.Preload("Case").Preload("Client").
		Where("estado = ?", models.EventStatusProgramado).
		Where("fecha_inicio >= ? AND fecha_inicio <= ?", now, now.Add(ReminderWindow))
	if assigneeID != "" {
		query = query.Where("responsable_id = ?", assigneeID)
	}

	var events []models.Event
	if err := query.Order("fecha_inicio ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
