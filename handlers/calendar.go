package handlers

import (
	"fmt"
	"jetlex_app_go/db"
	"jetlex_app_go/middleware"
	"jetlex_app_go/models"
	"jetlex_app_go/services"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// ListEventsHandler lists events in a fechaInicio range, filtered by tipo, responsableId or expedienteId
func ListEventsHandler(c echo.Context) error {
	from, err := queryTime(c, "desde")
	if err != nil {
		return err
	}
	to, err := queryTime(c, "hasta")
	if err != nil {
		return err
	}

	events, err := services.ListEvents(db.DB, services.EventFilters{
		From:       from,
		To:         to,
		Type:       c.QueryParam("tipo"),
		AssigneeID: c.QueryParam("responsableId"),
		CaseID:     c.QueryParam("expedienteId"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"eventos": events})
}

// CreateEventHandler creates an event, materialising the occurrences of a recurring one
func CreateEventHandler(c echo.Context) error {
	var input services.EventInput
	if err := bind(c, &input); err != nil {
		return err
	}

	event, err := services.CreateEvent(db.DB, input, middleware.GetCurrentUser(c))
	if err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), models.AuditActionCreate,
		"event", event.ID, event.Title, "Evento creado", nil, event)
	return c.JSON(http.StatusCreated, event)
}

func UpdateEventHandler(c echo.Context) error {
	var input services.EventInput
	if err := bind(c, &input); err != nil {
		return err
	}

	event, err := services.UpdateEvent(db.DB, c.Param("id"), input)
	if err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), models.AuditActionUpdate,
		"event", event.ID, event.Title, "Evento actualizado", nil, event)
	return c.JSON(http.StatusOK, event)
}

// DeleteEventHandler deletes an event; ?serie=true removes every occurrence of its series
func DeleteEventHandler(c echo.Context) error {
	wholeSeries := false
	if b := queryBool(c, "serie"); b != nil {
		wholeSeries = *b
	}

	deleted, err := services.DeleteEvent(db.DB, c.Param("id"), wholeSeries)
	if err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), models.AuditActionDelete,
		"event", c.Param("id"), "", fmt.Sprintf("%d evento(s) eliminado(s)", deleted), nil, nil)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":    "Evento eliminado",
		"eliminados": deleted,
	})
}

// UpcomingRemindersHandler lists the caller's scheduled events of the coming week
func UpcomingRemindersHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	assigneeID := user.ID
	if user.Role == models.RoleAdmin && c.QueryParam("todos") == "true" {
		assigneeID = ""
	}

	events, err := services.UpcomingReminders(db.DB, time.Now(), assigneeID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"eventos": events})
}

// EventICSHandler downloads a single event as an iCalendar file
func EventICSHandler(c echo.Context) error {
	event, err := services.GetEventByID(db.DB, c.Param("id"))
	if err != nil {
		return err
	}

	cfg := getConfig(c)
	ics, err := services.GenerateEventICS(event, cfg.EmailFromName, cfg.EmailFrom, time.Now())
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="evento_%s.ics"`, event.ID))
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", ics)
}
