package handlers

import (
	"jetlex_app_go/db"
	"jetlex_app_go/middleware"
	"jetlex_app_go/models"
	"jetlex_app_go/services"
	"jetlex_app_go/services/jobs"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// ListMonitoringAlertsHandler lists alerts, most severe first
func ListMonitoringAlertsHandler(c echo.Context) error {
	page, limit := pagination(c)
	from, err := queryTime(c, "desde")
	if err != nil {
		return err
	}
	to, err := queryTime(c, "hasta")
	if err != nil {
		return err
	}

	filters := services.MonitoringFilters{
		Priority: c.QueryParam("prioridad"),
		Status:   c.QueryParam("estado"),
		Source:   c.QueryParam("fuente"),
		From:     from,
		To:       to,
	}
	alerts, total, err := services.ListMonitoringAlerts(db.DB, filters, page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listResponse("alertas", alerts, total, page, limit))
}

// CreateMonitoringAlertHandler records an alert by hand. A repeated (titulo, fuente) is a conflict.
func CreateMonitoringAlertHandler(c echo.Context) error {
	var input services.MonitoringAlertInput
	if err := bind(c, &input); err != nil {
		return err
	}

	alert, err := services.CreateMonitoringAlert(db.DB, input, time.Now())
	if err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), models.AuditActionCreate,
		"monitoring_alert", alert.ID, alert.Title, "Alerta registrada", nil, alert)
	return c.JSON(http.StatusCreated, alert)
}

func UpdateMonitoringAlertHandler(c echo.Context) error {
	var input services.MonitoringAlertInput
	if err := bind(c, &input); err != nil {
		return err
	}

	alert, err := services.UpdateMonitoringAlert(db.DB, c.Param("id"), input, time.Now())
	if err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), models.AuditActionUpdate,
		"monitoring_alert", alert.ID, alert.Title, "Alerta actualizada", nil, alert)
	return c.JSON(http.StatusOK, alert)
}

func DeleteMonitoringAlertHandler(c echo.Context) error {
	id := c.Param("id")
	if err := services.DeleteMonitoringAlert(db.DB, id); err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), models.AuditActionDelete,
		"monitoring_alert", id, "", "Alerta eliminada", nil, nil)
	return c.JSON(http.StatusOK, MessageResponse{Message: "Alerta eliminada"})
}

// MonitoringDashboardHandler returns alert counters by priority and source
func MonitoringDashboardHandler(c echo.Context) error {
	dashboard, err := services.GetMonitoringDashboard(db.DB, time.Now())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dashboard)
}

// ScrapeHandler runs the regulatory watch immediately instead of waiting for the schedule
func ScrapeHandler(c echo.Context) error {
	result, err := jobs.RunRegulatoryWatch(c.Request().Context(), db.DB, getConfig(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":   "Scraping completado",
		"resultado": result,
	})
}
