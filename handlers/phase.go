package handlers

import (
	"jetlex_app_go/db"
	"jetlex_app_go/middleware"
	"jetlex_app_go/models"
	"jetlex_app_go/services"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// StartPhasesHandler creates the phase set of a case from its procedure template
func StartPhasesHandler(c echo.Context) error {
	caseID := c.Param("expedienteId")
	phases, err := services.StartPhases(db.DB, caseID, time.Now())
	if err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), models.AuditActionCreate,
		"case", caseID, "", "Fases iniciadas", nil, phases)
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Fases iniciadas",
		"fases":   phases,
	})
}

// ListPhasesHandler returns the phases of a case
func ListPhasesHandler(c echo.Context) error {
	phases, err := services.ListPhases(db.DB, c.Param("expedienteId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"fases": phases})
}

// UpdatePhaseHandler applies a status, notes or received-documents change
func UpdatePhaseHandler(c echo.Context) error {
	var patch services.PhasePatch
	if err := bind(c, &patch); err != nil {
		return err
	}

	phase, err := services.UpdatePhase(db.DB, c.Param("id"), patch, time.Now())
	if err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), models.AuditActionUpdate,
		"phase", phase.ID, phase.Name, "Fase actualizada", nil, phase)
	return c.JSON(http.StatusOK, phase)
}

// PhaseAlertsHandler lists every phase with an active alert
func PhaseAlertsHandler(c echo.Context) error {
	phases, err := services.ListAlertedPhases(db.DB)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"fases": phases,
		"total": len(phases),
	})
}
