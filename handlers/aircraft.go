package handlers

import (
	"jetlex_app_go/db"
	"jetlex_app_go/middleware"
	"jetlex_app_go/models"
	"jetlex_app_go/services"
	"net/http"

	"github.com/labstack/echo/v4"
)

func ListAircraftHandler(c echo.Context) error {
	page, limit := pagination(c)
	filters := services.AircraftFilters{
		Type:    c.QueryParam("tipo"),
		OwnerID: c.QueryParam("propietarioId"),
		Search:  c.QueryParam("search"),
	}

	aircraft, total, err := services.ListAircraft(db.DB, filters, page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listResponse("aeronaves", aircraft, total, page, limit))
}

func GetAircraftHandler(c echo.Context) error {
	aircraft, err := services.GetAircraftByID(db.DB, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, aircraft)
}

func CreateAircraftHandler(c echo.Context) error {
	var input services.AircraftInput
	if err := bind(c, &input); err != nil {
		return err
	}

	aircraft, err := services.CreateAircraft(db.DB, input)
	if err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), models.AuditActionCreate,
		"aircraft", aircraft.ID, aircraft.Registration, "Aeronave registrada", nil, aircraft)
	return c.JSON(http.StatusCreated, aircraft)
}

func UpdateAircraftHandler(c echo.Context) error {
	var input services.AircraftInput
	if err := bind(c, &input); err != nil {
		return err
	}

	aircraft, err := services.UpdateAircraft(db.DB, c.Param("id"), input)
	if err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), models.AuditActionUpdate,
		"aircraft", aircraft.ID, aircraft.Registration, "Aeronave actualizada", nil, aircraft)
	return c.JSON(http.StatusOK, aircraft)
}

func DeleteAircraftHandler(c echo.Context) error {
	aircraft, err := services.DeleteAircraft(db.DB, c.Param("id"))
	if err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), models.AuditActionDelete,
		"aircraft", aircraft.ID, aircraft.Registration, "Aeronave eliminada", aircraft, nil)
	return c.JSON(http.StatusOK, MessageResponse{Message: "Aeronave eliminada"})
}
