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

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func caseFilters(c echo.Context) services.CaseFilters {
	return services.CaseFilters{
		Status:        c.QueryParam("estado"),
		Urgency:       c.QueryParam("urgencia"),
		ProcedureType: c.QueryParam("tipoTramite"),
		ClientID:      c.QueryParam("clienteId"),
		AssigneeID:    c.QueryParam("responsableId"),
		Search:        c.QueryParam("search"),
	}
}

// ListCasesHandler lists cases with estado, urgencia, tipoTramite, clienteId and search filters
func ListCasesHandler(c echo.Context) error {
	page, limit := pagination(c)
	cases, total, err := services.ListCases(db.DB, caseFilters(c), page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listResponse("expedientes", cases, total, page, limit))
}

// GetCaseHandler returns a case with its client, assignee, documents and phases
func GetCaseHandler(c echo.Context) error {
	kase, err := services.GetCaseByID(db.DB, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, kase)
}

// CreateCaseHandler opens a case and assigns its number
func CreateCaseHandler(c echo.Context) error {
	var input services.CaseInput
	if err := bind(c, &input); err != nil {
		return err
	}

	kase, err := services.CreateCase(db.DB, input, middleware.GetCurrentUser(c), time.Now())
	if err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), models.AuditActionCreate,
		"case", kase.ID, kase.Number, "Expediente creado", nil, kase)
	return c.JSON(http.StatusCreated, kase)
}

// UpdateCaseHandler edits a case. The number never changes.
func UpdateCaseHandler(c echo.Context) error {
	var input services.CaseInput
	if err := bind(c, &input); err != nil {
		return err
	}

	kase, err := services.UpdateCase(db.DB, c.Param("id"), input)
	if err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), models.AuditActionUpdate,
		"case", kase.ID, kase.Number, "Expediente actualizado", nil, kase)
	return c.JSON(http.StatusOK, kase)
}

// DeleteCaseHandler deletes a case together with its phases and documents
func DeleteCaseHandler(c echo.Context) error {
	kase, err := services.DeleteCase(c.Request().Context(), db.DB, deps.Storage, c.Param("id"))
	if err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), models.AuditActionDelete,
		"case", kase.ID, kase.Number, "Expediente eliminado", kase, nil)
	return c.JSON(http.StatusOK, MessageResponse{Message: "Expediente eliminado"})
}

// CaseStatsHandler returns the dashboard counters
func CaseStatsHandler(c echo.Context) error {
	stats, err := services.GetCaseStats(db.DB, time.Now())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// ExportCasesHandler downloads the filtered cases as a spreadsheet
func ExportCasesHandler(c echo.Context) error {
	buf, count, err := services.ExportCasesXLSX(db.DB, caseFilters(c))
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("expedientes_%s.xlsx", time.Now().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Response().Header().Set("X-Total-Count", fmt.Sprint(count))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// CaseSummaryPDFHandler renders the case summary through headless Chrome
func CaseSummaryPDFHandler(c echo.Context) error {
	opts := services.DefaultPDFOptions()
	opts.RemoteURL = getConfig(c).ChromeRemoteURL

	pdf, kase, err := services.GenerateCaseSummaryPDF(c.Request().Context(), db.DB, c.Param("id"), opts, time.Now())
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("expediente_%s.pdf", kase.Number)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s"`, filename))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

// AuditHistoryHandler lists the audit trail of a resource
func AuditHistoryHandler(c echo.Context) error {
	logs, err := services.GetResourceAuditHistory(db.DB, c.Param("type"), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"logs": logs})
}
