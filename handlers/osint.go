package handlers

import (
	"jetlex_app_go/middleware"
	"jetlex_app_go/services/osint"
	"net/http"

	"github.com/labstack/echo/v4"
)

type osintReportRequest struct {
	Query   string        `json:"query"`
	Sources []string      `json:"sources"`
	Options osint.Options `json:"options"`
}

type quickSearchRequest struct {
	Query string `json:"query"`
}

// OSINTReportHandler runs every requested source and stores the report.
// Failing sources are reported inline and mark the report partial.
func OSINTReportHandler(c echo.Context) error {
	var req osintReportRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	report, err := deps.OSINT.Generate(c.Request().Context(), req.Query, req.Sources, req.Options, middleware.GetCurrentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"report":  report,
	})
}

// OSINTQuickSearchHandler asks a single short question, served from cache when possible
func OSINTQuickSearchHandler(c echo.Context) error {
	var req quickSearchRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := deps.OSINT.QuickSearch(c.Request().Context(), req.Query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"result":  result,
	})
}

// OSINTHistoryHandler lists the caller's latest reports
func OSINTHistoryHandler(c echo.Context) error {
	reports, err := deps.OSINT.History(middleware.GetCurrentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"reports": reports,
	})
}
