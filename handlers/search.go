package handlers

import (
	"jetlex_app_go/db"
	"jetlex_app_go/services"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// GlobalSearchHandler searches cases, clients, aircraft and regulatory alerts at once
func GlobalSearchHandler(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	results, err := services.NewSearchService(db.DB).Search(c.Request().Context(), c.QueryParam("q"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"query":   c.QueryParam("q"),
		"results": results,
	})
}
