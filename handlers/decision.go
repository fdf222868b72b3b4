package handlers

import (
	"jetlex_app_go/db"
	"jetlex_app_go/middleware"
	"jetlex_app_go/models"
	"jetlex_app_go/services"
	"net/http"

	"github.com/labstack/echo/v4"
)

type decisionMatrixRequest struct {
	Rules []models.DecisionRule `json:"decisiones"`
}

type decisionQuery struct {
	ActionType string   `json:"tipo"`
	Amount     *float64 `json:"monto"`
}

func GetDecisionMatrixHandler(c echo.Context) error {
	rules, err := services.ListActiveDecisionRules(db.DB)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"decisiones": rules})
}

// ReplaceDecisionMatrixHandler swaps the whole active matrix at once
func ReplaceDecisionMatrixHandler(c echo.Context) error {
	var req decisionMatrixRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	rules, err := services.ReplaceDecisionMatrix(db.DB, req.Rules)
	if err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), models.AuditActionUpdate,
		"decision_matrix", "", "", "Matriz de decisiones reemplazada", nil, rules)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":    "Matriz actualizada",
		"decisiones": rules,
	})
}

// ClassifyDecisionHandler answers who must approve an action
func ClassifyDecisionHandler(c echo.Context) error {
	var q decisionQuery
	if err := bind(c, &q); err != nil {
		return err
	}

	outcome, err := services.ClassifyDecision(db.DB, q.ActionType, q.Amount)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, outcome)
}
