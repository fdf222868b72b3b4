package handlers

import (
	"jetlex_app_go/models"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitoringAlerts(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser(t, models.RoleColaboradorA)
	_, readOnly := s.createUser(t, models.RoleColaboradorB)

	alert := map[string]interface{}{
		"fuente":    models.SourceBoletinOficial,
		"titulo":    "Resolución 123/2026 sobre drones",
		"prioridad": models.PriorityAmarillo,
	}
	rec := s.do(t, http.MethodPost, "/api/monitoreo", token, alert)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.MonitoringAlert
	decode(t, rec, &created)

	rec = s.do(t, http.MethodPost, "/api/monitoreo", token, alert)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/monitoreo", readOnly, alert)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/monitoreo/"+created.ID, token, map[string]interface{}{
		"fuente": models.SourceBoletinOficial,
		"titulo": created.Title,
		"estado": models.AlertStatusEnRevision,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var reviewed models.MonitoringAlert
	decode(t, rec, &reviewed)
	assert.NotNil(t, reviewed.ReviewedAt)

	rec = s.do(t, http.MethodGet, "/api/monitoreo?prioridad=amarillo&desde=2000-01-01", readOnly, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list map[string]interface{}
	decode(t, rec, &list)
	assert.EqualValues(t, 1, list["total"])

	rec = s.do(t, http.MethodGet, "/api/monitoreo?desde=ayer", readOnly, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/monitoreo/dashboard", readOnly, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dashboard map[string]interface{}
	decode(t, rec, &dashboard)
	assert.EqualValues(t, 1, dashboard["amarillas"])
}

func TestDecisionMatrix(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.createUser(t, models.RoleAdmin)
	_, memberToken := s.createUser(t, models.RoleColaboradorA)

	maxMid := 5000.0
	minMid := 1000.0
	minHigh := 5000.0
	rules := []map[string]interface{}{
		{"nivel": "1", "criterio": "Alto monto", "montoMinimo": minHigh, "responsable": "Dirección", "requiereConsulta": true, "tiempoMaximoRespuesta": 48},
		{"nivel": "2", "criterio": "Monto medio", "montoMinimo": minMid, "montoMaximo": maxMid, "responsable": "Colaborador A", "requiereConsulta": true, "tiempoMaximoRespuesta": 24},
	}

	rec := s.do(t, http.MethodPut, "/api/decisiones/matriz", memberToken, map[string]interface{}{"decisiones": rules})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/decisiones/matriz", adminToken, map[string]interface{}{"decisiones": rules})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/decisiones/matriz", memberToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var matrix struct {
		Rules []models.DecisionRule `json:"decisiones"`
	}
	decode(t, rec, &matrix)
	assert.Len(t, matrix.Rules, 2)

	rec = s.do(t, http.MethodPost, "/api/decisiones/consultar", memberToken, map[string]interface{}{
		"tipo":  "contratacion",
		"monto": 2500,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var outcome map[string]interface{}
	decode(t, rec, &outcome)
	assert.Equal(t, "2", outcome["nivel"])
	assert.Equal(t, "Colaborador A", outcome["responsable"])

	rec = s.do(t, http.MethodPost, "/api/decisiones/consultar", memberToken, map[string]interface{}{"monto": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/decisiones/consultar", memberToken, map[string]interface{}{
		"tipo":  "rutina",
		"monto": "abc",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var invalid map[string]interface{}
	decode(t, rec, &invalid)
	assert.Equal(t, "monto", invalid["field"])
}

func TestCalendar(t *testing.T) {
	s := newTestServer(t)
	user, token := s.createUser(t, models.RoleColaboradorB)
	start := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)

	rec := s.do(t, http.MethodPost, "/api/calendar", token, map[string]interface{}{
		"titulo":                "Seguimiento semanal",
		"tipo":                  models.EventTypeSeguimiento,
		"fechaInicio":           start,
		"fechaFin":              start.Add(time.Hour),
		"esRecurrente":          true,
		"frecuenciaRecurrencia": models.RecurrenceSemanal,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var event models.Event
	decode(t, rec, &event)
	assert.Equal(t, user.ID, event.AssigneeID)
	require.NotNil(t, event.SeriesID)

	rec = s.do(t, http.MethodGet, "/api/calendar", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Events []models.Event `json:"eventos"`
	}
	decode(t, rec, &list)
	assert.Len(t, list.Events, 13)

	rec = s.do(t, http.MethodGet, "/api/calendar/recordatorios", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &list)
	assert.Len(t, list.Events, 1)

	rec = s.do(t, http.MethodGet, "/api/calendar/"+event.ID+"/ics", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), "text/calendar"))
	assert.Contains(t, rec.Body.String(), "SUMMARY:Seguimiento semanal")

	rec = s.do(t, http.MethodDelete, "/api/calendar/"+event.ID+"?serie=true", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var deleted map[string]interface{}
	decode(t, rec, &deleted)
	assert.EqualValues(t, 13, deleted["eliminados"])
}

func TestOSINT(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser(t, models.RoleColaboradorA)
	_, readOnly := s.createUser(t, models.RoleColaboradorB)

	rec := s.do(t, http.MethodPost, "/api/osint/report", readOnly, map[string]interface{}{"query": "drones"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/osint/report", token, map[string]interface{}{"query": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/osint/report", token, map[string]interface{}{
		"query":   "operadores de drones",
		"sources": []string{"openai", "shodan"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Sin hallazgos relevantes")
	assert.Contains(t, rec.Body.String(), "unknown source")

	rec = s.do(t, http.MethodPost, "/api/osint/quick-search", token, map[string]interface{}{"query": "RAAC 91"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/osint/history", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Reports []map[string]interface{} `json:"reports"`
	}
	decode(t, rec, &history)
	assert.Len(t, history.Reports, 1)
}

func TestNewsletterFlow(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.createUser(t, models.RoleAdmin)
	_, memberToken := s.createUser(t, models.RoleColaboradorA)

	rec := s.do(t, http.MethodPost, "/api/newsletter/subscribe", "", map[string]string{"email": "Lector@Aeroclub.com", "nombre": "Lector"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/newsletter/generate", memberToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/newsletter/generate", adminToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var newsletter models.Newsletter
	decode(t, rec, &newsletter)
	assert.Equal(t, models.NewsletterStatusBorrador, newsletter.Status)

	rec = s.do(t, http.MethodPost, "/api/newsletter/"+newsletter.ID+"/send", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &newsletter)
	assert.Equal(t, models.NewsletterStatusEnviado, newsletter.Status)
	assert.Equal(t, 1, s.mailer.count())

	rec = s.do(t, http.MethodPost, "/api/newsletter/"+newsletter.ID+"/send", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/newsletter/unsubscribe?email=lector@aeroclub.com", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/newsletter/subscribers?activo=true", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var subs map[string]interface{}
	decode(t, rec, &subs)
	assert.EqualValues(t, 0, subs["total"])
}

func TestNotifications(t *testing.T) {
	s := newTestServer(t)
	user, token := s.createUser(t, models.RoleColaboradorB)
	other, _ := s.createUser(t, models.RoleColaboradorB)

	mine := &models.Notification{UserID: &user.ID, Type: models.NotificationTypeSystem, Title: "Bienvenida"}
	broadcast := &models.Notification{Type: models.NotificationTypeSystem, Title: "Mantenimiento"}
	theirs := &models.Notification{UserID: &other.ID, Type: models.NotificationTypeSystem, Title: "Privada"}
	require.NoError(t, s.db.Create(mine).Error)
	require.NoError(t, s.db.Create(broadcast).Error)
	require.NoError(t, s.db.Create(theirs).Error)

	rec := s.do(t, http.MethodGet, "/api/notifications", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Notifications []models.Notification `json:"notifications"`
		Unread        int64                 `json:"unread"`
	}
	decode(t, rec, &resp)
	assert.Len(t, resp.Notifications, 2)
	assert.EqualValues(t, 2, resp.Unread)

	rec = s.do(t, http.MethodPut, "/api/notifications/"+theirs.ID+"/read", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/notifications/"+mine.ID+"/read", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/notifications?unread=true", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	assert.EqualValues(t, 1, resp.Unread)
}
