package services

import (
	"jetlex_app_go/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMonitoringAlertDedup(t *testing.T) {
	db := setupServiceTestDB(t)
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	input := MonitoringAlertInput{
		Source:   models.SourceANACNovedades,
		Title:    "Nueva resolución sobre RAAC 135",
		Priority: models.PriorityAmarillo,
	}

	first, err := CreateMonitoringAlert(db, input, now)
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusNueva, first.Status)
	assert.Equal(t, now, first.DetectedAt)

	_, err = CreateMonitoringAlert(db, input, now)
	assert.ErrorIs(t, err, ErrConflict)

	// Same title from another source is a different alert
	input.Source = models.SourceBoletinOficial
	_, err = CreateMonitoringAlert(db, input, now)
	require.NoError(t, err)

	var count int64
	db.Model(&models.MonitoringAlert{}).Where("titulo = ?", input.Title).Count(&count)
	assert.Equal(t, int64(2), count)

	exists, err := ExistsMonitoringAlert(db, "  Nueva resolución sobre RAAC 135 ", models.SourceANACNovedades)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUniqueIndexBacksDedup(t *testing.T) {
	db := setupServiceTestDB(t)
	alert := &models.MonitoringAlert{Source: models.SourceOtro, Title: "Duplicada", DetectedAt: time.Now()}
	require.NoError(t, db.Create(alert).Error)

	dup := &models.MonitoringAlert{Source: models.SourceOtro, Title: "Duplicada", DetectedAt: time.Now()}
	err := translateDBError(db.Create(dup).Error, "monitoring alert")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreateMonitoringAlertValidation(t *testing.T) {
	db := setupServiceTestDB(t)
	now := time.Now()

	_, err := CreateMonitoringAlert(db, MonitoringAlertInput{Source: models.SourceOtro}, now)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = CreateMonitoringAlert(db, MonitoringAlertInput{Source: "TWITTER", Title: "x"}, now)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = CreateMonitoringAlert(db, MonitoringAlertInput{Source: models.SourceOtro, Title: "x", Priority: "azul"}, now)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRedAlertNotifiesEveryone(t *testing.T) {
	db := setupServiceTestDB(t)
	user := createTestUser(t, db, models.RoleColaboradorB)

	_, err := CreateMonitoringAlert(db, MonitoringAlertInput{
		Source:   models.SourceANACResoluciones,
		Title:    "Suspensión de habilitaciones",
		Priority: models.PriorityRojo,
	}, time.Now())
	require.NoError(t, err)

	count, err := NewNotificationService(db).GetNotificationCount(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestListMonitoringAlertsOrdering(t *testing.T) {
	db := setupServiceTestDB(t)
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	mk := func(title, priority string, age time.Duration) {
		_, err := CreateMonitoringAlert(db, MonitoringAlertInput{Source: models.SourceANACNovedades, Title: title, Priority: priority}, now.Add(-age))
		require.NoError(t, err)
	}
	mk("verde reciente", models.PriorityVerde, time.Hour)
	mk("roja vieja", models.PriorityRojo, 72*time.Hour)
	mk("amarilla", models.PriorityAmarillo, 2*time.Hour)
	mk("roja nueva", models.PriorityRojo, 3*time.Hour)

	alerts, total, err := ListMonitoringAlerts(db, MonitoringFilters{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	titles := make([]string, 0, len(alerts))
	for _, a := range alerts {
		titles = append(titles, a.Title)
	}
	assert.Equal(t, []string{"roja nueva", "roja vieja", "amarilla", "verde reciente"}, titles)

	from := now.Add(-24 * time.Hour)
	alerts, total, err = ListMonitoringAlerts(db, MonitoringFilters{Priority: models.PriorityRojo, From: &from}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "roja nueva", alerts[0].Title)

	digest, err := RecentAlertsForDigest(db, now.Add(-7*24*time.Hour), 2)
	require.NoError(t, err)
	require.Len(t, digest, 2)
	assert.Equal(t, models.PriorityRojo, digest[0].Priority)
	assert.Equal(t, models.PriorityRojo, digest[1].Priority)

	dash, err := GetMonitoringDashboard(db, now)
	require.NoError(t, err)
	assert.Equal(t, int64(4), dash.Total)
	assert.Equal(t, int64(2), dash.Red)
	assert.Equal(t, int64(1), dash.Yellow)
	assert.Equal(t, int64(4), dash.NewLast7d)
	assert.Equal(t, int64(4), dash.BySource[models.SourceANACNovedades])
}

func TestUpdateMonitoringAlertStampsReview(t *testing.T) {
	db := setupServiceTestDB(t)
	alert, err := CreateMonitoringAlert(db, MonitoringAlertInput{Source: models.SourceLinkedIn, Title: "Post de operador"}, time.Now())
	require.NoError(t, err)
	assert.Nil(t, alert.ReviewedAt)

	reviewed := time.Date(2026, 5, 11, 10, 0, 0, 0, time.UTC)
	updated, err := UpdateMonitoringAlert(db, alert.ID, MonitoringAlertInput{Status: models.AlertStatusProcesada, RequiredAction: "Informar a clientes"}, reviewed)
	require.NoError(t, err)
	require.NotNil(t, updated.ReviewedAt)
	assert.Equal(t, reviewed, *updated.ReviewedAt)
	assert.Equal(t, models.AlertStatusProcesada, updated.Status)

	_, err = UpdateMonitoringAlert(db, alert.ID, MonitoringAlertInput{Status: "olvidada"}, reviewed)
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, DeleteMonitoringAlert(db, alert.ID))
	assert.ErrorIs(t, DeleteMonitoringAlert(db, alert.ID), ErrNotFound)
}
