package services

import (
	"errors"
	"jetlex_app_go/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

func TestStartPhases(t *testing.T) {
	t.Run("Creates every phase from the template", func(t *testing.T) {
		db := setupServiceTestDB(t)
		c, _ := createTestCase(t, db, models.ProcedureCertificacionEmpresa)
		now := time.Now()

		phases, err := StartPhases(db, c.ID, now)
		require.NoError(t, err)
		require.Len(t, phases, 5)

		listed, err := ListPhases(db, c.ID)
		require.NoError(t, err)
		require.Len(t, listed, 5)
		for i, p := range listed {
			assert.Equal(t, i+1, p.Number)
			assert.Equal(t, models.PhaseStatusPendiente, p.Status)
			assert.Equal(t, 0, p.Progress)
			assert.False(t, p.AlertActive)
			assert.Empty(t, p.ReceivedDocs)
		}
		assert.Equal(t, "Pre-solicitud", listed[0].Name)
		assert.Len(t, listed[0].RequiredDocs, 4)

		reloaded, err := GetCaseByID(db, c.ID)
		require.NoError(t, err)
		assert.Equal(t, models.CaseStatusEnProceso, reloaded.Status)
	})

	t.Run("Unknown case", func(t *testing.T) {
		db := setupServiceTestDB(t)
		_, err := StartPhases(db, "missing", time.Now())
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("Procedure type without template", func(t *testing.T) {
		db := setupServiceTestDB(t)
		c, _ := createTestCase(t, db, models.ProcedureTransferencia)
		_, err := StartPhases(db, c.ID, time.Now())
		assert.True(t, errors.Is(err, ErrUnsupported))

		var count int64
		db.Model(&models.Phase{}).Count(&count)
		assert.Zero(t, count)
	})

	t.Run("Second start is rejected", func(t *testing.T) {
		db := setupServiceTestDB(t)
		c, _ := createTestCase(t, db, models.ProcedureCertificacionEmpresa)
		_, err := StartPhases(db, c.ID, time.Now())
		require.NoError(t, err)

		_, err = StartPhases(db, c.ID, time.Now())
		assert.True(t, errors.Is(err, ErrUnsupported))

		var count int64
		db.Model(&models.Phase{}).Where("expediente_id = ?", c.ID).Count(&count)
		assert.Equal(t, int64(5), count)
	})

	t.Run("Failure while persisting leaves no phases", func(t *testing.T) {
		db := setupServiceTestDB(t)
		c, _ := createTestCase(t, db, models.ProcedureCertificacionEmpresa)

		require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_phase", func(tx *gorm.DB) {
			if tx.Statement.Table == "fases" {
				tx.AddError(errors.New("disk full"))
			}
		}))
		defer db.Callback().Create().Remove("test:fail_phase")

		_, err := StartPhases(db, c.ID, time.Now())
		require.Error(t, err)

		var count int64
		db.Model(&models.Phase{}).Where("expediente_id = ?", c.ID).Count(&count)
		assert.Zero(t, count)

		reloaded, _ := GetCaseByID(db, c.ID)
		assert.Equal(t, models.CaseStatusBorrador, reloaded.Status)
	})
}

func TestRecomputePhase(t *testing.T) {
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

	t.Run("Progress from received documents", func(t *testing.T) {
		p := &models.Phase{
			RequiredDocs: models.StringList{"A", "B", "C", "D"},
			ReceivedDocs: models.StringList{"A", "C"},
			StartDate:    now,
		}
		RecomputePhase(p, true, now)
		assert.Equal(t, 50, p.Progress)
	})

	t.Run("Empty required list yields zero", func(t *testing.T) {
		p := &models.Phase{RequiredDocs: models.StringList{}, ReceivedDocs: models.StringList{}, StartDate: now}
		assert.NotPanics(t, func() { RecomputePhase(p, true, now) })
		assert.Equal(t, 0, p.Progress)
	})

	t.Run("Progress untouched when documents did not change", func(t *testing.T) {
		p := &models.Phase{RequiredDocs: models.StringList{"A"}, Progress: 0, ReceivedDocs: models.StringList{"A"}, StartDate: now}
		RecomputePhase(p, false, now)
		assert.Equal(t, 0, p.Progress)
	})

	t.Run("Rounding", func(t *testing.T) {
		assert.Equal(t, 33, CompletionPercent(1, 3))
		assert.Equal(t, 67, CompletionPercent(2, 3))
		assert.Equal(t, 100, CompletionPercent(3, 3))
	})

	t.Run("Elapsed days are floored", func(t *testing.T) {
		assert.Equal(t, 0, ElapsedDays(now.Add(-23*time.Hour), now))
		assert.Equal(t, 1, ElapsedDays(now.Add(-25*time.Hour), now))
		assert.Equal(t, 16, ElapsedDays(now.AddDate(0, 0, -16), now))
		assert.Equal(t, 0, ElapsedDays(now.Add(time.Hour), now))
	})

	t.Run("Alert after fifteen days unless approved", func(t *testing.T) {
		p := &models.Phase{Status: models.PhaseStatusEnProceso, StartDate: now.AddDate(0, 0, -16)}
		RecomputePhase(p, false, now)
		assert.Equal(t, 16, p.ElapsedDays)
		assert.True(t, p.AlertActive)

		p.Status = models.PhaseStatusAprobada
		RecomputePhase(p, false, now)
		assert.False(t, p.AlertActive)
	})

	t.Run("Exactly fifteen days does not alert", func(t *testing.T) {
		p := &models.Phase{Status: models.PhaseStatusEnProceso, StartDate: now.AddDate(0, 0, -15)}
		RecomputePhase(p, false, now)
		assert.False(t, p.AlertActive)
	})

	t.Run("Alert stays raised until approval", func(t *testing.T) {
		p := &models.Phase{Status: models.PhaseStatusObservada, StartDate: now.AddDate(0, 0, -3), AlertActive: true}
		RecomputePhase(p, false, now)
		assert.True(t, p.AlertActive)
	})
}

func TestUpdatePhase(t *testing.T) {
	db := setupServiceTestDB(t)
	c, _ := createTestCase(t, db, models.ProcedureCertificacionEmpresa)
	start := time.Now().AddDate(0, 0, -16)
	phases, err := StartPhases(db, c.ID, start)
	require.NoError(t, err)
	first := phases[0]

	t.Run("Missing phase", func(t *testing.T) {
		_, err := UpdatePhase(db, "nope", PhasePatch{}, time.Now())
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("Received documents drive progress", func(t *testing.T) {
		docs := []string{"Carta de intención", "Estatuto social", "Carta de intención"}
		updated, err := UpdatePhase(db, first.ID, PhasePatch{ReceivedDocs: &docs}, time.Now())
		require.NoError(t, err)
		assert.Equal(t, models.StringList{"Carta de intención", "Estatuto social"}, updated.ReceivedDocs)
		assert.Equal(t, 50, updated.Progress)
		assert.Equal(t, 16, updated.ElapsedDays)
		assert.True(t, updated.AlertActive)

		reloaded, _ := GetCaseByID(db, c.ID)
		assert.Equal(t, 10, reloaded.Progress)

		var notifications []models.Notification
		db.Where("fase_id = ?", first.ID).Find(&notifications)
		assert.Len(t, notifications, 1)
	})

	t.Run("Unknown document is rejected", func(t *testing.T) {
		docs := []string{"Pasaporte"}
		_, err := UpdatePhase(db, first.ID, PhasePatch{ReceivedDocs: &docs}, time.Now())
		assert.True(t, errors.Is(err, ErrValidation))
	})

	t.Run("Transitions follow the state machine", func(t *testing.T) {
		_, err := UpdatePhase(db, first.ID, PhasePatch{Status: strPtr(models.PhaseStatusAprobada)}, time.Now())
		assert.True(t, errors.Is(err, ErrValidation))

		_, err = UpdatePhase(db, first.ID, PhasePatch{Status: strPtr(models.PhaseStatusEnProceso)}, time.Now())
		require.NoError(t, err)

		observed, err := UpdatePhase(db, first.ID, PhasePatch{Status: strPtr(models.PhaseStatusObservada), Notes: strPtr("  falta firma ")}, time.Now())
		require.NoError(t, err)
		assert.Equal(t, "falta firma", observed.Notes)
		assert.True(t, observed.AlertActive)

		_, err = UpdatePhase(db, first.ID, PhasePatch{Status: strPtr(models.PhaseStatusEnProceso)}, time.Now())
		require.NoError(t, err)

		approved, err := UpdatePhase(db, first.ID, PhasePatch{Status: strPtr(models.PhaseStatusAprobada)}, time.Now())
		require.NoError(t, err)
		assert.False(t, approved.AlertActive)
		assert.NotNil(t, approved.ApprovedAt)
	})

	t.Run("Approval date needs an approved phase", func(t *testing.T) {
		signed := time.Now().AddDate(0, 0, -2).UTC().Truncate(time.Second)

		_, err := UpdatePhase(db, phases[1].ID, PhasePatch{ApprovedAt: &signed}, time.Now())
		var e *Error
		require.True(t, errors.As(err, &e))
		assert.Equal(t, "fechaAprobacion", e.Field)

		untouched, err := GetPhaseByID(db, phases[1].ID)
		require.NoError(t, err)
		assert.Nil(t, untouched.ApprovedAt)

		backdated, err := UpdatePhase(db, first.ID, PhasePatch{ApprovedAt: &signed}, time.Now())
		require.NoError(t, err)
		require.NotNil(t, backdated.ApprovedAt)
		assert.True(t, signed.Equal(*backdated.ApprovedAt))
	})

	t.Run("Invalid status value", func(t *testing.T) {
		_, err := UpdatePhase(db, phases[1].ID, PhasePatch{Status: strPtr("terminada")}, time.Now())
		assert.True(t, errors.Is(err, ErrValidation))
	})
}

func TestListAlertedPhases(t *testing.T) {
	db := setupServiceTestDB(t)
	c, _ := createTestCase(t, db, models.ProcedureCertificacionEmpresa)
	phases, err := StartPhases(db, c.ID, time.Now())
	require.NoError(t, err)

	// phase 2 is observed, phase 3 is stale
	_, err = UpdatePhase(db, phases[1].ID, PhasePatch{Status: strPtr(models.PhaseStatusEnProceso)}, time.Now())
	require.NoError(t, err)
	_, err = UpdatePhase(db, phases[1].ID, PhasePatch{Status: strPtr(models.PhaseStatusObservada)}, time.Now())
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Phase{}).Where("id = ?", phases[2].ID).UpdateColumn("dias_transcurridos", 20).Error)

	alerted, err := ListAlertedPhases(db)
	require.NoError(t, err)
	require.Len(t, alerted, 2)
	assert.Equal(t, phases[2].ID, alerted[0].ID)
	for _, a := range alerted {
		assert.Equal(t, c.Number, a.CaseNumber)
		assert.Equal(t, c.ClientID, a.ClientID)
	}
}

func TestRefreshPhaseAlerts(t *testing.T) {
	db := setupServiceTestDB(t)
	c, _ := createTestCase(t, db, models.ProcedureCertificacionEmpresa)
	start := time.Now()
	_, err := StartPhases(db, c.ID, start)
	require.NoError(t, err)

	raised, err := RefreshPhaseAlerts(db, start.AddDate(0, 0, 10))
	require.NoError(t, err)
	assert.Empty(t, raised)

	raised, err = RefreshPhaseAlerts(db, start.AddDate(0, 0, 17))
	require.NoError(t, err)
	assert.Len(t, raised, 5)

	raised, err = RefreshPhaseAlerts(db, start.AddDate(0, 0, 18))
	require.NoError(t, err)
	assert.Empty(t, raised)

	var count int64
	db.Model(&models.Notification{}).Where("type = ?", models.NotificationTypePhaseAlert).Count(&count)
	assert.Equal(t, int64(5), count)
}

func TestCertificationScenario(t *testing.T) {
	db := setupServiceTestDB(t)
	admin := createTestUser(t, db, models.RoleAdmin)

	client, err := CreateClient(db, ClientInput{Name: "Aeroclub Norte", Type: models.ClientTypeAeroclub})
	require.NoError(t, err)

	c, err := CreateCase(db, CaseInput{ProcedureType: models.ProcedureCertificacionEmpresa, ClientID: client.ID}, admin, time.Now())
	require.NoError(t, err)
	assert.Equal(t, admin.ID, c.AssigneeID)
	assert.Equal(t, models.UrgencyMedia, c.Urgency)

	_, err = StartPhases(db, c.ID, time.Now())
	require.NoError(t, err)

	phases, err := ListPhases(db, c.ID)
	require.NoError(t, err)
	require.Len(t, phases, 5)
	assert.Equal(t, "Pre-solicitud", phases[0].Name)
	require.Len(t, phases[0].RequiredDocs, 4)

	all := []string(phases[0].RequiredDocs)
	updated, err := UpdatePhase(db, phases[0].ID, PhasePatch{ReceivedDocs: &all}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 100, updated.Progress)
	assert.LessOrEqual(t, updated.ElapsedDays, 15)
	assert.False(t, updated.AlertActive)
}
