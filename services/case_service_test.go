package services

import (
	"context"
	"errors"
	"jetlex_app_go/models"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCase(t *testing.T) {
	db := setupServiceTestDB(t)
	user := createTestUser(t, db, models.RoleColaboradorA)
	client := createTestClient(t, db, "Helicópteros del Sur")

	t.Run("Defaults and number format", func(t *testing.T) {
		c, err := CreateCase(db, CaseInput{ProcedureType: models.ProcedureImportacion, ClientID: client.ID}, user, time.Now())
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^EXP-\d{4}-\d{4}$`), c.Number)
		assert.Equal(t, models.CaseStatusBorrador, c.Status)
		assert.Equal(t, models.UrgencyMedia, c.Urgency)
		assert.Equal(t, user.ID, c.AssigneeID)
		assert.False(t, c.StartDate.IsZero())
	})

	t.Run("Validation", func(t *testing.T) {
		_, err := CreateCase(db, CaseInput{ProcedureType: "otro", ClientID: client.ID}, user, time.Now())
		assert.True(t, errors.Is(err, ErrValidation))

		_, err = CreateCase(db, CaseInput{ProcedureType: models.ProcedureImportacion, ClientID: "missing"}, user, time.Now())
		assert.True(t, errors.Is(err, ErrValidation))

		_, err = CreateCase(db, CaseInput{ProcedureType: models.ProcedureImportacion, ClientID: client.ID, Urgency: "muy_alta"}, user, time.Now())
		assert.True(t, errors.Is(err, ErrValidation))

		fees := -10.0
		_, err = CreateCase(db, CaseInput{ProcedureType: models.ProcedureImportacion, ClientID: client.ID, Fees: &fees}, user, time.Now())
		assert.True(t, errors.Is(err, ErrValidation))
	})
}

func TestCaseQueries(t *testing.T) {
	db := setupServiceTestDB(t)
	user := createTestUser(t, db, models.RoleAdmin)
	client := createTestClient(t, db, "Aeroclub Norte")
	now := time.Now()

	soon := now.AddDate(0, 0, 3)
	later := now.AddDate(0, 2, 0)
	inputs := []CaseInput{
		{ProcedureType: models.ProcedureTransferencia, ClientID: client.ID, Urgency: models.UrgencyAlta, DueDate: &soon, Status: models.CaseStatusEnProceso},
		{ProcedureType: models.ProcedureMatriculacion, ClientID: client.ID, Urgency: models.UrgencyCritica, DueDate: &later},
		{ProcedureType: models.ProcedureMatriculacion, ClientID: client.ID, DueDate: &soon, Status: models.CaseStatusCompletado},
		{ProcedureType: models.ProcedureCertificacionEmpresa, ClientID: client.ID, Notes: "inspección pendiente"},
	}
	var created []*models.Case
	for _, in := range inputs {
		c, err := CreateCase(db, in, user, now)
		require.NoError(t, err)
		created = append(created, c)
	}

	t.Run("Dashboard stats", func(t *testing.T) {
		stats, err := GetCaseStats(db, now)
		require.NoError(t, err)
		assert.Equal(t, int64(4), stats.Total)
		assert.Equal(t, int64(1), stats.InProcess)
		assert.Equal(t, int64(2), stats.Urgent)
		assert.Equal(t, int64(1), stats.DueSoon)
	})

	t.Run("Filters", func(t *testing.T) {
		list, total, err := ListCases(db, CaseFilters{ProcedureType: models.ProcedureMatriculacion}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, list, 2)

		list, _, err = ListCases(db, CaseFilters{Search: "inspección"}, 1, 10)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, created[3].ID, list[0].ID)
		require.NotNil(t, list[0].Client)

		list, total, err = ListCases(db, CaseFilters{}, 2, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Len(t, list, 1)
	})

	t.Run("Update keeps the number", func(t *testing.T) {
		updated, err := UpdateCase(db, created[1].ID, CaseInput{Status: models.CaseStatusPendienteANAC, Urgency: models.UrgencyBaja})
		require.NoError(t, err)
		assert.Equal(t, created[1].Number, updated.Number)
		assert.Equal(t, models.CaseStatusPendienteANAC, updated.Status)
		assert.Equal(t, models.UrgencyBaja, updated.Urgency)

		_, err = UpdateCase(db, created[1].ID, CaseInput{Status: "archivado"})
		assert.True(t, errors.Is(err, ErrValidation))
	})

	t.Run("Procedure type is locked once phases exist", func(t *testing.T) {
		_, err := StartPhases(db, created[3].ID, now)
		require.NoError(t, err)
		_, err = UpdateCase(db, created[3].ID, CaseInput{ProcedureType: models.ProcedureTransferencia})
		assert.True(t, errors.Is(err, ErrUnsupported))

		detail, err := GetCaseByID(db, created[3].ID)
		require.NoError(t, err)
		assert.Len(t, detail.Phases, 5)
		assert.Equal(t, 1, detail.Phases[0].Number)
	})

	t.Run("Delete removes phases", func(t *testing.T) {
		_, err := DeleteCase(context.Background(), db, NewLocalStorage(t.TempDir()), created[3].ID)
		require.NoError(t, err)
		var phases int64
		db.Model(&models.Phase{}).Where("expediente_id = ?", created[3].ID).Count(&phases)
		assert.Zero(t, phases)

		_, err = GetCaseByID(db, created[3].ID)
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}
