package jobs

import (
	"context"
	"errors"
	"jetlex_app_go/config"
	"jetlex_app_go/models"
	"jetlex_app_go/services"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []*services.Email
	fail bool
}

func (m *recordingMailer) Send(ctx context.Context, email *services.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("provider down")
	}
	m.sent = append(m.sent, email)
	return nil
}

func setupJobsTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:jobs_" + uuid.New().String() + "?mode=memory&cache=shared&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string, notifications bool) *models.User {
	t.Helper()
	u := &models.User{Name: "Gestor", Email: email, Password: "x", Role: models.RoleColaboradorA, IsActive: true, Notifications: true}
	require.NoError(t, db.Create(u).Error)
	if !notifications {
		require.NoError(t, db.Model(u).Update("notifications", false).Error)
	}
	return u
}

func testConfig() *config.Config {
	return &config.Config{
		FrontendURL:        "http://localhost:5173",
		Timezone:           "UTC",
		ScraperSchedule:    "0 9,14,18 * * *",
		NewsletterSchedule: "0 9 * * 1",
		PhaseAlertSchedule: "0 7 * * *",
		ReminderSchedule:   "0 8 * * 1",
	}
}

func TestRefreshPhaseAlerts_SendsDigestPerAssignee(t *testing.T) {
	db := setupJobsTestDB(t)
	owner := createUser(t, db, "owner@jetlex.test", true)
	quiet := createUser(t, db, "quiet@jetlex.test", false)
	client := &models.Client{Name: "Aeroclub Norte", Type: models.ClientTypeAeroclub, Active: true}
	require.NoError(t, db.Create(client).Error)

	started := time.Now().Add(-20 * 24 * time.Hour)
	for _, u := range []*models.User{owner, quiet} {
		c, err := services.CreateCase(db, services.CaseInput{
			ProcedureType: models.ProcedureCertificacionEmpresa,
			ClientID:      client.ID,
		}, u, started)
		require.NoError(t, err)
		_, err = services.StartPhases(db, c.ID, started)
		require.NoError(t, err)
	}

	mailer := &recordingMailer{}
	result, err := RefreshPhaseAlerts(context.Background(), db, testConfig(), mailer, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 10, result.Raised)
	assert.Equal(t, 1, result.Recipients)
	assert.Equal(t, 0, result.Failed)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{owner.Email}, mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Subject, "5 fases demoradas")

	// A second run raises nothing new but still reminds
	result, err = RefreshPhaseAlerts(context.Background(), db, testConfig(), mailer, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Raised)
	assert.Equal(t, 1, result.Recipients)
}

func TestRefreshPhaseAlerts_NothingDelayed(t *testing.T) {
	db := setupJobsTestDB(t)
	mailer := &recordingMailer{}

	result, err := RefreshPhaseAlerts(context.Background(), db, testConfig(), mailer, time.Now())
	require.NoError(t, err)
	assert.Zero(t, result.Recipients)
	assert.Empty(t, mailer.sent)
}

func TestSendEventReminders(t *testing.T) {
	db := setupJobsTestDB(t)
	owner := createUser(t, db, "agenda@jetlex.test", true)
	createUser(t, db, "vacio@jetlex.test", true)
	now := time.Now()

	_, err := services.CreateEvent(db, services.EventInput{
		Title:    "Inspección de hangar",
		Type:     models.EventTypeInspeccion,
		StartsAt: now.Add(48 * time.Hour),
		EndsAt:   now.Add(50 * time.Hour),
	}, owner)
	require.NoError(t, err)

	mailer := &recordingMailer{}
	result, err := SendEventReminders(context.Background(), db, mailer, now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Recipients)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{owner.Email}, mailer.sent[0].To)

	mailer.fail = true
	result, err = SendEventReminders(context.Background(), db, mailer, now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
}

func TestRunWeeklyNewsletter(t *testing.T) {
	db := setupJobsTestDB(t)
	mailer := &recordingMailer{}
	cfg := testConfig()
	svc := services.NewNewsletterService(db, mailer, cfg.FrontendURL)
	_, err := svc.AddSubscriber("lector@aeroclub.com", "Lector")
	require.NoError(t, err)

	require.NoError(t, RunWeeklyNewsletter(context.Background(), db, cfg, mailer, time.Now()))
	assert.Len(t, mailer.sent, 1)

	newsletters, err := svc.ListNewsletters(10)
	require.NoError(t, err)
	require.Len(t, newsletters, 1)
	assert.Equal(t, models.NewsletterStatusEnviado, newsletters[0].Status)
}

func TestRunRegulatoryWatch(t *testing.T) {
	db := setupJobsTestDB(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<div class="noticia"><span class="titulo">Nuevo reglamento</span><span class="contenido">Texto</span></div>`))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.ANACNewsURL = srv.URL
	cfg.ScraperTimeout = time.Second

	result, err := RunRegulatoryWatch(context.Background(), db, cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
}

func TestStartScheduler(t *testing.T) {
	db := setupJobsTestDB(t)
	cfg := testConfig()
	cfg.ReminderSchedule = ""

	c, err := StartScheduler(db, cfg, &recordingMailer{})
	require.NoError(t, err)
	defer c.Stop()
	assert.Len(t, c.Entries(), 3)

	cfg.ScraperSchedule = "not a schedule"
	_, err = StartScheduler(db, cfg, &recordingMailer{})
	assert.Error(t, err)
}
