package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"jetlex_app_go/config"
	"jetlex_app_go/db"
	"jetlex_app_go/middleware"
	"jetlex_app_go/models"
	"jetlex_app_go/services"
	"jetlex_app_go/services/osint"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "handler-test-secret-long-enough-for-hs256"

type recordingMailer struct {
	mu   sync.Mutex
	sent []*services.Email
}

func (m *recordingMailer) Send(ctx context.Context, email *services.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, email)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type stubLLM struct{}

func (stubLLM) Complete(ctx context.Context, req osint.CompletionRequest) (*osint.Completion, error) {
	return &osint.Completion{Text: "Sin hallazgos relevantes", Usage: osint.Usage{TotalTokens: 7}}, nil
}

type testServer struct {
	e      *echo.Echo
	db     *gorm.DB
	cfg    *config.Config
	mailer *recordingMailer
	tokens *services.TokenIssuer
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Unique shared memory name isolates tests while letting async audit writes reach the same database
	dsn := "file:handlers_" + uuid.New().String() + "?mode=memory&cache=shared&_busy_timeout=5000"
	testDB, err := gorm.Open(db.SQLiteDialector(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, testDB.AutoMigrate(models.All()...))

	// Set global DB
	db.DB = testDB
	return testDB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	testDB := setupTestDB(t)
	cfg := &config.Config{
		Environment:   "test",
		FrontendURL:   "http://localhost:3000",
		InvitePIN:     "246810",
		EmailFrom:     "noreply@jetlex.test",
		EmailFromName: "Jetlex",
	}
	mailer := &recordingMailer{}
	tokens := services.NewTokenIssuer(testSecret, time.Hour)

	Setup(Deps{
		Storage: services.NewLocalStorage(t.TempDir()),
		Mailer:  mailer,
		Tokens:  tokens,
		OSINT:   osint.NewService(testDB, stubLLM{}, time.Second),
	})

	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	RegisterRoutes(e, cfg)
	return &testServer{e: e, db: testDB, cfg: cfg, mailer: mailer, tokens: tokens}
}

func (s *testServer) createUser(t *testing.T, role string) (*models.User, string) {
	t.Helper()
	hash, err := services.HashPassword("Hangar2024x")
	require.NoError(t, err)
	user := &models.User{
		Name:          "Usuario " + role,
		Email:         uuid.New().String()[:8] + "@jetlex.test",
		Password:      hash,
		Role:          role,
		IsActive:      true,
		Notifications: true,
	}
	require.NoError(t, s.db.Create(user).Error)
	token, err := s.tokens.Issue(user, time.Now())
	require.NoError(t, err)
	return user, token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func (s *testServer) createClient(t *testing.T, token string) map[string]interface{} {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/clientes", token, map[string]interface{}{
		"nombre": "Aeroclub " + uuid.New().String()[:6],
		"tipo":   models.ClientTypeAeroclub,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var client map[string]interface{}
	decode(t, rec, &client)
	return client
}
