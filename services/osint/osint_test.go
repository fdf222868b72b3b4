package osint

import (
	"context"
	"errors"
	"jetlex_app_go/models"
	"jetlex_app_go/services"
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

type fakeLLM struct {
	mu       sync.Mutex
	calls    []CompletionRequest
	err      error
	answer   string
	blocking bool
}

func (f *fakeLLM) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.blocking {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &Completion{Text: "  " + f.answer + "\n", Usage: Usage{TotalTokens: 42}}, nil
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func setupTestDB(t *testing.T) (*gorm.DB, *models.User) {
	t.Helper()
	dsn := "file:osint_" + uuid.New().String() + "?mode=memory&cache=shared&_busy_timeout=5000"
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

	user := &models.User{Name: "Analista", Email: uuid.New().String()[:8] + "@jetlex.test", Password: "x", Role: models.RoleColaboradorA, IsActive: true}
	require.NoError(t, db.Create(user).Error)
	return db, user
}

func TestGenerate_Success(t *testing.T) {
	db, user := setupTestDB(t)
	llm := &fakeLLM{answer: "Informe"}
	svc := NewService(db, llm, time.Second)

	report, err := svc.Generate(context.Background(), "  drones en Argentina ", nil, Options{}, user)
	require.NoError(t, err)
	assert.False(t, report.Partial)
	assert.Equal(t, "drones en Argentina", report.Query)
	require.Len(t, report.Results, 1)
	require.NotNil(t, report.Results[0].Data)
	assert.Equal(t, "Informe", *report.Results[0].Data)
	assert.Equal(t, 42, report.Results[0].Usage.TotalTokens)

	require.Len(t, llm.calls, 1)
	assert.Equal(t, DefaultMaxTokens, llm.calls[0].MaxTokens)
	assert.InDelta(t, 0.7, llm.calls[0].Temperature, 0.001)
	assert.Contains(t, llm.calls[0].Prompt, "drones en Argentina")
}

func TestGenerate_DegradesOnSourceFailure(t *testing.T) {
	db, user := setupTestDB(t)
	svc := NewService(db, &fakeLLM{err: errors.New("rate limited")}, time.Second)

	report, err := svc.Generate(context.Background(), "consulta", []string{SourceOpenAI, "shodan"}, Options{MaxTokens: 100}, user)
	require.NoError(t, err)
	assert.True(t, report.Partial)
	require.Len(t, report.Results, 2)
	assert.Nil(t, report.Results[0].Data)
	assert.NotEmpty(t, report.Results[0].Error)
	assert.Equal(t, "shodan", report.Results[1].Source)
	assert.Equal(t, "unknown source", report.Results[1].Error)

	var stored models.OSINTReport
	require.NoError(t, db.First(&stored, "id = ?", report.ID).Error)
	assert.True(t, stored.Partial)
}

func TestGenerate_TimesOut(t *testing.T) {
	db, user := setupTestDB(t)
	svc := NewService(db, &fakeLLM{blocking: true}, 20*time.Millisecond)

	report, err := svc.Generate(context.Background(), "consulta", nil, Options{}, user)
	require.NoError(t, err)
	assert.True(t, report.Partial)
	assert.Equal(t, "source timed out", report.Results[0].Error)
}

func TestGenerate_NotConfigured(t *testing.T) {
	db, user := setupTestDB(t)
	svc := NewService(db, nil, 0)

	report, err := svc.Generate(context.Background(), "consulta", nil, Options{}, user)
	require.NoError(t, err)
	assert.True(t, report.Partial)
	assert.Equal(t, "source not configured", report.Results[0].Error)
}

func TestGenerate_EmptyQuery(t *testing.T) {
	db, user := setupTestDB(t)
	svc := NewService(db, &fakeLLM{}, time.Second)

	_, err := svc.Generate(context.Background(), "   ", nil, Options{}, user)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestQuickSearch_UsesCache(t *testing.T) {
	db, _ := setupTestDB(t)
	llm := &fakeLLM{answer: "Respuesta"}
	svc := NewService(db, llm, time.Second)

	first, err := svc.QuickSearch(context.Background(), "RAAC 91")
	require.NoError(t, err)
	second, err := svc.QuickSearch(context.Background(), "raac 91")
	require.NoError(t, err)

	assert.Equal(t, 1, llm.callCount())
	assert.Equal(t, QuickSearchMaxTokens, llm.calls[0].MaxTokens)
	assert.Equal(t, *first.Data, *second.Data)
}

func TestQuickSearch_FailuresNotCached(t *testing.T) {
	db, _ := setupTestDB(t)
	llm := &fakeLLM{err: errors.New("boom")}
	svc := NewService(db, llm, time.Second)

	for i := 0; i < 2; i++ {
		result, err := svc.QuickSearch(context.Background(), "RAAC 91")
		require.NoError(t, err)
		assert.NotEmpty(t, result.Error)
	}
	assert.Equal(t, 2, llm.callCount())
}

func TestHistory_LimitedToUser(t *testing.T) {
	db, user := setupTestDB(t)
	other := &models.User{Name: "Otro", Email: "otro@jetlex.test", Password: "x", Role: models.RoleAdmin, IsActive: true}
	require.NoError(t, db.Create(other).Error)

	svc := NewService(db, &fakeLLM{answer: "ok"}, time.Second)
	for i := 0; i < HistoryLimit+2; i++ {
		_, err := svc.Generate(context.Background(), "consulta", nil, Options{}, user)
		require.NoError(t, err)
	}
	_, err := svc.Generate(context.Background(), "ajena", nil, Options{}, other)
	require.NoError(t, err)

	history, err := svc.History(user.ID)
	require.NoError(t, err)
	assert.Len(t, history, HistoryLimit)
	for _, r := range history {
		assert.Equal(t, user.ID, r.GeneratedByID)
		require.Len(t, r.Results, 1)
	}
}
