package services

import (
	appdb "jetlex_app_go/db"
	"jetlex_app_go/models"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupServiceTestDB opens an isolated in-memory database with every model migrated
func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:svc_" + uuid.New().String() + "?mode=memory&cache=shared&_busy_timeout=5000"
	db, err := gorm.Open(appdb.SQLiteDialector(dsn), &gorm.Config{
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

func createTestUser(t *testing.T, db *gorm.DB, role string) *models.User {
	t.Helper()
	u := &models.User{
		Name:     "User " + role,
		Email:    uuid.New().String()[:8] + "@jetlex.test",
		Password: "x",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createTestClient(t *testing.T, db *gorm.DB, name string) *models.Client {
	t.Helper()
	c := &models.Client{Name: name, Type: models.ClientTypeEmpresa, Active: true}
	require.NoError(t, db.Create(c).Error)
	return c
}

func createTestCase(t *testing.T, db *gorm.DB, procedureType string) (*models.Case, *models.User) {
	t.Helper()
	user := createTestUser(t, db, models.RoleAdmin)
	client := createTestClient(t, db, "Cliente "+procedureType)
	c, err := CreateCase(db, CaseInput{ProcedureType: procedureType, ClientID: client.ID}, user, time.Now())
	require.NoError(t, err)
	return c, user
}
