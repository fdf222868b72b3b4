package services

import (
	"jetlex_app_go/models"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestFormatCaseNumber(t *testing.T) {
	assert.Equal(t, "EXP-2026-0001", FormatCaseNumber(2026, 1))
	assert.Equal(t, "EXP-2026-0042", FormatCaseNumber(2026, 42))
	assert.Equal(t, "EXP-2027-12345", FormatCaseNumber(2027, 12345))
}

func TestNextCaseNumber(t *testing.T) {
	t.Run("Sequence starts after existing cases", func(t *testing.T) {
		db := setupServiceTestDB(t)
		user := createTestUser(t, db, models.RoleAdmin)
		client := createTestClient(t, db, "Legacy")
		for i, n := range []string{"EXP-2024-0001", "EXP-2024-0002"} {
			require.NoError(t, db.Create(&models.Case{
				Number:        n,
				ProcedureType: models.ProcedureTransferencia,
				ClientID:      client.ID,
				AssigneeID:    user.ID,
				StartDate:     time.Now().AddDate(0, 0, -i),
			}).Error)
		}

		var number string
		err := db.Transaction(func(tx *gorm.DB) error {
			var err error
			number, err = NextCaseNumber(tx, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, "EXP-2026-0003", number)
	})

	t.Run("Sequence does not reset with the year", func(t *testing.T) {
		db := setupServiceTestDB(t)
		var numbers []string
		for _, year := range []int{2025, 2025, 2026} {
			err := db.Transaction(func(tx *gorm.DB) error {
				n, err := NextCaseNumber(tx, time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC))
				numbers = append(numbers, n)
				return err
			})
			require.NoError(t, err)
		}
		assert.Equal(t, []string{"EXP-2025-0001", "EXP-2025-0002", "EXP-2026-0003"}, numbers)
	})

	t.Run("Rolled back reservations are reused", func(t *testing.T) {
		db := setupServiceTestDB(t)
		_ = db.Transaction(func(tx *gorm.DB) error {
			_, err := NextCaseNumber(tx, time.Now())
			require.NoError(t, err)
			return gorm.ErrInvalidTransaction
		})
		var number string
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			var err error
			number, err = NextCaseNumber(tx, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
			return err
		}))
		assert.Equal(t, "EXP-2026-0001", number)
	})
}

func TestCreateCaseConcurrentNumbering(t *testing.T) {
	db := setupServiceTestDB(t)
	user := createTestUser(t, db, models.RoleAdmin)
	client := createTestClient(t, db, "Concurrente SA")

	const workers = 20
	var wg sync.WaitGroup
	numbers := make(chan string, workers)
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := CreateCase(db, CaseInput{
				ProcedureType: models.ProcedureMatriculacion,
				ClientID:      client.ID,
			}, user, time.Now())
			if err != nil {
				errs <- err
				return
			}
			numbers <- c.Number
		}()
	}
	wg.Wait()
	close(numbers)
	close(errs)

	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[string]bool)
	for n := range numbers {
		assert.False(t, seen[n], "duplicate case number %s", n)
		seen[n] = true
	}
	assert.Len(t, seen, workers)

	var count int64
	db.Model(&models.Case{}).Count(&count)
	assert.Equal(t, int64(workers), count)
}
