package services

import (
	"errors"
	"fmt"
	"jetlex_app_go/models"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const caseCounterName = "expediente"

// FormatCaseNumber renders a case number
// Format: EXP-{YEAR}-{SEQUENCE}
// Example: EXP-2026-0042
func FormatCaseNumber(year int, sequence int64) string {
	return fmt.Sprintf("EXP-%d-%04d", year, sequence)
}

// NextCaseNumber reserves the next case number. It must be called with the
// transaction that inserts the case so a rollback leaves no gap in the
// committed numbers. The sequence is global and does not restart with the year.
func NextCaseNumber(tx *gorm.DB, now time.Time) (string, error) {
	if err := ensureCaseCounter(tx); err != nil {
		return "", err
	}

	// Bump first so SQLite takes the write lock before anything is read
	if err := tx.Model(&models.CaseCounter{}).
		Where("name = ?", caseCounterName).
		UpdateColumn("value", gorm.Expr("value + 1")).Error; err != nil {
		return "", fmt.Errorf("failed to increment case counter: %w", err)
	}

	var counter models.CaseCounter
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&counter, "name = ?", caseCounterName).Error; err != nil {
		return "", fmt.Errorf("failed to read case counter: %w", err)
	}

	return FormatCaseNumber(now.Year(), counter.Value), nil
}

// ensureCaseCounter creates the counter row on first use, seeded with the
// number of cases already stored
func ensureCaseCounter(tx *gorm.DB) error {
	var counter models.CaseCounter
	err := tx.First(&counter, "name = ?", caseCounterName).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to read case counter: %w", err)
	}

	var existing int64
	if err := tx.Unscoped().Model(&models.Case{}).Count(&existing).Error; err != nil {
		return fmt.Errorf("failed to count cases: %w", err)
	}

	counter = models.CaseCounter{Name: caseCounterName, Value: existing}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&counter).Error
}
