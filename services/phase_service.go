package services

import (
	"errors"
	"fmt"
	"jetlex_app_go/models"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// PhasePatch carries the caller-editable fields of a phase. Derived fields
// (progress, elapsed days, alert) are not part of it and are always recomputed.
type PhasePatch struct {
	Status       *string    `json:"estado"`
	Notes        *string    `json:"observaciones"`
	ReceivedDocs *[]string  `json:"documentosRecibidos"`
	ApprovedAt   *time.Time `json:"fechaAprobacion"`
}

// AlertedPhase is a phase needing attention, with enough case context for a dashboard
type AlertedPhase struct {
	models.Phase
	CaseNumber string `json:"numeroExpediente"`
	ClientID   string `json:"clienteId"`
}

// StartPhases creates the full phase set for a case from its procedure template.
// Either every phase is stored or none is.
func StartPhases(db *gorm.DB, caseID string, now time.Time) ([]models.Phase, error) {
	var phases []models.Phase

	err := db.Transaction(func(tx *gorm.DB) error {
		var c models.Case
		if err := tx.First(&c, "id = ?", caseID).Error; err != nil {
			return translateDBError(err, "case")
		}

		tpl, ok := TemplateFor(c.ProcedureType)
		if !ok {
			return Unsupported(fmt.Sprintf("procedure type %q does not support phases", c.ProcedureType))
		}

		var existing int64
		if err := tx.Model(&models.Phase{}).Where("expediente_id = ?", caseID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return Unsupported("case already has phases")
		}

		phases = make([]models.Phase, 0, len(tpl))
		for _, t := range tpl {
			phases = append(phases, models.Phase{
				CaseID:       caseID,
				Number:       t.Number,
				Name:         t.Name,
				Status:       models.PhaseStatusPendiente,
				StartDate:    now,
				RequiredDocs: models.StringList(t.RequiredDocs),
				ReceivedDocs: models.StringList{},
			})
		}
		if err := tx.Create(&phases).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return Unsupported("case already has phases")
			}
			return fmt.Errorf("failed to create phases: %w", err)
		}

		if c.Status == models.CaseStatusBorrador {
			if err := tx.Model(&c).Update("estado", models.CaseStatusEnProceso).Error; err != nil {
				return err
			}
		}
		return tx.Model(&c).UpdateColumn("progreso", 0).Error
	})
	if err != nil {
		return nil, err
	}
	return phases, nil
}

// ListPhases returns the phases of a case ordered by phase number
func ListPhases(db *gorm.DB, caseID string) ([]models.Phase, error) {
	var c models.Case
	if err := db.Select("id").First(&c, "id = ?", caseID).Error; err != nil {
		return nil, translateDBError(err, "case")
	}
	var phases []models.Phase
	err := db.Where("expediente_id = ?", caseID).Order("numero_fase ASC").Find(&phases).Error
	return phases, err
}

// GetPhaseByID loads a single phase
func GetPhaseByID(db *gorm.DB, id string) (*models.Phase, error) {
	var p models.Phase
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		return nil, translateDBError(err, "phase")
	}
	return &p, nil
}

// UpdatePhase applies a patch to a phase, re-derives progress, elapsed days
// and alert, then refreshes the owning case's progress.
func UpdatePhase(db *gorm.DB, phaseID string, patch PhasePatch, now time.Time) (*models.Phase, error) {
	var phase models.Phase
	var raised bool

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&phase, "id = ?", phaseID).Error; err != nil {
			return translateDBError(err, "phase")
		}
		wasAlerted := phase.AlertActive

		receivedChanged, err := ApplyPhasePatch(&phase, patch, now)
		if err != nil {
			return err
		}
		RecomputePhase(&phase, receivedChanged, now)
		raised = phase.AlertActive && !wasAlerted

		if err := tx.Save(&phase).Error; err != nil {
			return fmt.Errorf("failed to save phase: %w", err)
		}
		_, err = RecomputeCaseProgress(tx, phase.CaseID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if raised {
		onPhaseAlertRaised(db, &phase)
	}
	return &phase, nil
}

// ApplyPhasePatch copies caller-supplied fields onto the phase. It reports
// whether the received document list was part of the patch.
func ApplyPhasePatch(phase *models.Phase, patch PhasePatch, now time.Time) (bool, error) {
	if patch.Status != nil {
		next := *patch.Status
		if !models.IsValidPhaseStatus(next) {
			return false, Validation("estado", "invalid phase status")
		}
		if !models.CanTransitionPhase(phase.Status, next) {
			return false, Validation("estado", fmt.Sprintf("cannot move phase from %s to %s", phase.Status, next))
		}
		if next == models.PhaseStatusAprobada && phase.Status != models.PhaseStatusAprobada {
			approvedAt := now
			phase.ApprovedAt = &approvedAt
		}
		phase.Status = next
	}

	if patch.ApprovedAt != nil {
		if !phase.IsApproved() {
			return false, Validation("fechaAprobacion", "only an approved phase has an approval date")
		}
		phase.ApprovedAt = patch.ApprovedAt
	}

	if patch.Notes != nil {
		phase.Notes = strings.TrimSpace(*patch.Notes)
	}

	if patch.ReceivedDocs == nil {
		return false, nil
	}
	received := models.StringList{}
	seen := make(map[string]bool)
	for _, doc := range *patch.ReceivedDocs {
		doc = strings.TrimSpace(doc)
		if doc == "" || seen[doc] {
			continue
		}
		if !phase.RequiredDocs.Contains(doc) {
			return false, Validation("documentosRecibidos", fmt.Sprintf("%q is not a required document of this phase", doc))
		}
		seen[doc] = true
		received = append(received, doc)
	}
	phase.ReceivedDocs = received
	return true, nil
}

// RecomputePhase derives progress, elapsed days and alert state. It does no I/O.
func RecomputePhase(phase *models.Phase, receivedChanged bool, now time.Time) {
	if receivedChanged {
		phase.Progress = CompletionPercent(len(phase.ReceivedDocs), len(phase.RequiredDocs))
	}

	phase.ElapsedDays = ElapsedDays(phase.StartDate, now)

	switch {
	case phase.IsApproved():
		phase.AlertActive = false
	case phase.ElapsedDays > models.PhaseAlertThresholdDays:
		phase.AlertActive = true
	}
}

// CompletionPercent returns round(received/required*100), or 0 when nothing is required
func CompletionPercent(received, required int) int {
	if required <= 0 {
		return 0
	}
	return clampPercent(int(math.Round(float64(received) / float64(required) * 100)))
}

// ElapsedDays returns the number of whole days between start and now
func ElapsedDays(start, now time.Time) int {
	if now.Before(start) {
		return 0
	}
	return int(now.Sub(start) / (24 * time.Hour))
}

// ListAlertedPhases returns phases that are alerted, stale or observed
func ListAlertedPhases(db *gorm.DB) ([]AlertedPhase, error) {
	var rows []AlertedPhase
	err := db.Model(&models.Phase{}).
		Select("fases.*, expedientes.numero AS case_number, expedientes.cliente_id AS client_id").
		Joins("JOIN expedientes ON expedientes.id = fases.expediente_id AND expedientes.deleted_at IS NULL").
		Where("fases.alerta_activa = ? OR fases.dias_transcurridos > ? OR fases.estado = ?",
			true, models.PhaseAlertThresholdDays, models.PhaseStatusObservada).
		Order("fases.dias_transcurridos DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list alerted phases: %w", err)
	}
	return rows, nil
}

// RefreshPhaseAlerts re-derives elapsed days and alerts for every phase that
// is not approved, so stale phases surface without anyone touching them.
// It returns the phases whose alert was newly raised.
func RefreshPhaseAlerts(db *gorm.DB, now time.Time) ([]models.Phase, error) {
	var phases []models.Phase
	if err := db.Where("estado <> ?", models.PhaseStatusAprobada).Find(&phases).Error; err != nil {
		return nil, fmt.Errorf("failed to load phases: %w", err)
	}

	var raised []models.Phase
	for i := range phases {
		p := &phases[i]
		wasAlerted := p.AlertActive
		prevDays := p.ElapsedDays
		RecomputePhase(p, false, now)
		if p.AlertActive == wasAlerted && p.ElapsedDays == prevDays {
			continue
		}
		if err := db.Model(p).UpdateColumns(map[string]interface{}{
			"dias_transcurridos": p.ElapsedDays,
			"alerta_activa":      p.AlertActive,
		}).Error; err != nil {
			log.Error().Err(err).Str("component", "phases").Str("phase_id", p.ID).Msg("failed to refresh phase")
			continue
		}
		if p.AlertActive && !wasAlerted {
			onPhaseAlertRaised(db, p)
			raised = append(raised, *p)
		}
	}
	return raised, nil
}

// onPhaseAlertRaised records a notification for the case assignee
func onPhaseAlertRaised(db *gorm.DB, phase *models.Phase) {
	phaseAlertsRaisedTotal.Inc()

	var c models.Case
	if err := db.Select("id", "numero", "responsable_id").First(&c, "id = ?", phase.CaseID).Error; err != nil {
		log.Warn().Err(err).Str("component", "phases").Str("phase_id", phase.ID).Msg("alert raised for phase without case")
		return
	}
	if err := NewNotificationService(db).NotifyPhaseAlert(&c, phase); err != nil {
		log.Error().Err(err).Str("component", "phases").Str("case", c.Number).Msg("failed to create phase alert notification")
	}
}
