package jobs

import (
	"context"
	"jetlex_app_go/config"
	"jetlex_app_go/models"
	"jetlex_app_go/services"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// DigestResult reports how many digests a reminder job handed to the mailer
type DigestResult struct {
	Raised     int `json:"raised"`
	Recipients int `json:"recipients"`
	Failed     int `json:"failed"`
}

// RefreshPhaseAlerts re-derives phase alerts and emails each case assignee a
// digest of their delayed phases
func RefreshPhaseAlerts(ctx context.Context, database *gorm.DB, cfg *config.Config, mailer services.Mailer, now time.Time) (*DigestResult, error) {
	logger := log.With().Str("component", "job").Str("job", "phase_alerts").Logger()
	result := &DigestResult{}

	raised, err := services.RefreshPhaseAlerts(database, now)
	if err != nil {
		logger.Error().Err(err).Msg("failed to refresh phase alerts")
		return result, err
	}
	result.Raised = len(raised)

	alerted, err := services.ListAlertedPhases(database)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list alerted phases")
		return result, err
	}
	if len(alerted) == 0 {
		logger.Info().Msg("no delayed phases")
		return result, nil
	}

	caseIDs := make([]string, 0, len(alerted))
	for _, p := range alerted {
		caseIDs = append(caseIDs, p.CaseID)
	}
	var cases []models.Case
	if err := database.Select("id", "responsable_id").Where("id IN ?", caseIDs).Find(&cases).Error; err != nil {
		logger.Error().Err(err).Msg("failed to load case assignees")
		return result, err
	}
	assigneeOf := make(map[string]string, len(cases))
	for _, c := range cases {
		assigneeOf[c.ID] = c.AssigneeID
	}

	byUser := map[string][]services.AlertedPhase{}
	for _, p := range alerted {
		if userID := assigneeOf[p.CaseID]; userID != "" {
			byUser[userID] = append(byUser[userID], p)
		}
	}

	for userID, phases := range byUser {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		user, ok := notifiableUser(database, userID)
		if !ok {
			continue
		}
		email, err := services.BuildPhaseAlertDigestEmail(user, phases, cfg.FrontendURL)
		if err == nil {
			err = mailer.Send(ctx, email)
		}
		if err != nil {
			logger.Error().Err(err).Str("user_id", userID).Msg("failed to send phase alert digest")
			result.Failed++
			continue
		}
		result.Recipients++
	}

	logger.Info().
		Int("raised", result.Raised).
		Int("recipients", result.Recipients).
		Int("failed", result.Failed).
		Msg("phase alert job completed")
	return result, nil
}

// SendEventReminders emails every active user the programmed events of their coming week
func SendEventReminders(ctx context.Context, database *gorm.DB, mailer services.Mailer, now time.Time) (*DigestResult, error) {
	logger := log.With().Str("component", "job").Str("job", "event_reminders").Logger()
	result := &DigestResult{}

	var users []models.User
	if err := database.Where("is_active = ? AND notifications = ?", true, true).Find(&users).Error; err != nil {
		logger.Error().Err(err).Msg("failed to load users for reminders")
		return result, err
	}

	for i := range users {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		user := &users[i]
		events, err := services.UpcomingReminders(database, now, user.ID)
		if err != nil {
			logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to load upcoming events")
			result.Failed++
			continue
		}
		if len(events) == 0 {
			continue
		}

		email, err := services.BuildEventReminderEmail(user, events)
		if err == nil {
			err = mailer.Send(ctx, email)
		}
		if err != nil {
			logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to send event reminders")
			result.Failed++
			continue
		}
		result.Recipients++
	}

	logger.Info().Int("recipients", result.Recipients).Int("failed", result.Failed).Msg("event reminder job completed")
	return result, nil
}

func notifiableUser(database *gorm.DB, userID string) (*models.User, bool) {
	var user models.User
	if err := database.First(&user, "id = ?", userID).Error; err != nil {
		log.Warn().Err(err).Str("component", "job").Str("user_id", userID).Msg("digest recipient not found")
		return nil, false
	}
	return &user, user.IsActive && user.Notifications
}
