package jobs

import (
	"context"
	"fmt"
	"jetlex_app_go/config"
	"jetlex_app_go/services"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// jobTimeout bounds a single scheduled run
const jobTimeout = 10 * time.Minute

// StartScheduler registers every background job and starts the cron runner.
// The caller stops it on shutdown.
func StartScheduler(database *gorm.DB, cfg *config.Config, mailer services.Mailer) (*cron.Cron, error) {
	logger := log.With().Str("component", "cron").Logger()
	c := cron.New(
		cron.WithLocation(cfg.Location()),
		cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
	)

	jobs := []struct {
		name     string
		schedule string
		run      func(ctx context.Context)
	}{
		{"regulatory_watch", cfg.ScraperSchedule, func(ctx context.Context) {
			RunRegulatoryWatch(ctx, database, cfg)
		}},
		{"weekly_newsletter", cfg.NewsletterSchedule, func(ctx context.Context) {
			RunWeeklyNewsletter(ctx, database, cfg, mailer, time.Now())
		}},
		{"phase_alerts", cfg.PhaseAlertSchedule, func(ctx context.Context) {
			RefreshPhaseAlerts(ctx, database, cfg, mailer, time.Now())
		}},
		{"event_reminders", cfg.ReminderSchedule, func(ctx context.Context) {
			SendEventReminders(ctx, database, mailer, time.Now())
		}},
		{"reset_token_cleanup", cfg.CleanupSchedule, func(ctx context.Context) {
			if _, err := services.CleanupExpiredTokens(database.WithContext(ctx), time.Now()); err != nil {
				logger.Error().Err(err).Msg("failed to clean up reset tokens")
			}
		}},
	}

	for _, job := range jobs {
		job := job
		if job.schedule == "" {
			logger.Info().Str("job", job.name).Msg("job disabled, no schedule")
			continue
		}
		_, err := c.AddFunc(job.schedule, func() {
			logger.Info().Str("job", job.name).Msg("running scheduled job")
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			job.run(ctx)
		})
		if err != nil {
			return nil, fmt.Errorf("schedule %s (%q): %w", job.name, job.schedule, err)
		}
	}

	c.Start()
	logger.Info().Int("jobs", len(c.Entries())).Str("timezone", cfg.Timezone).Msg("scheduler started")
	return c, nil
}

// cronLogger adapts zerolog to the cron.Logger interface
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Str("component", "cron").Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Str("component", "cron").Err(err).Fields(keysAndValues).Msg(msg)
}
