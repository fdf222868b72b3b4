package jobs

import (
	"context"
	"jetlex_app_go/config"
	"jetlex_app_go/services"
	"jetlex_app_go/services/regwatch"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// RunRegulatoryWatch scrapes the configured regulator sources once
func RunRegulatoryWatch(ctx context.Context, database *gorm.DB, cfg *config.Config) (*regwatch.Result, error) {
	sources := []regwatch.Source{regwatch.NewANACSource(cfg.ANACNewsURL, cfg.ScraperTimeout)}
	result, err := regwatch.Run(ctx, database, sources, regwatch.NewSlackNotifier(cfg.SlackWebhookURL))
	if err != nil {
		log.Error().Err(err).Str("component", "job").Msg("regulatory watch interrupted")
	}
	return result, err
}

// RunWeeklyNewsletter generates this week's newsletter and sends it to every active subscriber
func RunWeeklyNewsletter(ctx context.Context, database *gorm.DB, cfg *config.Config, mailer services.Mailer, now time.Time) error {
	logger := log.With().Str("component", "job").Str("job", "weekly_newsletter").Logger()
	svc := services.NewNewsletterService(database, mailer, cfg.FrontendURL)

	newsletter, err := svc.Generate(now)
	if err != nil {
		logger.Error().Err(err).Msg("failed to generate newsletter")
		return err
	}

	sent, err := svc.Send(ctx, newsletter.ID, now)
	if err != nil {
		logger.Error().Err(err).Str("newsletter_id", newsletter.ID).Msg("failed to send newsletter")
		return err
	}
	logger.Info().
		Str("newsletter_id", sent.ID).
		Str("status", sent.Status).
		Int("sent", sent.SentCount).
		Msg("newsletter job completed")
	return nil
}
