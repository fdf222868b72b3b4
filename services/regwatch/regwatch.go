package regwatch

import (
	"context"
	"jetlex_app_go/models"
	"jetlex_app_go/services"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	redKeywords    = []string{"urgente", "suspensión", "prohibición", "emergencia"}
	yellowKeywords = []string{"certificación", "resolución", "cambio", "modificación", "nuevo"}
)

// Notifier announces newly stored alerts outside the application
type Notifier interface {
	AnnounceAlert(ctx context.Context, alert *models.MonitoringAlert) error
}

// Result summarises one pass of the watch over its sources
type Result struct {
	Fetched int `json:"fetched"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// ClassifyPriority derives an alert priority from keywords in the title.
// Red keywords win over yellow ones; anything else is green.
func ClassifyPriority(title string) string {
	lower := strings.ToLower(title)
	for _, k := range redKeywords {
		if strings.Contains(lower, k) {
			return models.PriorityRojo
		}
	}
	for _, k := range yellowKeywords {
		if strings.Contains(lower, k) {
			return models.PriorityAmarillo
		}
	}
	return models.PriorityVerde
}

// Run reads every source and stores the items not seen before. A failing source
// or item is logged and skipped; the pass itself only fails when ctx is cancelled.
func Run(ctx context.Context, db *gorm.DB, sources []Source, notifier Notifier) (*Result, error) {
	logger := log.With().Str("component", "scraper").Logger()
	result := &Result{}

	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		items, err := source.Fetch(ctx)
		if err != nil {
			logger.Error().Err(err).Str("source", source.Name()).Msg("failed to fetch source")
			result.Failed++
			continue
		}
		result.Fetched += len(items)

		for _, item := range items {
			alert, err := storeItem(db, source.Name(), item)
			if err != nil {
				logger.Error().Err(err).Str("source", source.Name()).Str("title", item.Title).Msg("failed to store item")
				result.Failed++
				continue
			}
			if alert == nil {
				result.Skipped++
				continue
			}
			result.Created++

			if notifier != nil && alert.Priority == models.PriorityRojo {
				if err := notifier.AnnounceAlert(ctx, alert); err != nil {
					logger.Warn().Err(err).Str("alert_id", alert.ID).Msg("failed to announce alert")
				}
			}
		}
	}

	logger.Info().
		Int("fetched", result.Fetched).
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("regulatory watch finished")
	return result, nil
}

// storeItem returns a nil alert when the item is already known
func storeItem(db *gorm.DB, source string, item Item) (*models.MonitoringAlert, error) {
	exists, err := services.ExistsMonitoringAlert(db, item.Title, source)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	input := services.MonitoringAlertInput{
		Source:   source,
		Title:    item.Title,
		Content:  item.Content,
		Priority: ClassifyPriority(item.Title),
		Tags:     []string{"scraper"},
	}
	if item.URL != "" {
		u := item.URL
		input.URL = &u
	}

	alert, err := services.CreateMonitoringAlert(db, input, time.Now())
	if services.KindOf(err) == services.KindConflict {
		// Stored by a concurrent pass between the check and the insert
		return nil, nil
	}
	return alert, err
}
