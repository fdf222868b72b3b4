package regwatch

import (
	"context"
	"fmt"
	"jetlex_app_go/models"
	"net/http"
	"time"

	"github.com/slack-go/slack"
)

// SlackNotifier posts red alerts to an incoming webhook
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewSlackNotifier returns nil when no webhook is configured, so callers can pass it straight to Run
func NewSlackNotifier(webhookURL string) Notifier {
	if webhookURL == "" {
		return nil
	}
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// AnnounceAlert implements Notifier
func (n *SlackNotifier) AnnounceAlert(ctx context.Context, alert *models.MonitoringAlert) error {
	msg := &slack.WebhookMessage{
		Text:        fmt.Sprintf(":rotating_light: Nueva alerta regulatoria (%s)", alert.Source),
		Attachments: []slack.Attachment{alertAttachment(alert)},
	}
	if err := slack.PostWebhookCustomHTTPContext(ctx, n.webhookURL, n.client, msg); err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	return nil
}

func alertAttachment(alert *models.MonitoringAlert) slack.Attachment {
	att := slack.Attachment{
		Title:    alert.Title,
		Text:     truncateRunes(alert.Content, 500),
		Color:    "danger",
		Fallback: alert.Title,
		Fields: []slack.AttachmentField{
			{Title: "Fuente", Value: alert.Source, Short: true},
			{Title: "Prioridad", Value: alert.Priority, Short: true},
		},
	}
	if alert.URL != nil {
		att.TitleLink = *alert.URL
	}
	return att
}
