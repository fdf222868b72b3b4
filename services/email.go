package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"jetlex_app_go/config"
	"jetlex_app_go/models"
	"jetlex_app_go/templates/emails"
	"net/url"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog/log"
)

// Email represents an email message
type Email struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// Mailer delivers an email
type Mailer interface {
	Send(ctx context.Context, email *Email) error
}

// ResendMailer sends through the Resend API, or only logs in test mode
type ResendMailer struct {
	cfg *config.Config
}

func NewResendMailer(cfg *config.Config) *ResendMailer {
	return &ResendMailer{cfg: cfg}
}

func (m *ResendMailer) Send(ctx context.Context, email *Email) error {
	return SendEmailContext(ctx, m.cfg, email)
}

// emailTemplates is the filesystem templates are read from
var emailTemplates fs.FS = emails.FS

// loadTemplate renders <name>.html and <name>.txt with the same data
func loadTemplate(templateName string, data interface{}) (html string, text string, err error) {
	htmlSrc, err := fs.ReadFile(emailTemplates, templateName+".html")
	if err != nil {
		return "", "", fmt.Errorf("failed to read template %s.html: %w", templateName, err)
	}
	htmlTmpl, err := template.New(templateName + ".html").Parse(string(htmlSrc))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse template %s.html: %w", templateName, err)
	}
	var htmlBuf bytes.Buffer
	if err := htmlTmpl.Execute(&htmlBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s.html: %w", templateName, err)
	}

	// Plain text bodies are optional
	textSrc, err := fs.ReadFile(emailTemplates, templateName+".txt")
	if err != nil {
		return htmlBuf.String(), "", nil
	}
	textTmpl, err := texttemplate.New(templateName + ".txt").Parse(string(textSrc))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse template %s.txt: %w", templateName, err)
	}
	var textBuf bytes.Buffer
	if err := textTmpl.Execute(&textBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s.txt: %w", templateName, err)
	}
	return htmlBuf.String(), textBuf.String(), nil
}

// buildEmail renders a template into an email for one recipient
func buildEmail(templateName, subject string, data interface{}, toEmail string) (*Email, error) {
	htmlBody, textBody, err := loadTemplate(templateName, data)
	if err != nil {
		log.Error().Err(err).Str("template", templateName).Msg("failed to render email template")
		return nil, err
	}
	return &Email{
		To:       []string{toEmail},
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	}, nil
}

// SendEmail sends an email using Resend API
func SendEmail(cfg *config.Config, email *Email) error {
	return SendEmailContext(context.Background(), cfg, email)
}

// SendEmailContext is SendEmail bound to a context
func SendEmailContext(ctx context.Context, cfg *config.Config, email *Email) error {
	// In development mode, log the email instead of sending
	if cfg.EmailTestMode {
		logEmailToConsole(email)
		emailsSentTotal.WithLabelValues("logged").Inc()
		return nil
	}

	if cfg.ResendAPIKey == "" {
		return fmt.Errorf("RESEND_API_KEY not configured")
	}
	if email.HTMLBody == "" && email.TextBody == "" {
		return fmt.Errorf("email must have either HTMLBody or TextBody")
	}

	client := resend.NewClient(cfg.ResendAPIKey)
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", cfg.EmailFromName, cfg.EmailFrom),
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTMLBody,
		Text:    email.TextBody,
	}

	sent, err := client.Emails.SendWithContext(ctx, params)
	if err != nil {
		emailsSentTotal.WithLabelValues("failed").Inc()
		return DependencyFailure("email provider", err)
	}

	emailsSentTotal.WithLabelValues("sent").Inc()
	log.Info().Str("component", "email").Str("resend_id", sent.Id).Strs("to", email.To).Msg("email sent")
	return nil
}

// logEmailToConsole logs email details in development mode
func logEmailToConsole(email *Email) {
	log.Info().
		Str("component", "email").
		Strs("to", email.To).
		Str("subject", email.Subject).
		Str("text", truncate(email.TextBody, 500)).
		Msg("email logged (test mode, not sent)")
}

// truncate truncates a string to a maximum number of runes
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen])
}

// SendEmailAsync sends an email asynchronously using a goroutine
func SendEmailAsync(mailer Mailer, email *Email) {
	// Create a copy of the email to avoid race conditions
	emailCopy := &Email{
		To:       append([]string{}, email.To...),
		Subject:  email.Subject,
		HTMLBody: email.HTMLBody,
		TextBody: email.TextBody,
	}

	go func(email *Email) {
		if err := mailer.Send(context.Background(), email); err != nil {
			log.Error().Err(err).Strs("to", email.To).Msg("error sending async email")
		}
	}(emailCopy)
}

// WelcomeEmailData contains data for the welcome email template
type WelcomeEmailData struct {
	UserName string
	Role     string
	LoginURL string
}

// BuildWelcomeEmail creates a welcome email for new users
func BuildWelcomeEmail(user *models.User, frontendURL string) (*Email, error) {
	data := WelcomeEmailData{
		UserName: user.Name,
		Role:     user.Role,
		LoginURL: strings.TrimRight(frontendURL, "/") + "/login",
	}
	return buildEmail("welcome", "Bienvenido/a a Jetlex", data, user.Email)
}

// PhaseAlertDigestData contains data for the delayed phases digest
type PhaseAlertDigestData struct {
	UserName      string
	ThresholdDays int
	FrontendURL   string
	Phases        []AlertedPhase
}

// BuildPhaseAlertDigestEmail summarises delayed phases for one user
func BuildPhaseAlertDigestEmail(user *models.User, phases []AlertedPhase, frontendURL string) (*Email, error) {
	data := PhaseAlertDigestData{
		UserName:      user.Name,
		ThresholdDays: models.PhaseAlertThresholdDays,
		FrontendURL:   strings.TrimRight(frontendURL, "/"),
		Phases:        phases,
	}
	subject := fmt.Sprintf("Jetlex: %d fases demoradas", len(phases))
	return buildEmail("phase_alert_digest", subject, data, user.Email)
}

// EventReminderData contains data for the upcoming events email
type EventReminderData struct {
	UserName string
	Events   []models.Event
}

// BuildEventReminderEmail lists a user's events of the coming week
func BuildEventReminderEmail(user *models.User, events []models.Event) (*Email, error) {
	data := EventReminderData{UserName: user.Name, Events: events}
	subject := fmt.Sprintf("Jetlex: %d eventos próximos", len(events))
	return buildEmail("event_reminder", subject, data, user.Email)
}

// PasswordResetEmailData contains data for the password reset email
type PasswordResetEmailData struct {
	UserName   string
	ResetURL   string
	ValidHours int
}

// BuildPasswordResetEmail links the user to the reset form
func BuildPasswordResetEmail(user *models.User, token, frontendURL string) (*Email, error) {
	data := PasswordResetEmailData{
		UserName:   user.Name,
		ResetURL:   strings.TrimRight(frontendURL, "/") + "/reset-password?token=" + url.QueryEscape(token),
		ValidHours: int(ResetTokenExpiration / time.Hour),
	}
	return buildEmail("password_reset", "Jetlex: restablecer contraseña", data, user.Email)
}
