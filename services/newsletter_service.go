package services

import (
	"context"
	"errors"
	"fmt"
	"jetlex_app_go/models"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	newsletterWindow        = 7 * 24 * time.Hour
	newsletterMaxAlerts     = 5
	newsletterMaxResearch   = 3
	newsletterExcerptLength = 200
	newsletterTip           = "Las certificaciones CESA requieren demostrar capacidad financiera actualizada trimestralmente."
)

// NewsletterAlert is an alert as shown in the newsletter
type NewsletterAlert struct {
	Title      string
	Content    string
	Source     string
	Priority   string
	DetectedAt time.Time
	URL        string
}

// NewsletterResearch is a research teaser as shown in the newsletter
type NewsletterResearch struct {
	Title   string
	Excerpt string
	Link    string
}

// NewsletterData is the template data of a weekly newsletter
type NewsletterData struct {
	Title    string
	Alerts   []NewsletterAlert
	Research []NewsletterResearch
	Tip      string
}

// NewsletterService builds and delivers the weekly newsletter
type NewsletterService struct {
	DB          *gorm.DB
	Mailer      Mailer
	FrontendURL string
}

func NewNewsletterService(db *gorm.DB, mailer Mailer, frontendURL string) *NewsletterService {
	return &NewsletterService{DB: db, Mailer: mailer, FrontendURL: strings.TrimRight(frontendURL, "/")}
}

// excerpt cuts text to n runes, adding an ellipsis when shortened
func excerpt(text string, n int) string {
	text = strings.TrimSpace(text)
	if len([]rune(text)) <= n {
		return text
	}
	return truncate(text, n) + "..."
}

// Collect gathers the week's content without storing anything
func (s *NewsletterService) Collect(now time.Time) (*NewsletterData, error) {
	since := now.Add(-newsletterWindow)

	alerts, err := RecentAlertsForDigest(s.DB, since, newsletterMaxAlerts)
	if err != nil {
		return nil, fmt.Errorf("failed to load alerts: %w", err)
	}
	research, err := RecentPublishedResearch(s.DB, since, newsletterMaxResearch)
	if err != nil {
		return nil, fmt.Errorf("failed to load research: %w", err)
	}

	data := &NewsletterData{
		Title: "ANAC Intelligence - Semana " + now.Format("02/01/2006"),
		Tip:   newsletterTip,
	}
	for _, a := range alerts {
		item := NewsletterAlert{
			Title:      a.Title,
			Content:    excerpt(a.Content, newsletterExcerptLength),
			Source:     a.Source,
			Priority:   a.Priority,
			DetectedAt: a.DetectedAt,
		}
		if a.URL != nil {
			item.URL = *a.URL
		}
		data.Alerts = append(data.Alerts, item)
	}
	for _, r := range research {
		data.Research = append(data.Research, NewsletterResearch{
			Title:   r.Title,
			Excerpt: excerpt(r.Content, newsletterExcerptLength),
			Link:    s.FrontendURL + "/research/" + r.ID,
		})
	}
	return data, nil
}

// Generate renders the week's newsletter and stores it as a draft
func (s *NewsletterService) Generate(now time.Time) (*models.Newsletter, error) {
	data, err := s.Collect(now)
	if err != nil {
		return nil, err
	}
	html, text, err := loadTemplate("newsletter", data)
	if err != nil {
		return nil, err
	}

	newsletter := &models.Newsletter{
		Title:       data.Title,
		HTMLContent: html,
		TextContent: text,
		Status:      models.NewsletterStatusBorrador,
	}
	if err := s.DB.Create(newsletter).Error; err != nil {
		return nil, err
	}
	log.Info().Str("component", "newsletter").Str("id", newsletter.ID).
		Int("alerts", len(data.Alerts)).Int("research", len(data.Research)).Msg("newsletter generated")
	return newsletter, nil
}

// Send delivers a newsletter to every active subscriber.
// A failed recipient is logged and skipped; the newsletter ends in error only if nobody got it.
func (s *NewsletterService) Send(ctx context.Context, newsletterID string, now time.Time) (*models.Newsletter, error) {
	var newsletter models.Newsletter
	if err := s.DB.First(&newsletter, "id = ?", newsletterID).Error; err != nil {
		return nil, translateDBError(err, "newsletter")
	}
	if newsletter.Status == models.NewsletterStatusEnviado {
		return nil, Unsupported("newsletter was already sent")
	}

	var subscribers []models.Subscriber
	if err := s.DB.Where("activo = ?", true).Find(&subscribers).Error; err != nil {
		return nil, err
	}

	sent := 0
	for _, sub := range subscribers {
		if err := ctx.Err(); err != nil {
			log.Warn().Err(err).Str("component", "newsletter").Msg("newsletter delivery interrupted")
			break
		}
		email := &Email{
			To:       []string{sub.Email},
			Subject:  newsletter.Title,
			HTMLBody: newsletter.HTMLContent,
			TextBody: newsletter.TextContent,
		}
		if err := s.Mailer.Send(ctx, email); err != nil {
			log.Error().Err(err).Str("component", "newsletter").Str("subscriber", sub.Email).Msg("failed to send newsletter")
			continue
		}
		sent++
	}

	status := models.NewsletterStatusEnviado
	if sent == 0 && len(subscribers) > 0 {
		status = models.NewsletterStatusError
	}
	updates := map[string]interface{}{
		"estado":            status,
		"cantidad_enviados": sent,
	}
	if status == models.NewsletterStatusEnviado {
		updates["fecha_envio"] = now
	}
	if err := s.DB.Model(&newsletter).Updates(updates).Error; err != nil {
		return nil, err
	}

	var fresh models.Newsletter
	if err := s.DB.First(&fresh, "id = ?", newsletterID).Error; err != nil {
		return nil, err
	}
	return &fresh, nil
}

// ListNewsletters returns the latest newsletters
func (s *NewsletterService) ListNewsletters(limit int) ([]models.Newsletter, error) {
	if limit <= 0 {
		limit = 20
	}
	var items []models.Newsletter
	err := s.DB.Order("created_at DESC").Limit(limit).Find(&items).Error
	return items, err
}

// AddSubscriber subscribes an email, reactivating it if it had unsubscribed
func (s *NewsletterService) AddSubscriber(email, name string) (*models.Subscriber, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !ValidateEmail(email) {
		return nil, Validation("email", "invalid email address")
	}

	name = strings.TrimSpace(name)

	var sub models.Subscriber
	err := s.DB.Where("email = ?", email).First(&sub).Error
	if err == nil {
		if err := s.DB.Model(&sub).Updates(map[string]interface{}{"activo": true, "nombre": name}).Error; err != nil {
			return nil, err
		}
		sub.Active = true
		sub.Name = name
		return &sub, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	sub = models.Subscriber{Email: email, Name: name, Active: true}
	if err := s.DB.Create(&sub).Error; err != nil {
		return nil, translateDBError(err, "subscriber")
	}
	return &sub, nil
}

// ListSubscribers returns subscribers, optionally only active ones
func (s *NewsletterService) ListSubscribers(activeOnly bool) ([]models.Subscriber, error) {
	query := s.DB.Order("email ASC")
	if activeOnly {
		query = query.Where("activo = ?", true)
	}
	var subs []models.Subscriber
	err := query.Find(&subs).Error
	return subs, err
}

// Unsubscribe deactivates a subscriber
func (s *NewsletterService) Unsubscribe(email string) error {
	res := s.DB.Model(&models.Subscriber{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Update("activo", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return NotFound("subscriber")
	}
	return nil
}
