package osint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"jetlex_app_go/models"
	"jetlex_app_go/services"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// SourceOpenAI is the only report source currently wired
const SourceOpenAI = "openai"

const (
	DefaultMaxTokens     = 2000
	QuickSearchMaxTokens = 500
	DefaultTemperature   = 0.7
	DefaultTimeout       = 60 * time.Second
	HistoryLimit         = 20
	maxQueryLength       = 2000
)

const systemPrompt = "Eres un experto investigador OSINT especializado en aviación civil, regulaciones aeronáuticas y análisis estratégico del sector aéreo."

const reportPrompt = `Actúa como un investigador OSINT especializado en aviación civil y aeronáutica.

CONSULTA: "%s"

Por favor, proporciona:
1. Análisis detallado del tema consultado
2. Fuentes relevantes y confiables
3. Implicaciones para la industria aeronáutica
4. Recomendaciones estratégicas
5. Alertas o aspectos críticos a considerar

Formato: Informe estructurado y profesional.`

const quickSearchPrompt = `Responde de forma breve y concreta, en no más de tres párrafos, la siguiente consulta sobre aviación civil: "%s"`

var (
	quickSearchCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jetlex_osint_quick_search_cache_hits_total",
		Help: "Total number of quick searches answered from the cache.",
	})
	sourceFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jetlex_osint_source_failures_total",
		Help: "Total number of failed OSINT source calls, by source.",
	}, []string{"source"})
)

// Options tunes one report generation
type Options struct {
	MaxTokens int `json:"maxTokens"`
}

// SourceResult is the outcome of one source. A failed source keeps its slot with
// Error set and Data nil, so the report can still be returned.
type SourceResult struct {
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Data      *string   `json:"data"`
	Error     string    `json:"error,omitempty"`
	Usage     *Usage    `json:"usage,omitempty"`
}

// Report is a stored OSINT report with its decoded results
type Report struct {
	*models.OSINTReport
	Results []SourceResult `json:"results"`
}

// Service generates, caches and stores OSINT reports
type Service struct {
	db      *gorm.DB
	llm     LLMClient
	timeout time.Duration
	cache   *expirable.LRU[string, SourceResult]
	now     func() time.Time
}

// NewService builds the service. llm may be nil when no provider is configured;
// every source call then yields an error marker.
func NewService(db *gorm.DB, llm LLMClient, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		db:      db,
		llm:     llm,
		timeout: timeout,
		cache:   expirable.NewLRU[string, SourceResult](128, nil, 30*time.Minute),
		now:     time.Now,
	}
}

func normalizeQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", services.Validation("query", "query is required")
	}
	if len([]rune(query)) > maxQueryLength {
		return "", services.Validation("query", "query is too long")
	}
	return query, nil
}

// Generate runs every requested source and stores the report. It only fails on
// invalid input or storage errors; source failures mark the report as partial.
func (s *Service) Generate(ctx context.Context, query string, sources []string, opts Options, user *models.User) (*Report, error) {
	query, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, services.Unauthorized("authentication required")
	}
	if len(sources) == 0 {
		sources = []string{SourceOpenAI}
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}

	results := make([]SourceResult, 0, len(sources))
	partial := false
	for _, source := range sources {
		result := s.runSource(ctx, source, fmt.Sprintf(reportPrompt, query), opts.MaxTokens)
		if result.Error != "" {
			partial = true
		}
		results = append(results, result)
	}

	encoded, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("encode osint results: %w", err)
	}
	report := &models.OSINTReport{
		Query:         query,
		Sources:       models.StringList(sources),
		Results:       string(encoded),
		Partial:       partial,
		GeneratedByID: user.ID,
	}
	if err := s.db.Create(report).Error; err != nil {
		return nil, fmt.Errorf("store osint report: %w", err)
	}

	log.Info().
		Str("component", "osint").
		Str("report_id", report.ID).
		Str("user_id", user.ID).
		Bool("partial", partial).
		Msg("osint report generated")
	return &Report{OSINTReport: report, Results: results}, nil
}

// QuickSearch asks the default source for a short answer. Successful answers are
// cached per query so repeated searches do not reach the provider.
func (s *Service) QuickSearch(ctx context.Context, query string) (*SourceResult, error) {
	query, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}
	key := strings.ToLower(query)
	if cached, ok := s.cache.Get(key); ok {
		quickSearchCacheHits.Inc()
		return &cached, nil
	}

	result := s.runSource(ctx, SourceOpenAI, fmt.Sprintf(quickSearchPrompt, query), QuickSearchMaxTokens)
	if result.Error == "" {
		s.cache.Add(key, result)
	}
	return &result, nil
}

// History lists the user's latest reports, newest first
func (s *Service) History(userID string) ([]Report, error) {
	var rows []models.OSINTReport
	err := s.db.Where("generated_by_id = ?", userID).
		Order("created_at DESC").
		Limit(HistoryLimit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	reports := make([]Report, 0, len(rows))
	for i := range rows {
		var results []SourceResult
		if rows[i].Results != "" {
			if err := json.Unmarshal([]byte(rows[i].Results), &results); err != nil {
				log.Warn().Err(err).Str("report_id", rows[i].ID).Msg("unreadable osint results")
			}
		}
		reports = append(reports, Report{OSINTReport: &rows[i], Results: results})
	}
	return reports, nil
}

func (s *Service) runSource(ctx context.Context, source, prompt string, maxTokens int) SourceResult {
	result := SourceResult{Source: source, Timestamp: s.now()}

	if source != SourceOpenAI {
		result.Error = "unknown source"
		return result
	}
	if s.llm == nil {
		result.Error = "source not configured"
		sourceFailuresTotal.WithLabelValues(source).Inc()
		return result
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	completion, err := s.llm.Complete(callCtx, CompletionRequest{
		System:      systemPrompt,
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: DefaultTemperature,
	})
	if err != nil {
		sourceFailuresTotal.WithLabelValues(source).Inc()
		log.Error().Err(err).Str("component", "osint").Str("source", source).Msg("osint source failed")
		result.Error = "error generating report"
		if errors.Is(err, context.DeadlineExceeded) {
			result.Error = "source timed out"
		}
		return result
	}

	text := strings.TrimSpace(completion.Text)
	result.Data = &text
	result.Usage = &completion.Usage
	return result
}
