package services

import (
	"context"
	"fmt"
	"html"
	"jetlex_app_go/models"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"
)

// SearchResult is one hit of the global search box
type SearchResult struct {
	Type     string `json:"type"` // expediente, cliente, aeronave or monitoreo
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Snippet  string `json:"snippet,omitempty"`
	LinkURL  string `json:"linkUrl"`
	Rank     int    `json:"rank"`
}

// SearchService looks up a free-text query across cases, clients, aircraft and regulatory alerts.
// Matching is a case-insensitive LIKE on every term so it behaves the same on SQLite and MySQL.
type SearchService struct {
	db *gorm.DB
}

// NewSearchService creates a new search service instance
func NewSearchService(db *gorm.DB) *SearchService {
	return &SearchService{db: db}
}

// Search returns at most limit results, best matches first
func (s *SearchService) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	terms := searchTerms(query)
	if len(terms) == 0 {
		return []SearchResult{}, nil
	}

	db := s.db.WithContext(ctx)
	var results []SearchResult
	for _, search := range []func(*gorm.DB, []string, int) ([]SearchResult, error){
		searchCases, searchClients, searchAircraft, searchAlerts,
	} {
		found, err := search(db, terms, limit)
		if err != nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}
		results = append(results, found...)
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Rank > results[j].Rank })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func searchCases(db *gorm.DB, terms []string, limit int) ([]SearchResult, error) {
	var cases []models.Case
	q := likeAny(db.Model(&models.Case{}).Preload("Client"), terms, "numero", "observaciones", "tipo_tramite")
	if err := q.Order("fecha_inicio DESC").Limit(limit).Find(&cases).Error; err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(cases))
	for _, c := range cases {
		subtitle := c.ProcedureType
		if c.Client != nil {
			subtitle = c.Client.Name + " · " + c.ProcedureType
		}
		results = append(results, SearchResult{
			Type:     "expediente",
			ID:       c.ID,
			Title:    c.Number,
			Subtitle: subtitle,
			Snippet:  highlight(c.Notes, terms),
			LinkURL:  "/expedientes/" + c.ID,
			Rank:     rankOf(terms, c.Number, c.Notes, c.ProcedureType),
		})
	}
	return results, nil
}

func searchClients(db *gorm.DB, terms []string, limit int) ([]SearchResult, error) {
	var clients []models.Client
	q := likeAny(db.Model(&models.Client{}), terms, "nombre", "cuit", "email", "notas")
	if err := q.Order("nombre ASC").Limit(limit).Find(&clients).Error; err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(clients))
	for _, c := range clients {
		cuit := ""
		if c.CUIT != nil {
			cuit = *c.CUIT
		}
		results = append(results, SearchResult{
			Type:     "cliente",
			ID:       c.ID,
			Title:    c.Name,
			Subtitle: cuit,
			Snippet:  highlight(c.Notes, terms),
			LinkURL:  "/clientes/" + c.ID,
			Rank:     rankOf(terms, c.Name, cuit, c.Notes),
		})
	}
	return results, nil
}

func searchAircraft(db *gorm.DB, terms []string, limit int) ([]SearchResult, error) {
	var aircraft []models.Aircraft
	q := likeAny(db.Model(&models.Aircraft{}), terms, "matricula", "marca", "modelo")
	if err := q.Order("matricula ASC").Limit(limit).Find(&aircraft).Error; err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(aircraft))
	for _, a := range aircraft {
		results = append(results, SearchResult{
			Type:     "aeronave",
			ID:       a.ID,
			Title:    a.Registration,
			Subtitle: a.Make + " " + a.Model,
			LinkURL:  "/aeronaves/" + a.ID,
			Rank:     rankOf(terms, a.Registration, a.Make, a.Model),
		})
	}
	return results, nil
}

func searchAlerts(db *gorm.DB, terms []string, limit int) ([]SearchResult, error) {
	var alerts []models.MonitoringAlert
	q := likeAny(db.Model(&models.MonitoringAlert{}), terms, "titulo", "contenido")
	if err := q.Order("fecha_deteccion DESC").Limit(limit).Find(&alerts).Error; err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(alerts))
	for _, a := range alerts {
		results = append(results, SearchResult{
			Type:     "monitoreo",
			ID:       a.ID,
			Title:    a.Title,
			Subtitle: a.Source + " · " + a.Priority,
			Snippet:  highlight(a.Content, terms),
			LinkURL:  "/monitoreo/" + a.ID,
			Rank:     rankOf(terms, a.Title, a.Content),
		})
	}
	return results, nil
}

var searchNoise = regexp.MustCompile(`[%_*"():+^\\]`)

// searchTerms splits the query into lower-cased words of two or more characters
func searchTerms(query string) []string {
	cleaned := searchNoise.ReplaceAllString(query, " ")
	var terms []string
	for _, word := range strings.Fields(strings.ToLower(cleaned)) {
		if utf8.RuneCountInString(word) >= 2 {
			terms = append(terms, word)
		}
	}
	return terms
}

// likeAny matches rows where any term appears in any column
func likeAny(q *gorm.DB, terms []string, columns ...string) *gorm.DB {
	var clauses []string
	var args []interface{}
	for _, term := range terms {
		for _, col := range columns {
			clauses = append(clauses, "LOWER("+col+") LIKE ?")
			args = append(args, "%"+term+"%")
		}
	}
	return q.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

// rankOf counts how many terms occur in the given fields, weighting the first field double
func rankOf(terms []string, fields ...string) int {
	rank := 0
	for i, field := range fields {
		lower := strings.ToLower(field)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				if i == 0 {
					rank += 2
				} else {
					rank++
				}
			}
		}
	}
	return rank
}

const snippetRadius = 60

// highlight cuts a window of text around the first matching term and wraps matches in <mark>.
// The text is HTML-escaped so only the mark tags are live markup.
func highlight(text string, terms []string) string {
	if text == "" {
		return ""
	}
	lower := strings.ToLower(text)
	start := -1
	for _, term := range terms {
		if idx := strings.Index(lower, term); idx >= 0 && (start < 0 || idx < start) {
			start = idx
		}
	}
	if start < 0 {
		return ""
	}
	if len(lower) != len(text) {
		start = 0
	}

	from := start - snippetRadius
	if from < 0 {
		from = 0
	}
	to := start + snippetRadius
	if to > len(text) {
		to = len(text)
	}
	// Keep the cut on rune boundaries
	for from > 0 && !utf8.RuneStart(text[from]) {
		from--
	}
	for to < len(text) && !utf8.RuneStart(text[to]) {
		to++
	}

	window := text[from:to]
	out := markMatches(window, terms)
	if from > 0 {
		out = "..." + out
	}
	if to < len(text) {
		out += "..."
	}
	return out
}

// markMatches escapes s and wraps every case-insensitive occurrence of a term in <mark>
func markMatches(s string, terms []string) string {
	lower := strings.ToLower(s)
	if len(lower) != len(s) {
		return html.EscapeString(s)
	}

	marked := make([]bool, len(s))
	for _, term := range terms {
		for i := 0; ; {
			idx := strings.Index(lower[i:], term)
			if idx < 0 {
				break
			}
			for k := i + idx; k < i+idx+len(term); k++ {
				marked[k] = true
			}
			i += idx + len(term)
		}
	}

	var b strings.Builder
	for i := 0; i < len(s); {
		j := i
		for j < len(s) && marked[j] == marked[i] {
			j++
		}
		if marked[i] {
			b.WriteString("<mark>")
			b.WriteString(html.EscapeString(s[i:j]))
			b.WriteString("</mark>")
		} else {
			b.WriteString(html.EscapeString(s[i:j]))
		}
		i = j
	}
	return b.String()
}
