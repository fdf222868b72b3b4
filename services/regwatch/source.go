package regwatch

import (
	"context"
	"fmt"
	"html"
	"jetlex_app_go/models"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// DefaultANACNewsURL is the regulator's public news listing
const DefaultANACNewsURL = "https://www.anac.gov.ar/anac/web/index.php/1/22/noticias"

// FetchTimeout bounds every request to a news source
const FetchTimeout = 30 * time.Second

const maxTitleLength = 500

var textPolicy = bluemonday.StrictPolicy()

// Item is one news entry read from a source, before it becomes an alert
type Item struct {
	Title   string
	Content string
	URL     string
}

// Source defines the interface for every news source the watch can read
type Source interface {
	// Name is the monitoring source code stored on the alert (e.g. ANAC_NOVEDADES)
	Name() string

	// Fetch returns the items currently published by the source
	Fetch(ctx context.Context) ([]Item, error)
}

// ANACSource scrapes the regulator's news page
type ANACSource struct {
	pageURL string
	client  *http.Client
}

// NewANACSource creates a source for the given page, falling back to the public news listing
func NewANACSource(pageURL string, timeout time.Duration) *ANACSource {
	if pageURL == "" {
		pageURL = DefaultANACNewsURL
	}
	if timeout <= 0 {
		timeout = FetchTimeout
	}
	return &ANACSource{
		pageURL: pageURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name implements Source
func (s *ANACSource) Name() string { return models.SourceANACNovedades }

// Fetch implements Source
func (s *ANACSource) Fetch(ctx context.Context) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "jetlex-regwatch/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news page returned status: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse news page: %w", err)
	}

	base, _ := url.Parse(s.pageURL)
	var items []Item
	doc.Find(".noticia").Each(func(_ int, sel *goquery.Selection) {
		title := truncateRunes(cleanText(sel.Find(".titulo").First().Text()), maxTitleLength)
		if title == "" {
			return
		}
		item := Item{
			Title:   title,
			Content: cleanText(sel.Find(".contenido").First().Text()),
		}
		if href, ok := sel.Find("a[href]").First().Attr("href"); ok {
			item.URL = resolveLink(base, href)
		}
		items = append(items, item)
	})
	return items, nil
}

// cleanText strips anything tag-like from scraped text and collapses whitespace
func cleanText(s string) string {
	s = html.UnescapeString(textPolicy.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil || ref.IsAbs() {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
