package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DeafMist/news-brief/internal/logger"
	"github.com/DeafMist/news-brief/internal/models"
	"github.com/DeafMist/news-brief/internal/processing"
)

// DefaultPath is where the pipeline publishes the newest feed.
const DefaultPath = "posts/latest.json"

const maxBodyBytes = 16 << 20

var (
	// ErrUnavailable covers transport failures and non-2xx responses.
	ErrUnavailable = errors.New("feed unavailable")
	// ErrMalformed means the body is not a JSON feed object.
	ErrMalformed = errors.New("feed malformed")
)

// Loader fetches the published feed over HTTP.
type Loader struct {
	client *http.Client
	base   *url.URL
	target string
	log    *slog.Logger
}

// NewLoader resolves path against baseURL. A zero timeout leaves the
// request bounded only by the caller's context.
func NewLoader(baseURL, path string, timeout time.Duration, log *slog.Logger) (*Loader, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse feed base url: %w", err)
	}
	if log == nil {
		log = logger.Discard()
	}

	l := &Loader{
		client: &http.Client{Timeout: timeout},
		base:   base,
		log:    log,
	}
	return l.WithPath(path)
}

// URL returns the resolved feed location.
func (l *Loader) URL() string { return l.target }

// WithPath returns a loader for another feed file under the same base URL,
// e.g. a dated archive announced on the update topic. Empty means DefaultPath.
func (l *Loader) WithPath(path string) (*Loader, error) {
	if path == "" {
		path = DefaultPath
	}
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse feed path: %w", err)
	}
	return &Loader{
		client: l.client,
		base:   l.base,
		target: l.base.ResolveReference(ref).String(),
		log:    l.log,
	}, nil
}

// Load performs one uncached GET and decodes the body into a Feed.
func (l *Loader) Load(ctx context.Context) (*models.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.target, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Pragma", "no-cache")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s returned %s", ErrUnavailable, l.target, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	feed, dropped, err := Decode(body)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		l.log.Debug("dropped feed items without title and url", slog.Int("dropped", dropped))
	}
	return feed, nil
}

type rawFeed struct {
	GeneratedAt json.RawMessage       `json:"generated_at"`
	Categories  []models.CategoryInfo `json:"categories"`
	Items       *[]rawItem            `json:"items"`
}

type rawItem struct {
	Category    string  `json:"category"`
	Source      string  `json:"source"`
	Title       string  `json:"title"`
	Summary     string  `json:"summary"`
	URL         string  `json:"url"`
	PublishedAt *string `json:"published_at"`
}

// Decode validates a feed document and sanitises its items. It returns the
// number of items dropped for carrying neither title nor url.
func Decode(body []byte) (*models.Feed, int, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return nil, 0, fmt.Errorf("%w: expected a JSON object", ErrMalformed)
	}

	var raw rawFeed
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw.Items == nil {
		return nil, 0, fmt.Errorf("%w: missing items", ErrMalformed)
	}

	feed := &models.Feed{
		GeneratedAt: scalarString(raw.GeneratedAt),
		Categories:  raw.Categories,
		Items:       make([]models.Item, 0, len(*raw.Items)),
	}

	dropped := 0
	for _, it := range *raw.Items {
		item, ok := sanitize(it)
		if !ok {
			dropped++
			continue
		}
		feed.Items = append(feed.Items, item)
	}
	return feed, dropped, nil
}

func sanitize(it rawItem) (models.Item, bool) {
	item := models.Item{
		Category: models.Category(strings.TrimSpace(it.Category)),
		Source:   strings.TrimSpace(it.Source),
		Title:    strings.TrimSpace(it.Title),
		Summary:  strings.TrimSpace(it.Summary),
		URL:      strings.TrimSpace(it.URL),
	}
	if it.PublishedAt != nil {
		if p := strings.TrimSpace(*it.PublishedAt); p != "" {
			item.PublishedAt = &p
		}
	}

	if item.Title == "" {
		item.Title = processing.TitleFromSummary(item.Summary, 12)
	}
	if item.Title == "" && item.URL == "" {
		return models.Item{}, false
	}
	return item, true
}

// scalarString keeps generated_at as text whether the pipeline wrote a
// string or a bare epoch number.
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}
