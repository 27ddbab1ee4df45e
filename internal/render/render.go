package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/DeafMist/news-brief/internal/models"
)

// View is the projection of a feed under one filter. Title and Summary are
// already escaped; URL, Source and Label are embedded as given.
type View struct {
	Filter models.Filter `json:"filter"`
	Meta   string        `json:"meta"`
	Total  int           `json:"total"`
	Items  []ItemView    `json:"items"`
}

// ItemView is one display block.
type ItemView struct {
	Label     string `json:"label"`
	Source    string `json:"source"`
	Published string `json:"published"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	URL       string `json:"url"`
}

// Render projects feed through filter. It reports false when no feed has
// been loaded yet, in which case the caller keeps whatever it displayed.
func Render(feed *models.Feed, filter models.Filter) (View, bool) {
	if feed == nil {
		return View{}, false
	}

	v := View{
		Filter: filter,
		Meta:   fmt.Sprintf("업데이트: %s · 총 %d건", FormatTimestamp(feed.GeneratedAt), len(feed.Items)),
		Total:  len(feed.Items),
		Items:  make([]ItemView, 0, len(feed.Items)),
	}

	for _, it := range feed.Items {
		if !filter.Matches(it.Category) {
			continue
		}
		published := ""
		if it.PublishedAt != nil && *it.PublishedAt != "" {
			published = FormatTimestamp(*it.PublishedAt)
		}
		v.Items = append(v.Items, ItemView{
			Label:     CategoryLabel(it.Category),
			Source:    it.Source,
			Published: published,
			Title:     Escape(it.Title),
			Summary:   Escape(it.Summary),
			URL:       it.URL,
		})
	}
	return v, true
}

// HTML returns the list markup, one article per visible item.
func (v View) HTML() string {
	var b strings.Builder
	for _, it := range v.Items {
		b.WriteString(`<article class="item">
  <div class="kicker">
    <span class="tag">` + it.Label + `</span>
    <span class="tag">` + it.Source + `</span>
    <span>` + it.Published + `</span>
  </div>
  <h3 class="title">` + it.Title + `</h3>
  <p class="summary">` + it.Summary + `</p>
  <div class="links">
    <a href="` + it.URL + `" target="_blank" rel="noopener noreferrer">원문 보기</a>
  </div>
</article>
`)
	}
	return b.String()
}

// WriteHTML writes the list markup to w.
func (v View) WriteHTML(w io.Writer) error {
	_, err := io.WriteString(w, v.HTML())
	return err
}
