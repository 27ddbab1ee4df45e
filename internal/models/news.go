package models

import "time"

// Category tags an item with the desk that produced it.
type Category string

const (
	CategoryPolitics Category = "politics"
	CategoryEconomy  Category = "economy"
)

// Filter selects which items are visible. FilterAll shows every item.
type Filter string

const FilterAll Filter = "all"

// Filters lists the trigger values in display order.
var Filters = []Filter{FilterAll, Filter(CategoryPolitics), Filter(CategoryEconomy)}

// ParseFilter reports whether raw names one of the known triggers.
func ParseFilter(raw string) (Filter, bool) {
	for _, f := range Filters {
		if string(f) == raw {
			return f, true
		}
	}
	return "", false
}

// Matches reports whether an item with category c is visible under f.
func (f Filter) Matches(c Category) bool {
	return f == FilterAll || Category(f) == c
}

// Feed is the document published at posts/latest.json.
// It is never mutated after loading; a reload replaces it.
type Feed struct {
	GeneratedAt string         `json:"generated_at"`
	Categories  []CategoryInfo `json:"categories,omitempty"`
	Items       []Item         `json:"items"`
}

// CategoryInfo is a display category announced by the feed pipeline.
type CategoryInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Item is one news entry of the feed.
type Item struct {
	Category    Category `json:"category"`
	Source      string   `json:"source"`
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	URL         string   `json:"url"`
	PublishedAt *string  `json:"published_at"`
}

// ArchivedItem is the structure stored in Elasticsearch.
type ArchivedItem struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	URL         string    `json:"url"`
	Keywords    []string  `json:"keywords"`
	PublishedAt string    `json:"published_at,omitempty"`
	GeneratedAt string    `json:"generated_at"`
	Timestamp   time.Time `json:"timestamp"`
}
