package render

import (
	"io"
	"strings"

	"github.com/DeafMist/news-brief/internal/models"
)

const loadingMeta = "불러오는 중…"

var triggerLabels = map[models.Filter]string{
	models.FilterAll:                      "전체",
	models.Filter(models.CategoryPolitics): "정치",
	models.Filter(models.CategoryEconomy):  "경제",
}

// Trigger is one filter button of the page.
type Trigger struct {
	Filter models.Filter `json:"filter"`
	Label  string        `json:"label"`
	Active bool          `json:"active"`
}

// Triggers returns the fixed trigger set with exactly one active entry.
func Triggers(active models.Filter) []Trigger {
	out := make([]Trigger, 0, len(models.Filters))
	for _, f := range models.Filters {
		out = append(out, Trigger{Filter: f, Label: triggerLabels[f], Active: f == active})
	}
	return out
}

// Page is the whole document: meta target, triggers and list container.
// Loaded is false until the first successful feed load; the list then stays
// empty. LoadFailed asks the page to offer a retry.
type Page struct {
	Loaded     bool      `json:"loaded"`
	LoadFailed bool      `json:"load_failed"`
	Triggers   []Trigger `json:"triggers"`
	View       View      `json:"view"`
}

// WritePage writes p as a complete HTML document.
func WritePage(w io.Writer, p Page) error {
	meta := loadingMeta
	if p.Loaded {
		meta = p.View.Meta
	}

	var b strings.Builder
	b.WriteString(`<!doctype html>
<html lang="ko">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>뉴스 브리프</title>
<link rel="stylesheet" href="assets/style.css">
</head>
<body>
<header>
<h1>뉴스 브리프</h1>
<div id="meta">` + Escape(meta) + `</div>
<nav class="filters">
`)
	for _, t := range p.Triggers {
		class := "btn"
		if t.Active {
			class += " active"
		}
		b.WriteString(`<a class="` + class + `" data-filter="` + string(t.Filter) + `" href="?filter=` + string(t.Filter) + `">` + t.Label + "</a>\n")
	}
	b.WriteString("</nav>\n</header>\n")

	if p.LoadFailed {
		b.WriteString(`<form class="retry" method="post" action="reload">
<p>피드를 불러오지 못했습니다.</p>
<button type="submit">다시 시도</button>
</form>
`)
	}

	b.WriteString(`<main id="list">` + "\n")
	if p.Loaded {
		b.WriteString(p.View.HTML())
	}
	b.WriteString("</main>\n</body>\n</html>\n")

	_, err := io.WriteString(w, b.String())
	return err
}
