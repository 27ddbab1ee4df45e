package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/DeafMist/news-brief/internal/models"
	"github.com/DeafMist/news-brief/internal/processing"
)

// KST is the display zone of the brief.
var KST = time.FixedZone("KST", 9*60*60)

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// Escape replaces the five HTML metacharacters so s can be embedded in
// element content or a quoted attribute.
func Escape(s string) string {
	return escaper.Replace(s)
}

// CategoryLabel maps a category to its kicker label. Only economy has its
// own label; every other value, known or not, is shown as politics.
func CategoryLabel(c models.Category) string {
	if c == models.CategoryEconomy {
		return "경제"
	}
	return "정치"
}

// FormatTimestamp renders raw in ko-KR style ("2024. 1. 1. 오전 9:00:00")
// in KST. Values that do not parse are returned verbatim.
func FormatTimestamp(raw string) string {
	ts := processing.ParseTimestamp(raw, KST)
	if ts.IsZero() {
		return raw
	}
	ts = ts.In(KST)

	meridiem := "오전"
	if ts.Hour() >= 12 {
		meridiem = "오후"
	}
	hour := ts.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d. %d. %d. %s %d:%02d:%02d",
		ts.Year(), int(ts.Month()), ts.Day(), meridiem, hour, ts.Minute(), ts.Second())
}
