package digest

import (
	"fmt"
	"strings"
	"time"

	"github.com/DeafMist/news-brief/internal/models"
	"github.com/DeafMist/news-brief/internal/render"
)

const summaryRunes = 200

var defaultCategories = []models.CategoryInfo{
	{ID: string(models.CategoryPolitics), Name: "정치"},
	{ID: string(models.CategoryEconomy), Name: "경제"},
}

var titleCleaner = strings.NewReplacer("*", "", "_", "")

type section struct {
	name  string
	items []models.Item
}

// sections picks up to perCategory items for each display category the feed
// announces, in feed order. Categories without items are left out.
func sections(feed *models.Feed, perCategory int) []section {
	if feed == nil || perCategory <= 0 {
		return nil
	}

	categories := feed.Categories
	if len(categories) == 0 {
		categories = defaultCategories
	}

	var out []section
	for _, cat := range categories {
		if cat.ID == string(models.FilterAll) {
			continue
		}

		picked := make([]models.Item, 0, perCategory)
		for _, it := range feed.Items {
			if string(it.Category) == cat.ID {
				picked = append(picked, it)
				if len(picked) == perCategory {
					break
				}
			}
		}
		if len(picked) > 0 {
			out = append(out, section{name: cat.Name, items: picked})
		}
	}
	return out
}

// Build renders the Telegram Markdown digest. The second result is false
// when nothing would be sent.
func Build(feed *models.Feed, perCategory int, day time.Time) (string, bool) {
	secs := sections(feed, perCategory)
	if len(secs) == 0 {
		return "", false
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📢 *%d년 %02d월 %02d일 분야별 뉴스 요약*\n\n", day.Year(), int(day.Month()), day.Day())

	for _, sec := range secs {
		b.WriteString("───────────────\n")
		fmt.Fprintf(&b, "📂 *%s*\n", sec.name)
		for i, it := range sec.items {
			fmt.Fprintf(&b, "\n*%d. %s*\n", i+1, titleCleaner.Replace(it.Title))
			fmt.Fprintf(&b, "%s...\n", truncate(strings.ReplaceAll(it.Summary, "\n", " "), summaryRunes))
			fmt.Fprintf(&b, "[🔗 원문보기](%s)\n", it.URL)
		}
	}
	return b.String(), true
}

// Post is a blog-ready HTML edition of the digest.
type Post struct {
	Title string `json:"title"`
	HTML  string `json:"html"`
}

// BuildPost renders the per-category blog post. Summaries keep their full
// text with line breaks turned into <br>. Post.Title is plain text and must
// be escaped by callers that embed it in markup.
func BuildPost(feed *models.Feed, perCategory int, day time.Time) (Post, bool) {
	secs := sections(feed, perCategory)
	if len(secs) == 0 {
		return Post{}, false
	}

	date := fmt.Sprintf("%d년 %02d월 %02d일", day.Year(), int(day.Month()), day.Day())
	names := make([]string, 0, len(secs))
	for _, sec := range secs {
		names = append(names, sec.name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<p>안녕하세요! %s의 주요 뉴스를 정리해 드립니다.</p><hr/>\n", date)
	for _, sec := range secs {
		fmt.Fprintf(&b, "<h2>%s</h2>\n", render.Escape(sec.name))
		for i, it := range sec.items {
			fmt.Fprintf(&b, "<h3>%d. %s</h3>\n", i+1, render.Escape(it.Title))
			fmt.Fprintf(&b, "<p>%s</p>\n", strings.ReplaceAll(render.Escape(it.Summary), "\n", "<br>"))
			if it.URL != "" {
				fmt.Fprintf(&b, "<p><a href=\"%s\" target=\"_blank\" rel=\"noopener\">기사 원문 확인하기</a></p>\n", render.Escape(it.URL))
			}
		}
		b.WriteString("<hr/>\n")
	}
	b.WriteString("<p>#뉴스요약 #AI요약 #데일리뉴스</p>\n")

	return Post{
		Title: fmt.Sprintf("[%s] 오늘의 분야별 뉴스 요약 (%s)", date, strings.Join(names, ", ")),
		HTML:  b.String(),
	}, true
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
