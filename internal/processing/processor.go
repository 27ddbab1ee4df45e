package processing

import (
	"crypto/sha1"
	"encoding/hex"
	"html"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var (
	urlRegex    = regexp.MustCompile(`https?://[^\s]+`)
	whitespace  = regexp.MustCompile(`\s+`)
	punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	digitsOnly  = regexp.MustCompile(`^-?\d+$`)
)

var stopwords = map[string]struct{}{
	"및": {}, "등": {}, "위해": {}, "대한": {}, "있는": {}, "했다": {}, "밝혔다": {}, "이번": {},
	"a": {}, "an": {}, "the": {}, "to": {}, "in": {}, "for": {}, "of": {}, "and": {},
}

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 02 Jan 06 15:04:05 -0700",
	"Mon, 02 Jan 06 15:04:05 MST",
	time.RFC822Z,
	time.RFC822,
}

// ParseTimestamp accepts the layouts the feed pipeline has used over time
// plus unix epoch seconds or milliseconds. Zone-less layouts are read in loc,
// except a bare date, which is midnight UTC.
// The zero time means the value could not be parsed.
func ParseTimestamp(raw string, loc *time.Location) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	if loc == nil {
		loc = time.UTC
	}

	if digitsOnly.MatchString(raw) {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return time.Time{}
		}
		if n > 1e12 || n < -1e12 {
			return time.UnixMilli(n).In(loc)
		}
		return time.Unix(n, 0).In(loc)
	}

	for _, layout := range layouts {
		if ts, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return ts
		}
	}
	if ts, err := time.Parse(time.DateOnly, raw); err == nil {
		return ts
	}
	return time.Time{}
}

// CleanText decodes entities, drops URLs and punctuation and squeezes whitespace.
func CleanText(input string) string {
	if input == "" {
		return ""
	}
	out := html.UnescapeString(input)
	out = urlRegex.ReplaceAllString(out, " ")
	out = punctuation.ReplaceAllString(out, " ")
	out = whitespace.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// Keywords returns up to limit of the most frequent non-stopword tokens,
// ties broken alphabetically.
func Keywords(text string, limit, minLen int) []string {
	clean := strings.ToLower(CleanText(text))
	if clean == "" {
		return nil
	}

	freq := make(map[string]int)
	for _, token := range strings.Fields(clean) {
		token = strings.TrimFunc(token, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if len([]rune(token)) < minLen {
			continue
		}
		if _, skip := stopwords[token]; skip {
			continue
		}
		freq[token]++
	}
	if len(freq) == 0 {
		return nil
	}

	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] == freq[words[j]] {
			return words[i] < words[j]
		}
		return freq[words[i]] > freq[words[j]]
	})

	if limit > 0 && limit < len(words) {
		words = words[:limit]
	}
	return words
}

// ItemID derives a stable archive ID. The url is the identity of an item;
// the title only disambiguates items the pipeline published without one.
func ItemID(url, title string) string {
	url = strings.TrimSpace(url)
	if url == "" && strings.TrimSpace(title) == "" {
		return ""
	}
	s := sha1.Sum([]byte(url + "|" + strings.TrimSpace(title)))
	return hex.EncodeToString(s[:])
}

// TitleFromSummary builds a headline from the first sentence of a summary,
// cut to maxWords words with a trailing ellipsis. maxWords <= 0 keeps all words.
func TitleFromSummary(summary string, maxWords int) string {
	text := urlRegex.ReplaceAllString(summary, " ")

	// "1. [핵심 사실]" style enumerators are not sentence ends.
	for offset := 0; ; {
		end := strings.IndexAny(text[offset:], ".!?")
		if end < 0 {
			break
		}
		end += offset
		if strings.IndexFunc(text[:end], unicode.IsLetter) >= 0 {
			text = text[:end]
			break
		}
		offset = end + 1
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	if maxWords > 0 && len(words) > maxWords {
		return strings.Join(words[:maxWords], " ") + "..."
	}
	return strings.Join(words, " ")
}
