package scrape

import (
	"bytes"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"
)

// ReadabilityStrategy is the primary extraction strategy. It runs the
// readability content-density algorithm over the page and prefers explicit
// publisher metadata (meta tags) over DOM heuristics for title/author/date.
type ReadabilityStrategy struct {
	logger *zap.Logger
}

// NewReadabilityStrategy builds the primary strategy.
func NewReadabilityStrategy(logger *zap.Logger) *ReadabilityStrategy {
	return &ReadabilityStrategy{logger: logger}
}

// Name implements ExtractionStrategy.
func (s *ReadabilityStrategy) Name() Strategy { return StrategyReadability }

// Extract runs readability over the fetched bytes. "Nothing found" yields an
// empty result, never an error; only the fetch layer produces errors.
func (s *ReadabilityStrategy) Extract(pageURL string, body []byte) StrategyResult {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return StrategyResult{}
	}
	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		s.logger.Debug("readability found no content block",
			zap.String("url", pageURL), zap.Error(err))
		return StrategyResult{}
	}

	result := StrategyResult{
		Title:   singleLine(article.Title),
		Author:  singleLine(article.Byline),
		Content: normalizeWhitespace(article.TextContent),
	}
	if article.PublishedTime != nil {
		d := dateOnly(*article.PublishedTime)
		result.Date = &d
	}

	// Readability leaves author/date empty on many pages even when the
	// publisher declared them in meta tags; read those directly.
	if result.Author == "" || result.Date == nil {
		s.fillFromMeta(body, &result)
	}

	s.logger.Debug("readability extraction finished",
		zap.String("url", pageURL),
		zap.Int("content_chars", len(result.Content)),
		zap.Bool("found_title", result.Title != ""),
	)
	return result
}

func (s *ReadabilityStrategy) fillFromMeta(body []byte, result *StrategyResult) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return
	}
	if result.Author == "" {
		for _, sel := range []string{`meta[name="author"]`, `meta[property="article:author"]`} {
			if v, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(v) != "" {
				result.Author = singleLine(v)
				break
			}
		}
	}
	if result.Date == nil {
		if v, ok := doc.Find(`meta[property="article:published_time"]`).First().Attr("content"); ok {
			result.Date = ParseArticleDate(v)
		}
	}
}

// ParseArticleDate parses the date portion of an ISO-8601-like fragment,
// discarding any time and timezone. A malformed value yields nil, never an
// error.
func ParseArticleDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	datePart := raw
	if idx := strings.IndexAny(datePart, "T "); idx > 0 {
		datePart = datePart[:idx]
	}
	t, err := time.Parse("2006-01-02", datePart)
	if err != nil {
		return nil
	}
	return &t
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// singleLine trims a value and collapses it onto one line.
func singleLine(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// normalizeWhitespace collapses runs of spaces within lines and repeated
// blank lines down to one.
func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if len(out) > 0 && out[len(out)-1] == "" {
				continue
			}
			out = append(out, "")
			continue
		}
		out = append(out, strings.Join(strings.Fields(trimmed), " "))
	}
	for len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
