package scrape

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// SelectorStrategy is the fallback extraction strategy: for each field it
// walks an ordered list of structural lookup rules and takes the first
// non-empty match.
type SelectorStrategy struct {
	logger *zap.Logger
}

// NewSelectorStrategy builds the fallback strategy.
func NewSelectorStrategy(logger *zap.Logger) *SelectorStrategy {
	return &SelectorStrategy{logger: logger}
}

// Name implements ExtractionStrategy.
func (s *SelectorStrategy) Name() Strategy { return StrategySelectors }

// fieldMatcher is one pure lookup rule; it returns "" when it matches nothing.
type fieldMatcher func(doc *goquery.Document) string

var titleMatchers = []fieldMatcher{
	firstText("h1"),
	metaContent(`meta[property="og:title"]`),
	metaContent(`meta[name="twitter:title"]`),
	firstText("title"),
	firstText(".title, .headline, .post-title, .entry-title"),
}

var authorMatchers = []fieldMatcher{
	metaContent(`meta[name="author"]`),
	metaContent(`meta[property="article:author"]`),
	firstText(".author, .byline, .post-author, .author-name"),
	firstText(`[rel="author"]`),
}

var dateMatchers = []fieldMatcher{
	metaContent(`meta[property="article:published_time"]`),
	metaContent(`meta[name="publication-date"], meta[name="date"]`),
	attrValue("time[datetime]", "datetime"),
	firstText(".date, .published, .post-date, .publish-date"),
}

// contentContainers are tried in priority order; the first one that yields
// any qualifying text nodes wins.
var contentContainers = []string{
	"article",
	"main",
	`[role="main"]`,
	"#content",
	".content",
	".article-body",
	".post-content",
	".entry-content",
	"#main-content",
	".main-content",
}

const (
	contentNodeSelector = "p, li, h1, h2, h3, h4, h5, h6"
	minNodeChars        = 30
)

// boilerplateTokens mark page furniture; a text node containing any of them
// is dropped.
var boilerplateTokens = []string{"cookie", "privacy", "subscribe", "advertisement"}

// Extract applies the selector chains to the fetched bytes.
func (s *SelectorStrategy) Extract(pageURL string, body []byte) StrategyResult {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		s.logger.Debug("selector strategy could not parse document",
			zap.String("url", pageURL), zap.Error(err))
		return StrategyResult{}
	}

	result := StrategyResult{
		Title:   firstMatch(doc, titleMatchers),
		Author:  firstMatch(doc, authorMatchers),
		Content: extractContent(doc),
	}
	if raw := firstMatch(doc, dateMatchers); raw != "" {
		result.Date = ParseArticleDate(raw)
	}

	s.logger.Debug("selector extraction finished",
		zap.String("url", pageURL),
		zap.Int("content_chars", len(result.Content)),
		zap.Bool("found_title", result.Title != ""),
	)
	return result
}

func firstMatch(doc *goquery.Document, matchers []fieldMatcher) string {
	for _, match := range matchers {
		if v := match(doc); v != "" {
			return v
		}
	}
	return ""
}

func firstText(selector string) fieldMatcher {
	return func(doc *goquery.Document) string {
		return singleLine(doc.Find(selector).First().Text())
	}
}

func metaContent(selector string) fieldMatcher {
	return func(doc *goquery.Document) string {
		v, _ := doc.Find(selector).First().Attr("content")
		return singleLine(v)
	}
}

func attrValue(selector, attr string) fieldMatcher {
	return func(doc *goquery.Document) string {
		v, _ := doc.Find(selector).First().Attr(attr)
		return singleLine(v)
	}
}

// extractContent searches the container list for paragraph-like nodes, and
// falls back to scanning the entire document with the same filter when no
// container yields anything.
func extractContent(doc *goquery.Document) string {
	for _, container := range contentContainers {
		sel := doc.Find(container).First()
		if sel.Length() == 0 {
			continue
		}
		if parts := collectTextNodes(sel); len(parts) > 0 {
			return strings.Join(parts, "\n\n")
		}
	}
	if parts := collectTextNodes(doc.Selection); len(parts) > 0 {
		return strings.Join(parts, "\n\n")
	}
	return ""
}

func collectTextNodes(sel *goquery.Selection) []string {
	var parts []string
	sel.Find(contentNodeSelector).Each(func(_ int, node *goquery.Selection) {
		text := singleLine(node.Text())
		if len(text) <= minNodeChars {
			return
		}
		if containsBoilerplate(text) {
			return
		}
		parts = append(parts, text)
	})
	return parts
}

func containsBoilerplate(text string) bool {
	lower := strings.ToLower(text)
	for _, token := range boilerplateTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}
