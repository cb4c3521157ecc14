// Package scrape implements article-content extraction from arbitrary web
// pages: a retrying, robots-aware fetcher, a readability-based primary
// strategy, a selector-chain fallback strategy, and the orchestrator that
// sequences them behind a validation gate.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Strategy identifies which extraction algorithm populated an ArticleContent.
type Strategy string

// Known extraction strategies, in the order the orchestrator tries them.
const (
	StrategyReadability Strategy = "readability"
	StrategySelectors   Strategy = "selectors"
)

// ArticleContent is the final, validated result of extracting one URL.
// All non-URL fields come from exactly one strategy; fields are never merged
// across strategies.
type ArticleContent struct {
	URL       string     `json:"url"`
	Title     string     `json:"title,omitempty"`
	Author    string     `json:"author,omitempty"`
	Date      *time.Time `json:"date,omitempty"`
	Content   string     `json:"content,omitempty"`
	RawSource []byte     `json:"-"`
	Strategy  Strategy   `json:"strategy,omitempty"`
}

// StrategyResult is the raw output of a single extraction strategy before
// validation. It never leaves the orchestrator.
type StrategyResult struct {
	Title   string
	Author  string
	Date    *time.Time
	Content string
}

// Empty reports whether the strategy found nothing at all.
func (r StrategyResult) Empty() bool {
	return r.Title == "" && r.Author == "" && r.Date == nil && r.Content == ""
}

// ExtractionStrategy is one interchangeable content-extraction algorithm.
// "Nothing found" is an empty result, not an error.
type ExtractionStrategy interface {
	Name() Strategy
	Extract(pageURL string, body []byte) StrategyResult
}

// Page is the raw payload returned by a Fetcher.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Body       []byte
}

// Fetcher retrieves a single URL. No link following, no sitemap traversal.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

// Error taxonomy. All are terminal to a single Extract call.
var (
	// ErrInvalidURL means the input failed syntactic validation; no fetch
	// was attempted.
	ErrInvalidURL = errors.New("invalid url")
	// ErrPolicyBlocked means robots exclusion disallows the URL; no fetch
	// was attempted.
	ErrPolicyBlocked = errors.New("blocked by robots policy")
	// ErrExtractionFailed means both strategies ran and neither produced
	// content that passed validation.
	ErrExtractionFailed = errors.New("extraction failed: no strategy produced valid content")
)

// FetchError reports a fetch that failed after the retry budget was spent.
type FetchError struct {
	URL        string
	StatusCode int
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
	}
	return fmt.Sprintf("fetch %s failed after %d attempts: status %d", e.URL, e.Attempts, e.StatusCode)
}

func (e *FetchError) Unwrap() error { return e.Err }
