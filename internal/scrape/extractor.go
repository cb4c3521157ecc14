package scrape

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"
)

// attempt pairs an extraction strategy with the fetch engine that feeds it.
// The fallback engine performs its own fresh fetch rather than reusing the
// primary's payload, since it may need different fetch semantics (rendering).
type attempt struct {
	fetcher  Fetcher
	strategy ExtractionStrategy
}

// Extractor sequences fetch, strategies, and the validation gate. Attempts
// run strictly in order; the first strategy whose output passes validation
// wins and later strategies are never invoked.
type Extractor struct {
	attempts  []attempt
	validator *Validator
	logger    *zap.Logger
}

// NewExtractor wires the standard two-strategy pipeline: readability over the
// plain fetcher, then selector chains over the fallback fetcher.
func NewExtractor(primary, fallback Fetcher, validator *Validator, logger *zap.Logger) *Extractor {
	return &Extractor{
		attempts: []attempt{
			{fetcher: primary, strategy: NewReadabilityStrategy(logger)},
			{fetcher: fallback, strategy: NewSelectorStrategy(logger)},
		},
		validator: validator,
		logger:    logger,
	}
}

// Extract fetches the URL and returns the first validated ArticleContent, or
// a terminal error. The caller never receives a half-populated record.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (ArticleContent, error) {
	if err := validateURL(rawURL); err != nil {
		return ArticleContent{}, err
	}

	for i, att := range e.attempts {
		page, err := att.fetcher.Fetch(ctx, rawURL)
		if err != nil {
			// Without bytes no strategy has a chance; fetch and policy
			// failures are terminal.
			return ArticleContent{}, err
		}

		result := att.strategy.Extract(rawURL, page.Body)
		article := ArticleContent{
			URL:       rawURL,
			Title:     result.Title,
			Author:    result.Author,
			Date:      result.Date,
			Content:   result.Content,
			RawSource: page.Body,
			Strategy:  att.strategy.Name(),
		}
		valid := e.validator.Validate(article)
		observeStrategy(att.strategy.Name(), valid)
		if valid {
			e.logger.Info("extraction succeeded",
				zap.String("url", rawURL),
				zap.String("strategy", string(att.strategy.Name())),
				zap.Int("content_chars", len(article.Content)),
			)
			return article, nil
		}
		e.logger.Info("strategy produced no valid content",
			zap.String("url", rawURL),
			zap.String("strategy", string(att.strategy.Name())),
			zap.Int("remaining_strategies", len(e.attempts)-i-1),
		)
	}

	extractionFailures.Inc()
	return ArticleContent{}, fmt.Errorf("extract %s: %w", rawURL, ErrExtractionFailed)
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%q: %w", rawURL, ErrInvalidURL)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q: %w", rawURL, ErrInvalidURL)
	}
	return nil
}
