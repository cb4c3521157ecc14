package scrape

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// minContentChars is the minimum trimmed content length for a result to be
// presentable.
const minContentChars = 100

// Validator is the terminal gate that decides whether extracted content is
// acceptable.
type Validator struct {
	logger *zap.Logger
}

// NewValidator builds a Validator. A nil logger disables diagnostics.
func NewValidator(logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{logger: logger}
}

// Validate reports whether the article has enough content and a title.
// Title absence alone fails validation even with ample content.
func (v *Validator) Validate(article ArticleContent) bool {
	content := strings.TrimSpace(article.Content)
	var reason string
	switch {
	case content == "":
		reason = "content absent"
	case utf8.RuneCountInString(content) < minContentChars:
		reason = "content too short"
	case strings.TrimSpace(article.Title) == "":
		reason = "title absent"
	default:
		return true
	}
	v.logger.Debug("article rejected by validator",
		zap.String("url", article.URL),
		zap.String("reason", reason),
	)
	return false
}
