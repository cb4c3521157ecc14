// Package ria is the application service: it drives scraping, content
// analysis, filing analysis, and fund matching, and persists the resulting
// profile through a store seam.
package ria

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mwhitfield/ria-analyst/internal/advfiling"
	"github.com/mwhitfield/ria-analyst/internal/analysis"
	"github.com/mwhitfield/ria-analyst/internal/funds"
	"github.com/mwhitfield/ria-analyst/internal/scrape"
)

var (
	// ErrProfileNotFound is returned when no profile exists for the ID.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrProfileIncomplete is returned when matching is requested before
	// both website analyses and a filing analysis exist.
	ErrProfileIncomplete = errors.New("profile incomplete: needs website and filing analyses")

	// ErrNoAnalyzableContent is returned when none of the submitted URLs
	// produced analyzable content.
	ErrNoAnalyzableContent = errors.New("no analyzable content from submitted urls")
)

// Profile is the stored unit of work: one advisor under analysis.
type Profile struct {
	ID           string                  `json:"id"`
	CreatedAt    time.Time               `json:"created_at"`
	MeetingNotes string                  `json:"meeting_notes,omitempty"`
	Websites     []funds.WebsiteAnalysis `json:"websites"`
	Filing       *advfiling.Content      `json:"filing,omitempty"`
	Matches      []funds.Match           `json:"matches,omitempty"`
}

// ProfileStore persists profiles. Implementations must return
// ErrProfileNotFound for unknown IDs.
type ProfileStore interface {
	Create(ctx context.Context, p Profile) error
	Get(ctx context.Context, id string) (Profile, error)
	Update(ctx context.Context, p Profile) error
	Close()
}

// ArticleExtractor produces clean article content for one URL.
type ArticleExtractor interface {
	Extract(ctx context.Context, rawURL string) (scrape.ArticleContent, error)
}

// ContentAnalyzer summarizes article text.
type ContentAnalyzer interface {
	Analyze(ctx context.Context, content string) (analysis.Analysis, error)
}

// FilingAnalyzer summarizes an advisor's regulatory filings.
type FilingAnalyzer interface {
	Analyze(ctx context.Context, summaryURL string) (advfiling.Content, error)
}

// FundMatcher scores the fund catalog against an RIA profile.
type FundMatcher interface {
	Match(ctx context.Context, profile funds.RIAProfile) ([]funds.Match, error)
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts profile ID creation for deterministic tests.
type IDGenerator interface {
	NewID() string
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator issues random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }
