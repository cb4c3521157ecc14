package ria

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mwhitfield/ria-analyst/internal/funds"
)

// maxConcurrentSites bounds parallel website analyses per request. Politeness
// toward individual hosts is enforced below this, in the shared fetcher.
const maxConcurrentSites = 4

// Service coordinates the analysis pipeline around a ProfileStore.
type Service struct {
	store     ProfileStore
	extractor ArticleExtractor
	analyzer  ContentAnalyzer
	filings   FilingAnalyzer
	matcher   FundMatcher
	clock     Clock
	ids       IDGenerator
	logger    *zap.Logger
}

// NewService wires the pipeline.
func NewService(
	store ProfileStore,
	extractor ArticleExtractor,
	analyzer ContentAnalyzer,
	filings FilingAnalyzer,
	matcher FundMatcher,
	clock Clock,
	ids IDGenerator,
	logger *zap.Logger,
) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	if ids == nil {
		ids = UUIDGenerator{}
	}
	return &Service{
		store:     store,
		extractor: extractor,
		analyzer:  analyzer,
		filings:   filings,
		matcher:   matcher,
		clock:     clock,
		ids:       ids,
		logger:    logger,
	}
}

// CreateProfile scrapes and analyzes each URL and persists a new profile.
// URLs that fail extraction or analysis are logged and skipped; the call
// fails only when nothing analyzable remains.
func (s *Service) CreateProfile(ctx context.Context, urls []string, meetingNotes string) (Profile, error) {
	if len(urls) == 0 {
		return Profile{}, fmt.Errorf("create profile: %w", ErrNoAnalyzableContent)
	}

	var (
		mu       sync.Mutex
		analyses []funds.WebsiteAnalysis
		wg       sync.WaitGroup
		sem      = make(chan struct{}, maxConcurrentSites)
	)
	for _, rawURL := range urls {
		wg.Add(1)
		go func(rawURL string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}
			wa, err := s.analyzeWebsite(ctx, rawURL)
			if err != nil {
				s.logger.Warn("website analysis skipped",
					zap.String("url", rawURL), zap.Error(err))
				return
			}
			mu.Lock()
			analyses = append(analyses, wa)
			mu.Unlock()
		}(rawURL)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return Profile{}, fmt.Errorf("create profile: %w", err)
	}
	if len(analyses) == 0 {
		return Profile{}, fmt.Errorf("create profile: %w", ErrNoAnalyzableContent)
	}

	p := Profile{
		ID:           s.ids.NewID(),
		CreatedAt:    s.clock.Now(),
		MeetingNotes: meetingNotes,
		Websites:     analyses,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return Profile{}, fmt.Errorf("store profile: %w", err)
	}
	s.logger.Info("profile created",
		zap.String("profile_id", p.ID),
		zap.Int("websites", len(p.Websites)),
		zap.Int("urls_submitted", len(urls)),
	)
	return p, nil
}

func (s *Service) analyzeWebsite(ctx context.Context, rawURL string) (funds.WebsiteAnalysis, error) {
	article, err := s.extractor.Extract(ctx, rawURL)
	if err != nil {
		return funds.WebsiteAnalysis{}, err
	}
	result, err := s.analyzer.Analyze(ctx, article.Content)
	if err != nil {
		return funds.WebsiteAnalysis{}, err
	}
	return funds.WebsiteAnalysis{
		URL:              article.URL,
		InvestmentThemes: result.InvestmentThemes,
		KeyPoints:        result.KeyPoints,
		Summary:          result.Summary,
	}, nil
}

// AnalyzeFiling runs the filing pipeline and attaches the result to the
// profile.
func (s *Service) AnalyzeFiling(ctx context.Context, profileID, filingURL string) (Profile, error) {
	p, err := s.store.Get(ctx, profileID)
	if err != nil {
		return Profile{}, err
	}
	content, err := s.filings.Analyze(ctx, filingURL)
	if err != nil {
		return Profile{}, fmt.Errorf("analyze filing: %w", err)
	}
	p.Filing = &content
	if err := s.store.Update(ctx, p); err != nil {
		return Profile{}, fmt.Errorf("store filing analysis: %w", err)
	}
	s.logger.Info("filing analyzed",
		zap.String("profile_id", p.ID), zap.String("filing_url", filingURL))
	return p, nil
}

// MatchFunds scores the catalog against a completed profile. The profile must
// already carry website analyses and a filing analysis.
func (s *Service) MatchFunds(ctx context.Context, profileID string) (Profile, error) {
	p, err := s.store.Get(ctx, profileID)
	if err != nil {
		return Profile{}, err
	}
	if len(p.Websites) == 0 || p.Filing == nil {
		return Profile{}, ErrProfileIncomplete
	}

	riaProfile := funds.RIAProfile{
		WebsiteAnalyses: p.Websites,
		AUMSummary:      p.Filing.AUMSummary,
		FeesSummary:     p.Filing.FeesSummary,
		MeetingNotes:    p.MeetingNotes,
	}
	matches, err := s.matcher.Match(ctx, riaProfile)
	if err != nil {
		return Profile{}, fmt.Errorf("match funds: %w", err)
	}
	p.Matches = matches
	if err := s.store.Update(ctx, p); err != nil {
		return Profile{}, fmt.Errorf("store matches: %w", err)
	}
	s.logger.Info("funds matched",
		zap.String("profile_id", p.ID), zap.Int("matches", len(matches)))
	return p, nil
}

// GetProfile returns a stored profile.
func (s *Service) GetProfile(ctx context.Context, profileID string) (Profile, error) {
	return s.store.Get(ctx, profileID)
}
