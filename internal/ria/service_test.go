package ria

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mwhitfield/ria-analyst/internal/advfiling"
	"github.com/mwhitfield/ria-analyst/internal/analysis"
	"github.com/mwhitfield/ria-analyst/internal/funds"
	"github.com/mwhitfield/ria-analyst/internal/scrape"
)

type memStore struct {
	mu       sync.Mutex
	profiles map[string]Profile
}

func newMemStore() *memStore { return &memStore{profiles: map[string]Profile{}} }

func (s *memStore) Create(_ context.Context, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
	return nil
}

func (s *memStore) Get(_ context.Context, id string) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return Profile{}, ErrProfileNotFound
	}
	return p, nil
}

func (s *memStore) Update(_ context.Context, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.ID]; !ok {
		return ErrProfileNotFound
	}
	s.profiles[p.ID] = p
	return nil
}

func (s *memStore) Close() {}

type stubExtractor struct {
	failFor map[string]error
}

func (e *stubExtractor) Extract(_ context.Context, rawURL string) (scrape.ArticleContent, error) {
	if err, ok := e.failFor[rawURL]; ok {
		return scrape.ArticleContent{}, err
	}
	return scrape.ArticleContent{
		URL:      rawURL,
		Title:    "Title for " + rawURL,
		Content:  strings.Repeat("content ", 20),
		Strategy: scrape.StrategyReadability,
	}, nil
}

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(_ context.Context, content string) (analysis.Analysis, error) {
	return analysis.Analysis{
		InvestmentThemes: []string{"growth"},
		KeyPoints:        []string{"point"},
		Summary:          fmt.Sprintf("summary of %d chars", len(content)),
	}, nil
}

type stubFilings struct {
	err error
}

func (f *stubFilings) Analyze(_ context.Context, summaryURL string) (advfiling.Content, error) {
	if f.err != nil {
		return advfiling.Content{}, f.err
	}
	return advfiling.Content{URL: summaryURL, AUMSummary: "aum", FeesSummary: "fees"}, nil
}

type stubMatcher struct {
	gotProfile funds.RIAProfile
}

func (m *stubMatcher) Match(_ context.Context, profile funds.RIAProfile) ([]funds.Match, error) {
	m.gotProfile = profile
	return []funds.Match{{FundName: "ESG Leaders Fund", Score: 4.5}}, nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fixedIDs struct{ id string }

func (g fixedIDs) NewID() string { return g.id }

func newTestService(store ProfileStore, extractor ArticleExtractor, filings FilingAnalyzer, matcher FundMatcher) *Service {
	return NewService(
		store, extractor, stubAnalyzer{}, filings, matcher,
		fixedClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)},
		fixedIDs{id: "profile-1"},
		zap.NewNop(),
	)
}

func TestCreateProfileAnalyzesAllURLs(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := newTestService(store, &stubExtractor{}, &stubFilings{}, &stubMatcher{})

	urls := []string{"https://a.example.com", "https://b.example.com", "https://c.example.com"}
	p, err := svc.CreateProfile(context.Background(), urls, "met last week")
	require.NoError(t, err)
	require.Equal(t, "profile-1", p.ID)
	require.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), p.CreatedAt)
	require.Equal(t, "met last week", p.MeetingNotes)
	require.Len(t, p.Websites, 3)

	stored, err := store.Get(context.Background(), "profile-1")
	require.NoError(t, err)
	require.Len(t, stored.Websites, 3)
}

func TestCreateProfileSkipsFailedURLs(t *testing.T) {
	t.Parallel()

	extractor := &stubExtractor{failFor: map[string]error{
		"https://bad.example.com": scrape.ErrExtractionFailed,
	}}
	svc := newTestService(newMemStore(), extractor, &stubFilings{}, &stubMatcher{})

	p, err := svc.CreateProfile(context.Background(),
		[]string{"https://good.example.com", "https://bad.example.com"}, "")
	require.NoError(t, err)
	require.Len(t, p.Websites, 1)
	require.Equal(t, "https://good.example.com", p.Websites[0].URL)
}

func TestCreateProfileFailsWhenNothingAnalyzable(t *testing.T) {
	t.Parallel()

	extractor := &stubExtractor{failFor: map[string]error{
		"https://bad.example.com": scrape.ErrExtractionFailed,
	}}
	svc := newTestService(newMemStore(), extractor, &stubFilings{}, &stubMatcher{})

	_, err := svc.CreateProfile(context.Background(), []string{"https://bad.example.com"}, "")
	require.ErrorIs(t, err, ErrNoAnalyzableContent)

	_, err = svc.CreateProfile(context.Background(), nil, "")
	require.ErrorIs(t, err, ErrNoAnalyzableContent)
}

func TestAnalyzeFilingAttachesContent(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := newTestService(store, &stubExtractor{}, &stubFilings{}, &stubMatcher{})

	_, err := svc.CreateProfile(context.Background(), []string{"https://a.example.com"}, "")
	require.NoError(t, err)

	p, err := svc.AnalyzeFiling(context.Background(), "profile-1", "https://adviserinfo.sec.gov/firm/summary/1")
	require.NoError(t, err)
	require.NotNil(t, p.Filing)
	require.Equal(t, "aum", p.Filing.AUMSummary)

	stored, _ := store.Get(context.Background(), "profile-1")
	require.NotNil(t, stored.Filing)
}

func TestAnalyzeFilingUnknownProfile(t *testing.T) {
	t.Parallel()

	svc := newTestService(newMemStore(), &stubExtractor{}, &stubFilings{}, &stubMatcher{})
	_, err := svc.AnalyzeFiling(context.Background(), "missing", "https://adviserinfo.sec.gov/firm/summary/1")
	require.ErrorIs(t, err, ErrProfileNotFound)
}

func TestAnalyzeFilingErrorLeavesProfileUntouched(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := newTestService(store, &stubExtractor{}, &stubFilings{err: errors.New("pdf unreachable")}, &stubMatcher{})

	_, err := svc.CreateProfile(context.Background(), []string{"https://a.example.com"}, "")
	require.NoError(t, err)
	_, err = svc.AnalyzeFiling(context.Background(), "profile-1", "https://adviserinfo.sec.gov/firm/summary/1")
	require.Error(t, err)

	stored, _ := store.Get(context.Background(), "profile-1")
	require.Nil(t, stored.Filing)
}

func TestMatchFundsRequiresCompleteProfile(t *testing.T) {
	t.Parallel()

	svc := newTestService(newMemStore(), &stubExtractor{}, &stubFilings{}, &stubMatcher{})
	_, err := svc.CreateProfile(context.Background(), []string{"https://a.example.com"}, "")
	require.NoError(t, err)

	// No filing yet.
	_, err = svc.MatchFunds(context.Background(), "profile-1")
	require.ErrorIs(t, err, ErrProfileIncomplete)
}

func TestMatchFundsBuildsFullRIAProfile(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	matcher := &stubMatcher{}
	svc := newTestService(store, &stubExtractor{}, &stubFilings{}, matcher)

	_, err := svc.CreateProfile(context.Background(), []string{"https://a.example.com"}, "notes")
	require.NoError(t, err)
	_, err = svc.AnalyzeFiling(context.Background(), "profile-1", "https://adviserinfo.sec.gov/firm/summary/1")
	require.NoError(t, err)

	p, err := svc.MatchFunds(context.Background(), "profile-1")
	require.NoError(t, err)
	require.Len(t, p.Matches, 1)
	require.Equal(t, "ESG Leaders Fund", p.Matches[0].FundName)

	require.Equal(t, "aum", matcher.gotProfile.AUMSummary)
	require.Equal(t, "fees", matcher.gotProfile.FeesSummary)
	require.Equal(t, "notes", matcher.gotProfile.MeetingNotes)
	require.Len(t, matcher.gotProfile.WebsiteAnalyses, 1)

	stored, _ := store.Get(context.Background(), "profile-1")
	require.Len(t, stored.Matches, 1)
}

func TestGetProfile(t *testing.T) {
	t.Parallel()

	svc := newTestService(newMemStore(), &stubExtractor{}, &stubFilings{}, &stubMatcher{})
	_, err := svc.GetProfile(context.Background(), "missing")
	require.ErrorIs(t, err, ErrProfileNotFound)

	_, err = svc.CreateProfile(context.Background(), []string{"https://a.example.com"}, "")
	require.NoError(t, err)
	p, err := svc.GetProfile(context.Background(), "profile-1")
	require.NoError(t, err)
	require.Equal(t, "profile-1", p.ID)
}
