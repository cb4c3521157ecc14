package scrape

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// FetcherConfig controls retry and identity behavior of the HTTP fetcher.
type FetcherConfig struct {
	UserAgent         string
	Timeout           time.Duration
	MaxAttempts       int
	RetryDelay        time.Duration
	RetryableStatuses []int
}

// defaultRetryableStatuses are the transient HTTP statuses worth retrying.
var defaultRetryableStatuses = []int{408, 429, 500, 502, 503, 504, 522, 524}

// CollyFetcher fetches single URLs through a Colly collector with a bounded
// retry budget, per-host politeness, and a robots gate.
type CollyFetcher struct {
	cfg       FetcherConfig
	base      *colly.Collector
	robots    RobotsPolicy
	limiter   *HostLimiter
	retryable map[int]struct{}
	logger    *zap.Logger
}

// NewCollyFetcher builds a fetcher. The robots policy runs before any request
// leaves the process; Colly's own robots handling is disabled so the check is
// not duplicated.
func NewCollyFetcher(cfg FetcherConfig, robots RobotsPolicy, limiter *HostLimiter, logger *zap.Logger) *CollyFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay < time.Second {
		cfg.RetryDelay = time.Second
	}
	statuses := cfg.RetryableStatuses
	if len(statuses) == 0 {
		statuses = defaultRetryableStatuses
	}
	retryable := make(map[int]struct{}, len(statuses))
	for _, s := range statuses {
		retryable[s] = struct{}{}
	}

	base := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.IgnoreRobotsTxt(),
	)
	base.AllowURLRevisit = true
	base.SetRequestTimeout(cfg.Timeout)
	base.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	})

	return &CollyFetcher{
		cfg:       cfg,
		base:      base,
		robots:    robots,
		limiter:   limiter,
		retryable: retryable,
		logger:    logger,
	}
}

// Fetch retrieves rawURL, retrying retryable statuses and network errors up
// to the attempt budget with a fixed delay between attempts to the same host.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	if f.robots != nil && !f.robots.Allowed(ctx, rawURL) {
		f.logger.Info("fetch blocked by robots policy", zap.String("url", rawURL))
		return Page{}, fmt.Errorf("fetch %s: %w", rawURL, ErrPolicyBlocked)
	}

	var (
		lastStatus   int
		lastErr      error
		attemptsMade int
	)
	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		attemptsMade = attempt
		page, status, err := f.visit(ctx, rawURL)
		lastStatus, lastErr = status, err

		f.logger.Info("fetch attempt",
			zap.String("url", rawURL),
			zap.Int("status", status),
			zap.Int("attempt", attempt),
		)
		observeFetchAttempt(status, err)

		if err == nil && status >= 200 && status < 300 {
			return page, nil
		}
		if ctx.Err() != nil {
			return Page{}, fmt.Errorf("fetch %s: %w", rawURL, ctx.Err())
		}
		if !f.shouldRetry(status, err) {
			break
		}
		if attempt < f.cfg.MaxAttempts {
			if sleepErr := sleepWithContext(ctx, f.cfg.RetryDelay); sleepErr != nil {
				return Page{}, fmt.Errorf("fetch %s: %w", rawURL, sleepErr)
			}
		}
	}
	return Page{}, &FetchError{
		URL:        rawURL,
		StatusCode: lastStatus,
		Attempts:   attemptsMade,
		Err:        lastErr,
	}
}

// visit performs exactly one HTTP GET through a cloned collector.
func (f *CollyFetcher) visit(ctx context.Context, rawURL string) (Page, int, error) {
	release, err := f.limiter.Acquire(ctx, rawURL)
	if err != nil {
		return Page{}, 0, err
	}
	defer release()

	collector := f.base.Clone()

	var (
		page     Page
		status   int
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		page = Page{
			URL:        rawURL,
			FinalURL:   r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		// page/status/fetchErr belong to the Visit goroutine until done is
		// signaled; they must not be read on this branch.
		return Page{}, 0, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case visitErr := <-done:
		if fetchErr != nil {
			return Page{}, status, fetchErr
		}
		if visitErr != nil {
			return Page{}, status, visitErr
		}
		return page, status, nil
	}
}

func (f *CollyFetcher) shouldRetry(status int, err error) bool {
	if _, ok := f.retryable[status]; ok {
		return true
	}
	if status != 0 {
		// A definite non-retryable HTTP status wins over the wrapped error.
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return err != nil
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("retry backoff: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
