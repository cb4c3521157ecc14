package scrape

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// HeadlessConfig controls the chromedp-backed fetcher used by the fallback
// extraction path.
type HeadlessConfig struct {
	UserAgent         string
	MaxParallel       int
	NavigationTimeout time.Duration
}

// HeadlessFetcher renders pages in headless Chrome and returns the settled
// DOM. It is an explicit, caller-owned engine: construct once, pass by
// reference, Close when done.
type HeadlessFetcher struct {
	cfg         HeadlessConfig
	allocator   context.Context
	allocCancel context.CancelFunc
	sem         chan struct{}
	limiter     *HostLimiter
	logger      *zap.Logger
	statusMu    sync.Mutex
}

// NewHeadlessFetcher builds the chromedp allocator for the engine.
func NewHeadlessFetcher(cfg HeadlessConfig, limiter *HostLimiter, logger *zap.Logger) (*HeadlessFetcher, error) {
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = 1
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 45 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &HeadlessFetcher{
		cfg:         cfg,
		allocator:   allocCtx,
		allocCancel: allocCancel,
		sem:         make(chan struct{}, cfg.MaxParallel),
		limiter:     limiter,
		logger:      logger,
	}, nil
}

// Close tears down the browser allocator.
func (f *HeadlessFetcher) Close() {
	f.allocCancel()
}

// Fetch navigates to rawURL with JavaScript enabled and returns the rendered
// document. The same politeness limiter used by the plain fetcher applies,
// since this is the heavier, slower path.
func (f *HeadlessFetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	select {
	case f.sem <- struct{}{}:
	case <-ctx.Done():
		return Page{}, fmt.Errorf("headless slot wait canceled: %w", ctx.Err())
	}
	defer func() { <-f.sem }()

	release, err := f.limiter.Acquire(ctx, rawURL)
	if err != nil {
		return Page{}, err
	}
	defer release()

	taskCtx, cancelTask := chromedp.NewContext(f.allocator)
	defer cancelTask()
	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, f.cfg.NavigationTimeout)
	defer cancelTimeout()

	var status int
	chromedp.ListenTarget(taskCtx, func(ev any) {
		resp, ok := ev.(*network.EventResponseReceived)
		if !ok || resp.Type != network.ResourceTypeDocument || resp.Response == nil {
			return
		}
		f.statusMu.Lock()
		status = int(resp.Response.Status)
		f.statusMu.Unlock()
	})

	var (
		html     string
		finalURL string
	)
	actions := []chromedp.Action{
		f.networkSetupAction(),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return Page{}, fmt.Errorf("headless fetch %s: %w", rawURL, err)
	}

	f.statusMu.Lock()
	finalStatus := status
	f.statusMu.Unlock()
	if finalStatus == 0 {
		finalStatus = http.StatusOK
	}
	if finalURL == "" {
		finalURL = rawURL
	}
	f.logger.Debug("headless fetch complete",
		zap.String("url", rawURL), zap.Int("status", finalStatus), zap.Int("bytes", len(html)))

	return Page{
		URL:        rawURL,
		FinalURL:   finalURL,
		StatusCode: finalStatus,
		Body:       []byte(html),
	}, nil
}

func (f *HeadlessFetcher) networkSetupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if f.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(f.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		return nil
	})
}
