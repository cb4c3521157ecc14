// Command riaanalyst runs the RIA analysis HTTP service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mwhitfield/ria-analyst/internal/advfiling"
	"github.com/mwhitfield/ria-analyst/internal/analysis"
	"github.com/mwhitfield/ria-analyst/internal/api"
	"github.com/mwhitfield/ria-analyst/internal/config"
	"github.com/mwhitfield/ria-analyst/internal/funds"
	"github.com/mwhitfield/ria-analyst/internal/llm"
	"github.com/mwhitfield/ria-analyst/internal/logging"
	"github.com/mwhitfield/ria-analyst/internal/ria"
	"github.com/mwhitfield/ria-analyst/internal/scrape"
	"github.com/mwhitfield/ria-analyst/internal/storage/memory"
	"github.com/mwhitfield/ria-analyst/internal/storage/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "riaanalyst: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	robots := scrape.NewRobotsPolicy(cfg.Scrape.RespectRobots, cfg.Scrape.UserAgent, logger.Named("robots"))
	limiter := scrape.NewHostLimiter(time.Duration(cfg.Scrape.PolitenessDelaySeconds) * time.Second)

	primary := scrape.NewCollyFetcher(scrape.FetcherConfig{
		UserAgent:         cfg.Scrape.UserAgent,
		Timeout:           cfg.ScrapeTimeout(),
		MaxAttempts:       cfg.Scrape.MaxAttempts,
		RetryDelay:        time.Duration(cfg.Scrape.RetryDelaySeconds) * time.Second,
		RetryableStatuses: cfg.Scrape.RetryableStatuses,
	}, robots, limiter, logger.Named("fetcher"))

	var fallback scrape.Fetcher
	if cfg.Headless.Enabled {
		headless, err := scrape.NewHeadlessFetcher(scrape.HeadlessConfig{
			UserAgent:         cfg.Scrape.UserAgent,
			MaxParallel:       cfg.Headless.MaxParallel,
			NavigationTimeout: time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
		}, limiter, logger.Named("headless"))
		if err != nil {
			return fmt.Errorf("build headless fetcher: %w", err)
		}
		defer headless.Close()
		fallback = headless
	} else {
		fallback = primary
	}

	validator := scrape.NewValidator(logger.Named("validator"))
	extractor := scrape.NewExtractor(primary, fallback, validator, logger.Named("extractor"))

	llmClient := llm.New(llm.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
	})
	contentAnalyzer := analysis.NewAnalyzer(llmClient, cfg.LLM.Model, logger.Named("analysis"))
	filingAnalyzer := advfiling.NewAnalyzer(advfiling.Config{
		ADVReportURL: cfg.Filing.ADVReportURL,
		CRSReportURL: cfg.Filing.CRSReportURL,
		UserAgent:    cfg.Scrape.UserAgent,
	}, llmClient, cfg.LLM.Model, logger.Named("advfiling"))
	matcher := funds.NewMatcher(llmClient, cfg.LLM.Model, logger.Named("funds"))

	var store ria.ProfileStore
	if cfg.DB.DSN != "" {
		pgStore, err := postgres.NewProfileStore(ctx, postgres.ProfileStoreConfig{
			DSN:   cfg.DB.DSN,
			Table: cfg.DB.Table,
		})
		if err != nil {
			return fmt.Errorf("build profile store: %w", err)
		}
		store = pgStore
	} else {
		logger.Info("db.dsn not set, using in-memory profile store")
		store = memory.NewProfileStore()
	}
	defer store.Close()

	service := ria.NewService(
		store, extractor, contentAnalyzer, filingAnalyzer, matcher,
		ria.SystemClock{}, ria.UUIDGenerator{}, logger.Named("ria"),
	)
	server := api.NewServer(service, cfg, logger.Named("api"))

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
