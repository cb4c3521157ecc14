package scrape

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// fetchAttempts tracks every HTTP attempt the fetcher makes.
	fetchAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scrape_fetch_attempts_total",
		Help: "The total number of HTTP fetch attempts, including retries.",
	})
	// fetchErrors tracks attempts that ended in a network error or non-2xx status.
	fetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scrape_fetch_errors_total",
		Help: "The total number of failed HTTP fetch attempts.",
	})
	// strategyOutcomes tracks validation outcomes per extraction strategy.
	strategyOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrape_strategy_outcomes_total",
		Help: "Extraction strategy results, labeled by strategy and outcome.",
	}, []string{"strategy", "outcome"})
	// extractionFailures tracks extractions where no strategy produced valid content.
	extractionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scrape_extraction_failures_total",
		Help: "The total number of extractions that failed across all strategies.",
	})
)

func observeFetchAttempt(status int, err error) {
	fetchAttempts.Inc()
	if err != nil || status < 200 || status >= 300 {
		fetchErrors.Inc()
	}
}

func observeStrategy(strategy Strategy, valid bool) {
	outcome := "invalid"
	if valid {
		outcome = "valid"
	}
	strategyOutcomes.WithLabelValues(string(strategy), outcome).Inc()
}
