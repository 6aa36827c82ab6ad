package analysis

import (
	"context"

	"go.uber.org/zap"

	"github.com/VictorW-repo/astral-assessment/internal/firecrawl"
	"github.com/VictorW-repo/astral-assessment/internal/telemetry"
)

// ScrapeStats summarizes one batch.
type ScrapeStats struct {
	Total       int     `json:"total"`
	Succeeded   int     `json:"succeeded"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}

// ScrapeOutcome carries per-URL results in input order plus batch stats.
type ScrapeOutcome struct {
	Results []firecrawl.ScrapeResult `json:"results"`
	Stats   ScrapeStats              `json:"stats"`
}

// Scraper runs batch scrapes through the backend and post-processes the
// content. When the backend rejects an entire batch with payment errors,
// simple URLs are retried through the direct fetcher.
type Scraper struct {
	client   *firecrawl.Client
	fallback *FallbackFetcher
	logger   *zap.Logger
}

// NewScraper builds a Scraper. fallback may be nil to disable the
// degraded path; logger may be nil.
func NewScraper(client *firecrawl.Client, fallback *FallbackFetcher, logger *zap.Logger) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{client: client, fallback: fallback, logger: logger}
}

// ScrapeAll scrapes every URL, preserving input order in the results.
// Individual failures stay in the batch as tagged results; the only
// batch-level reaction is the all-402 degraded retry.
func (s *Scraper) ScrapeAll(ctx context.Context, urls []string, format string) ScrapeOutcome {
	results := s.client.BatchScrape(ctx, urls, format)

	for i := range results {
		if results[i].Status == firecrawl.StatusSuccess {
			results[i].Content = CleanMarkdown(results[i].Content)
		}
	}

	if s.fallback != nil && creditsExhausted(results) {
		s.logger.Warn("entire batch rejected with payment errors, trying direct fetch",
			zap.Int("urls", len(results)))
		s.retrySimple(ctx, results)
	}

	stats := ScrapeStats{Total: len(results)}
	for _, r := range results {
		telemetry.ObserveScrapeResult(string(r.Status), r.Method)
		if r.Status == firecrawl.StatusSuccess {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
	}
	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Succeeded) / float64(stats.Total)
	}
	s.logger.Info("batch scrape finished",
		zap.Int("total", stats.Total),
		zap.Int("succeeded", stats.Succeeded),
		zap.Int("failed", stats.Failed),
	)
	return ScrapeOutcome{Results: results, Stats: stats}
}

// creditsExhausted reports whether a non-empty batch failed entirely on
// an exhausted backend plan. Each 402 records a breaker failure, so in
// a batch larger than the breaker threshold the later URLs come back as
// circuit_breaker_open rather than http_402; those count too, as long
// as at least one explicit 402 identifies the cause.
func creditsExhausted(results []firecrawl.ScrapeResult) bool {
	saw402 := false
	for _, r := range results {
		switch r.Reason {
		case firecrawl.CodePaymentRequired:
			saw402 = true
		case firecrawl.CodeCircuitOpen:
		default:
			return false
		}
	}
	return saw402
}

// retrySimple replaces failed results for simple URLs with direct-fetch
// results. Complex URLs keep their original failure.
func (s *Scraper) retrySimple(ctx context.Context, results []firecrawl.ScrapeResult) {
	for i := range results {
		url := results[i].URL
		if !s.fallback.IsSimple(url) {
			continue
		}
		content, err := s.fallback.Fetch(ctx, url)
		if err != nil {
			s.logger.Debug("direct fetch failed", zap.String("url", url), zap.Error(err))
			continue
		}
		results[i] = firecrawl.ScrapeResult{
			URL:     url,
			Status:  firecrawl.StatusSuccess,
			Content: content,
			Format:  "markdown",
			Method:  firecrawl.MethodFallback,
		}
	}
}
