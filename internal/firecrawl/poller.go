package firecrawl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/VictorW-repo/astral-assessment/internal/urlutil"
)

// Crawl discovers pages under rawURL through the backend's asynchronous
// crawl protocol: submit a job, then poll its status until it reaches a
// terminal state or the configured wall-clock deadline elapses. The
// deadline guarantees termination regardless of backend behavior; a
// failed status check never aborts polling since job state is durable
// server-side.
func (c *Client) Crawl(ctx context.Context, rawURL string, limit int) (CrawlResult, error) {
	if !c.HasKey() {
		return CrawlResult{}, &Error{Code: CodeNoAPIKey}
	}
	normalized, err := urlutil.Normalize(rawURL)
	if err != nil {
		return CrawlResult{}, &Error{Code: CodeInvalidURL}
	}
	if limit <= 0 || limit > c.cfg.MaxCrawlURLs {
		limit = c.cfg.MaxCrawlURLs
	}

	job, err := c.submitCrawl(ctx, normalized, limit)
	if err != nil {
		return CrawlResult{}, err
	}
	c.logger.Info("crawl job submitted",
		zap.String("url", normalized),
		zap.String("job_id", job.ID),
		zap.Int("limit", limit),
	)
	return c.pollCrawl(ctx, job)
}

func (c *Client) submitCrawl(ctx context.Context, url string, limit int) (CrawlJob, error) {
	payload := crawlPayload{
		URL:               url,
		Limit:             limit,
		MaxDepth:          3,
		IncludeSubdomains: false,
		IgnoreSitemap:     false,
		ScrapeOptions: crawlScrapeOptions{
			Formats:         []string{"markdown"},
			OnlyMainContent: true,
		},
	}
	status, body, err := c.do(ctx, "crawl_submit", http.MethodPost, "/crawl", payload)
	if err != nil {
		return CrawlJob{}, err
	}
	if status < 200 || status >= 300 {
		return CrawlJob{}, &Error{Code: HTTPCode(status), HTTPStatus: status}
	}

	var parsed crawlSubmitResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return CrawlJob{}, fmt.Errorf("unmarshal crawl submit response: %w", err)
	}
	if !parsed.Success {
		c.logger.Warn("crawl submit rejected", zap.String("url", url), zap.String("error", parsed.Error))
		return CrawlJob{}, &Error{Code: CodeAPIFailure}
	}
	if parsed.ID == "" {
		return CrawlJob{}, &Error{Code: CodeNoJobID}
	}
	return CrawlJob{ID: parsed.ID, StartedAt: time.Now()}, nil
}

func (c *Client) pollCrawl(ctx context.Context, job CrawlJob) (CrawlResult, error) {
	deadline := job.StartedAt.Add(c.cfg.MaxCrawlWait)
	for {
		if !time.Now().Before(deadline) {
			c.logger.Warn("crawl job deadline exceeded",
				zap.String("job_id", job.ID),
				zap.Duration("max_wait", c.cfg.MaxCrawlWait),
			)
			return CrawlResult{}, &Error{Code: CodeCrawlTimeout}
		}

		job.LastPolledAt = time.Now()
		parsed, ok := c.checkCrawl(ctx, job.ID)
		if ok {
			switch parsed.Status {
			case crawlStatusCompleted:
				return parseCrawlItems(parsed.Data), nil
			case crawlStatusFailed:
				return CrawlResult{}, &Error{Code: CodeCrawlFailed}
			default:
				// queued / processing / scraping / anything unrecognized:
				// still in progress.
			}
		}

		if err := sleepCtx(ctx, c.cfg.PollInterval); err != nil {
			return CrawlResult{}, fmt.Errorf("crawl poll wait: %w", err)
		}
	}
}

// checkCrawl performs one status request. A failed check (transport error,
// non-2xx, bad payload) is reported as not-ok so the poll loop retries at
// the next tick.
func (c *Client) checkCrawl(ctx context.Context, jobID string) (crawlStatusResponse, bool) {
	status, body, err := c.do(ctx, "crawl_status", http.MethodGet, "/crawl/"+jobID, nil)
	if err != nil {
		c.logger.Warn("crawl status check failed", zap.String("job_id", jobID), zap.Error(err))
		return crawlStatusResponse{}, false
	}
	if status < 200 || status >= 300 {
		c.logger.Warn("crawl status check returned error",
			zap.String("job_id", jobID),
			zap.Int("status", status),
		)
		return crawlStatusResponse{}, false
	}
	var parsed crawlStatusResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.logger.Warn("crawl status unmarshal failed", zap.String("job_id", jobID), zap.Error(err))
		return crawlStatusResponse{}, false
	}
	return parsed, true
}

// parseCrawlItems extracts documents from a completed job. Items without
// an extractable source URL are dropped.
func parseCrawlItems(items []crawlItem) CrawlResult {
	result := CrawlResult{Documents: make([]CrawlDocument, 0, len(items))}
	for _, item := range items {
		src := item.sourceURL()
		if src == "" {
			continue
		}
		result.Documents = append(result.Documents, CrawlDocument{
			URL:     src,
			Content: item.content(),
		})
	}
	return result
}
