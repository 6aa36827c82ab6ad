package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/VictorW-repo/astral-assessment/internal/telemetry"
	"github.com/VictorW-repo/astral-assessment/internal/urlutil"
)

// Config controls client behavior. Zero values fall back to defaults.
type Config struct {
	BaseURL           string
	APIKey            string
	UserAgent         string
	RequestTimeout    time.Duration
	MaxRetries        int
	BackoffBase       time.Duration
	BackoffMax        time.Duration
	RequestsPerMinute int
	PollInterval      time.Duration
	MaxCrawlWait      time.Duration
	MaxCrawlURLs      int
	BatchConcurrency  int
	BatchDelay        time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.firecrawl.dev/v2"
	}
	if c.UserAgent == "" {
		c.UserAgent = "astral-assessment/1.0"
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	} else if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = time.Second
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = 60 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.MaxCrawlWait <= 0 {
		c.MaxCrawlWait = 5 * time.Minute
	}
	if c.MaxCrawlURLs <= 0 {
		c.MaxCrawlURLs = 50
	}
	if c.BatchConcurrency <= 0 {
		c.BatchConcurrency = 3
	}
	if c.BatchDelay < 0 {
		c.BatchDelay = 0
	} else if c.BatchDelay == 0 {
		c.BatchDelay = 500 * time.Millisecond
	}
	return c
}

// Client talks to the scraping backend. Rate-limiter and breaker state are
// private to the instance; construct one per backend key and inject it.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *RateLimiter
	breaker    *CircuitBreaker
	logger     *zap.Logger
}

// New builds a Client. Without an API key the client still constructs but
// reports every operation as skipped; the rate limiter is disabled since
// there is no quota to protect.
func New(cfg Config, logger *zap.Logger) *Client {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	var limiter *RateLimiter
	if cfg.APIKey != "" && cfg.RequestsPerMinute > 0 {
		limiter = NewRateLimiter(cfg.RequestsPerMinute, time.Minute)
	}
	logger.Info("firecrawl client initialized",
		zap.Bool("api_key_present", cfg.APIKey != ""),
		zap.String("base_url", cfg.BaseURL),
	)
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		limiter:    limiter,
		breaker:    NewCircuitBreaker(defaultBreakerThreshold, defaultBreakerCooldown),
		logger:     logger,
	}
}

// HasKey reports whether the client is configured with backend credentials.
func (c *Client) HasKey() bool {
	return c.cfg.APIKey != ""
}

// do issues one logical backend call with rate-limiter admission, circuit
// breaker short-circuit, and a bounded retry loop. 429, 5xx and transport
// timeouts are retried with jittered exponential backoff; other HTTP
// statuses are terminal and returned to the caller for classification.
// A non-nil error means no usable HTTP response was obtained.
func (c *Client) do(ctx context.Context, operation, method, path string, payload any) (int, []byte, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal %s payload: %w", operation, err)
		}
	}

	var (
		lastStatus int
		lastBody   []byte
		lastErr    error
	)
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if c.breaker.IsOpen() {
			c.logger.Warn("circuit breaker open, failing fast", zap.String("operation", operation))
			telemetry.ObserveBackendRequest(operation, "circuit_open", 0)
			return 0, nil, &Error{Code: CodeCircuitOpen}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		start := time.Now()
		status, respBody, err := c.roundTrip(ctx, method, path, body)
		duration := time.Since(start)

		switch {
		case err != nil:
			if ctx.Err() != nil {
				return 0, nil, fmt.Errorf("%s request: %w", operation, ctx.Err())
			}
			c.breaker.RecordFailure()
			telemetry.ObserveBackendRequest(operation, "transport_error", duration)
			c.logger.Warn("backend request failed",
				zap.String("operation", operation),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			lastErr = err
		case status == http.StatusTooManyRequests || status >= 500:
			c.breaker.RecordFailure()
			telemetry.ObserveBackendRequest(operation, fmt.Sprintf("http_%d", status), duration)
			c.logger.Warn("backend returned retryable status",
				zap.String("operation", operation),
				zap.Int("attempt", attempt),
				zap.Int("status", status),
			)
			lastStatus, lastBody, lastErr = status, respBody, nil
		case status >= 400:
			// Terminal client error: recorded, never retried.
			c.breaker.RecordFailure()
			telemetry.ObserveBackendRequest(operation, fmt.Sprintf("http_%d", status), duration)
			return status, respBody, nil
		default:
			c.breaker.RecordSuccess()
			telemetry.ObserveBackendRequest(operation, "success", duration)
			return status, respBody, nil
		}

		if attempt < c.cfg.MaxRetries {
			if err := sleepCtx(ctx, c.backoff(attempt)); err != nil {
				return 0, nil, err
			}
		}
	}

	if lastStatus != 0 {
		return lastStatus, lastBody, nil
	}
	code := CodeNetworkError
	if isTimeout(lastErr) {
		code = CodeTimeout
	}
	return 0, nil, &Error{Code: code}
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return 0, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// backoff computes the sleep before retrying attempt, clamped to the
// configured maximum with ±25% uniform jitter.
func (c *Client) backoff(attempt int) time.Duration {
	delay := float64(c.cfg.BackoffBase)
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= float64(c.cfg.BackoffMax) {
			break
		}
	}
	if delay > float64(c.cfg.BackoffMax) {
		delay = float64(c.cfg.BackoffMax)
	}
	jittered := delay * (0.75 + 0.5*rand.Float64())
	return time.Duration(jittered)
}

// Scrape fetches one page through the backend and returns a tagged result.
// It never returns an error: every failure mode maps to a non-success
// status with a reason code.
func (c *Client) Scrape(ctx context.Context, rawURL, format string) ScrapeResult {
	if !c.HasKey() {
		c.logger.Debug("no api key, skipping scrape", zap.String("url", rawURL))
		res := failure(rawURL, StatusSkipped, CodeNoAPIKey)
		res.Content = fmt.Sprintf("[Content from %s would be scraped here]", rawURL)
		return res
	}

	normalized, err := urlutil.Normalize(rawURL)
	if err != nil {
		return failure(rawURL, StatusError, CodeInvalidURL)
	}

	payload := scrapePayload{
		URL:             normalized,
		Formats:         []string{format},
		OnlyMainContent: true,
		IncludeTags:     []string{"h1", "h2", "h3", "p", "li", "strong", "em"},
		ExcludeTags:     []string{"script", "style", "nav", "footer", "header"},
		WaitFor:         2000,
		Timeout:         15000,
	}

	status, body, err := c.do(ctx, "scrape", http.MethodPost, "/scrape", payload)
	if err != nil {
		return failure(normalized, scrapeStatusForError(err), codeForError(err))
	}

	switch {
	case status == http.StatusTooManyRequests:
		c.logger.Warn("rate limited while scraping", zap.String("url", normalized))
		return failure(normalized, StatusRateLimited, CodeRateLimited)
	case status < 200 || status >= 300:
		c.logger.Warn("scrape failed", zap.String("url", normalized), zap.Int("status", status))
		return failure(normalized, StatusError, HTTPCode(status))
	}

	var parsed scrapeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.logger.Warn("scrape response unmarshal failed", zap.String("url", normalized), zap.Error(err))
		return failure(normalized, StatusError, CodeScrapeError)
	}
	if !parsed.Success {
		return failure(normalized, StatusError, CodeAPIFailure)
	}

	content := parsed.Data.content()
	c.logger.Debug("scraped page",
		zap.String("url", normalized),
		zap.Int("content_length", len(content)),
	)
	return ScrapeResult{
		URL:     normalized,
		Status:  StatusSuccess,
		Content: content,
		Format:  format,
		Method:  MethodFirecrawl,
	}
}

// BatchScrape scrapes urls with bounded concurrency and a small delay
// before each request. Results are positionally aligned with the input
// regardless of completion order.
func (c *Client) BatchScrape(ctx context.Context, urls []string, format string) []ScrapeResult {
	if len(urls) == 0 {
		return nil
	}
	results := make([]ScrapeResult, len(urls))
	sem := make(chan struct{}, c.cfg.BatchConcurrency)
	var wg sync.WaitGroup

	for i, u := range urls {
		wg.Add(1)
		go func(idx int, target string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[idx] = failure(target, StatusError, CodeScrapeError)
				return
			}
			if err := sleepCtx(ctx, c.cfg.BatchDelay); err != nil {
				results[idx] = failure(target, StatusError, CodeScrapeError)
				return
			}
			results[idx] = c.Scrape(ctx, target, format)
		}(i, u)
	}
	wg.Wait()
	return results
}

func scrapeStatusForError(err error) ScrapeStatus {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Code == CodeTimeout {
		return StatusTimeout
	}
	return StatusError
}

func codeForError(err error) Code {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return CodeScrapeError
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "Client.Timeout")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
