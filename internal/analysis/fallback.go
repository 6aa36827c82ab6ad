package analysis

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/VictorW-repo/astral-assessment/internal/urlutil"
)

// FallbackConfig controls the direct fetcher used when the scraping
// backend is unavailable.
type FallbackConfig struct {
	UserAgent string
	Timeout   time.Duration
	// RequestsPerSecond throttles direct fetches. Zero means 1 rps.
	RequestsPerSecond float64
	// SimpleHosts lists registrable domains considered safe to fetch
	// directly (static pages that need no JS rendering).
	SimpleHosts []string
}

func (c FallbackConfig) withDefaults() FallbackConfig {
	if c.UserAgent == "" {
		c.UserAgent = "astral-intake/1.0"
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 1
	}
	if len(c.SimpleHosts) == 0 {
		c.SimpleHosts = []string{
			"example.com", "example.org", "example.net",
			"httpbin.org", "test.com",
		}
	}
	return c
}

// FallbackFetcher fetches pages directly over plain HTTP and converts
// them to markdown. It exists for the degraded path only: when the
// backend rejects a whole batch, simple static pages can still be read
// without it.
type FallbackFetcher struct {
	cfg           FallbackConfig
	baseCollector *colly.Collector
	limiter       *rate.Limiter
	simpleHosts   map[string]struct{}
	logger        *zap.Logger
}

// NewFallbackFetcher builds a fetcher. logger may be nil.
func NewFallbackFetcher(cfg FallbackConfig, logger *zap.Logger) *FallbackFetcher {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = false
	c.WithTransport(newHTTPTransport())

	hosts := make(map[string]struct{}, len(cfg.SimpleHosts))
	for _, h := range cfg.SimpleHosts {
		hosts[strings.ToLower(h)] = struct{}{}
	}
	return &FallbackFetcher{
		cfg:           cfg,
		baseCollector: c,
		limiter:       rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		simpleHosts:   hosts,
		logger:        logger,
	}
}

// IsSimple reports whether a URL is safe for direct fetching: its host is
// on the allowlist, or its path is at most one shallow segment (near-root
// pages on any host tend to be static).
func (f *FallbackFetcher) IsSimple(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	if _, ok := f.simpleHosts[host]; ok {
		return true
	}
	path := strings.Trim(parsed.Path, "/")
	return path == "" || (!strings.Contains(path, "/") && len(path) <= 20)
}

// Fetch retrieves one page and returns it as markdown. The politeness
// limiter is applied before the request goes out.
func (f *FallbackFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	normalized, err := urlutil.Normalize(rawURL)
	if err != nil {
		return "", fmt.Errorf("fallback fetch: %w", err)
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("fallback fetch throttle: %w", err)
	}

	var (
		body       []byte
		statusCode int
		fetchErr   error
	)
	collector := f.baseCollector.Clone()
	collector.UserAgent = f.cfg.UserAgent
	collector.SetRequestTimeout(f.cfg.Timeout)
	collector.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(normalized)
	}()
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("fallback fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("fallback fetch %s: %w", normalized, err)
		}
	}
	if fetchErr != nil {
		return "", fmt.Errorf("fallback fetch %s: %w", normalized, fetchErr)
	}
	if statusCode >= 400 {
		return "", fmt.Errorf("fallback fetch %s: status %d", normalized, statusCode)
	}

	markdown, err := HTMLToMarkdown(body)
	if err != nil {
		return "", fmt.Errorf("fallback fetch %s: %w", normalized, err)
	}
	f.logger.Debug("fallback fetch succeeded",
		zap.String("url", normalized),
		zap.Int("bytes", len(markdown)),
	)
	return markdown, nil
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
