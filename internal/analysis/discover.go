// Package analysis turns a company website into structured intelligence:
// URL discovery, value-based filtering, and content scraping with a
// degraded direct-fetch path.
package analysis

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/VictorW-repo/astral-assessment/internal/firecrawl"
	"github.com/VictorW-repo/astral-assessment/internal/urlutil"
)

// Discovery methods recorded on outcomes.
const (
	MethodCrawl            = "crawl"
	MethodFallbackPatterns = "fallback_patterns"
)

// fallbackPaths is the static catalog probed when crawling is
// unavailable. Ordered by typical business-intelligence value.
var fallbackPaths = []string{
	"", "/about", "/about-us", "/our-story", "/mission",
	"/team", "/leadership", "/our-team",
	"/services", "/solutions", "/products", "/what-we-do",
	"/case-studies", "/portfolio", "/our-work",
	"/clients", "/customers", "/testimonials",
	"/blog", "/news", "/insights", "/resources",
	"/contact", "/contact-us", "/careers", "/jobs",
	"/investors", "/investor-relations", "/press", "/media",
	"/index.html", "/about.html", "/services.html", "/contact.html",
}

// DiscoverOutcome is the product of one discovery pass. It is always
// populated: even a catastrophic failure yields the input URL as the
// sole candidate so the pipeline can continue degraded.
type DiscoverOutcome struct {
	URLs       []string       `json:"urls"`
	TotalFound int            `json:"total_found"`
	Method     string         `json:"method"`
	Status     string         `json:"status,omitempty"`
	Reason     firecrawl.Code `json:"reason,omitempty"`
}

// Discoverer finds candidate pages on a website, preferring the crawl
// backend and degrading to a static path catalog.
type Discoverer struct {
	client *firecrawl.Client
	limit  int
	logger *zap.Logger
}

// NewDiscoverer builds a Discoverer. limit caps discovered URLs; zero or
// negative means 50.
func NewDiscoverer(client *firecrawl.Client, limit int, logger *zap.Logger) *Discoverer {
	if limit <= 0 {
		limit = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discoverer{client: client, limit: limit, logger: logger}
}

// Discover finds pages under websiteURL. Without an API key it goes
// straight to the fallback catalog. With one, it runs a crawl job and
// keeps only same-domain URLs, deduplicated in first-seen order; a crawl
// failure degrades to the input URL alone rather than erroring out.
func (d *Discoverer) Discover(ctx context.Context, websiteURL string) DiscoverOutcome {
	normalized, err := urlutil.Normalize(websiteURL)
	if err != nil {
		d.logger.Warn("discovery rejected invalid url", zap.String("url", websiteURL))
		return DiscoverOutcome{
			URLs:   []string{},
			Method: MethodFallbackPatterns,
			Status: "error",
			Reason: firecrawl.CodeInvalidURL,
		}
	}

	if !d.client.HasKey() {
		d.logger.Info("no api key configured, using fallback url patterns",
			zap.String("url", normalized))
		urls := FallbackURLs(normalized)
		return DiscoverOutcome{
			URLs:       urls,
			TotalFound: len(urls),
			Method:     MethodFallbackPatterns,
		}
	}

	result, err := d.client.Crawl(ctx, normalized, d.limit)
	if err != nil {
		reason := firecrawl.CodeAPIFailure
		var apiErr *firecrawl.Error
		if errors.As(err, &apiErr) {
			reason = apiErr.Code
		}
		d.logger.Warn("crawl discovery failed, degrading to input url",
			zap.String("url", normalized),
			zap.String("reason", string(reason)),
			zap.Error(err),
		)
		return DiscoverOutcome{
			URLs:       []string{normalized},
			TotalFound: 1,
			Method:     MethodCrawl,
			Status:     "degraded",
			Reason:     reason,
		}
	}

	urls := sameDomainDedupe(result.URLs(), normalized, d.limit)
	d.logger.Info("crawl discovery completed",
		zap.String("url", normalized),
		zap.Int("raw", len(result.Documents)),
		zap.Int("kept", len(urls)),
	)
	return DiscoverOutcome{
		URLs:       urls,
		TotalFound: len(urls),
		Method:     MethodCrawl,
	}
}

// FallbackURLs builds candidate URLs from the static path catalog,
// anchored at the site's origin.
func FallbackURLs(websiteURL string) []string {
	origin := urlutil.Origin(websiteURL)
	if origin == "" {
		return []string{}
	}
	urls := make([]string, 0, len(fallbackPaths))
	seen := make(map[string]struct{}, len(fallbackPaths))
	for _, path := range fallbackPaths {
		candidate := origin + path
		key := urlutil.DedupeKey(candidate)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		urls = append(urls, candidate)
	}
	return urls
}

// sameDomainDedupe keeps same-registrable-domain URLs, removes duplicates
// preserving first-seen order, and truncates to limit.
func sameDomainDedupe(urls []string, baseURL string, limit int) []string {
	kept := make([]string, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if !urlutil.SameDomain(u, baseURL) {
			continue
		}
		key := urlutil.DedupeKey(u)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, u)
		if len(kept) >= limit {
			break
		}
	}
	return kept
}
