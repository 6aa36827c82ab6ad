// Package firecrawl implements a resilient client for the Firecrawl v2 API:
// sliding-window rate limiting, a circuit breaker, retries with jittered
// exponential backoff, and the asynchronous crawl submit/poll protocol.
package firecrawl

import "time"

// ScrapeStatus is the terminal state of one scrape attempt.
type ScrapeStatus string

// Scrape statuses. Skipped means the operation was not attempted (for
// example when no API key is configured), which is degraded, not failed.
const (
	StatusSuccess     ScrapeStatus = "success"
	StatusSkipped     ScrapeStatus = "skipped"
	StatusRateLimited ScrapeStatus = "rate_limited"
	StatusTimeout     ScrapeStatus = "timeout"
	StatusError       ScrapeStatus = "error"
)

// Scrape methods recorded on results for observability.
const (
	MethodFirecrawl = "firecrawl"
	MethodFallback  = "fallback_scraping"
)

// ScrapeResult is the tagged outcome of scraping one URL. Non-success
// results always carry a machine-readable Reason plus a human-readable
// explanation; they are values, not errors, so a batch can always be
// assembled into a partial result.
type ScrapeResult struct {
	URL        string       `json:"url"`
	Status     ScrapeStatus `json:"status"`
	Content    string       `json:"content"`
	Format     string       `json:"format,omitempty"`
	Method     string       `json:"method,omitempty"`
	Reason     Code         `json:"reason,omitempty"`
	HumanError string       `json:"human_readable_error,omitempty"`
}

// failure builds a non-success result with the taxonomy message attached.
func failure(url string, status ScrapeStatus, reason Code) ScrapeResult {
	return ScrapeResult{
		URL:        url,
		Status:     status,
		Reason:     reason,
		HumanError: Message(reason),
	}
}

// CrawlDocument is one page returned by a completed crawl job: its source
// URL plus any inline content the backend included.
type CrawlDocument struct {
	URL     string
	Content string
}

// CrawlResult is the parsed payload of a completed crawl job. Document
// order matches the backend's result list.
type CrawlResult struct {
	Documents []CrawlDocument
}

// URLs returns the document source URLs in order.
func (r CrawlResult) URLs() []string {
	urls := make([]string, 0, len(r.Documents))
	for _, d := range r.Documents {
		urls = append(urls, d.URL)
	}
	return urls
}

// CrawlJob tracks one asynchronous crawl for its polling lifetime.
type CrawlJob struct {
	ID           string
	StartedAt    time.Time
	LastPolledAt time.Time
}

// Wire payloads. The backend speaks JSON over HTTPS with bearer auth.

type scrapePayload struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
	IncludeTags     []string `json:"includeTags,omitempty"`
	ExcludeTags     []string `json:"excludeTags,omitempty"`
	WaitFor         int      `json:"waitFor,omitempty"`
	Timeout         int      `json:"timeout,omitempty"`
}

type scrapeData struct {
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
	Content  string `json:"content"`
	Text     string `json:"text"`
}

type scrapeResponse struct {
	Success bool       `json:"success"`
	Data    scrapeData `json:"data"`
	Error   string     `json:"error"`
}

// content picks the first populated content field, preferring markdown.
func (d scrapeData) content() string {
	for _, c := range []string{d.Markdown, d.Content, d.Text, d.HTML} {
		if c != "" {
			return c
		}
	}
	return ""
}

type crawlScrapeOptions struct {
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
}

type crawlPayload struct {
	URL                string             `json:"url"`
	Limit              int                `json:"limit"`
	MaxDepth           int                `json:"maxDepth"`
	IncludeSubdomains  bool               `json:"includeSubdomains"`
	AllowBackwardLinks bool               `json:"allowBackwardLinks"`
	AllowExternalLinks bool               `json:"allowExternalLinks"`
	IgnoreSitemap      bool               `json:"ignoreSitemap"`
	ScrapeOptions      crawlScrapeOptions `json:"scrapeOptions"`
}

type crawlSubmitResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Error   string `json:"error"`
}

type crawlItemMetadata struct {
	SourceURL string `json:"sourceURL"`
}

type crawlItem struct {
	URL      string            `json:"url"`
	Markdown string            `json:"markdown"`
	HTML     string            `json:"html"`
	Metadata crawlItemMetadata `json:"metadata"`
}

// sourceURL prefers the metadata source URL over the direct url field.
func (i crawlItem) sourceURL() string {
	if i.Metadata.SourceURL != "" {
		return i.Metadata.SourceURL
	}
	return i.URL
}

func (i crawlItem) content() string {
	if i.Markdown != "" {
		return i.Markdown
	}
	return i.HTML
}

type crawlStatusResponse struct {
	Success bool        `json:"success"`
	Status  string      `json:"status"`
	Data    []crawlItem `json:"data"`
	Error   string      `json:"error"`
}

// Crawl job statuses reported by the backend. Anything unrecognized is
// treated as still in progress and polled again.
const (
	crawlStatusCompleted  = "completed"
	crawlStatusFailed     = "failed"
	crawlStatusQueued     = "queued"
	crawlStatusProcessing = "processing"
	crawlStatusScraping   = "scraping"
)
