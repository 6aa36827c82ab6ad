// Package workflow orchestrates the lead analysis pipeline: website
// discovery, filtering, scraping, and artifact persistence, executed as
// named steps so each phase is individually logged and timed.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/VictorW-repo/astral-assessment/internal/analysis"
	"github.com/VictorW-repo/astral-assessment/internal/firecrawl"
	"github.com/VictorW-repo/astral-assessment/internal/storage"
)

// Version is stamped into result metadata.
const Version = "1.0.0"

// Lead is one accepted intake submission.
type Lead struct {
	RequestID      string    `json:"request_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	CompanyWebsite string    `json:"company_website"`
	LinkedIn       string    `json:"linkedin,omitempty"`
	ReceivedAt     time.Time `json:"received_at"`
}

// LinkedInAnalysis is a placeholder: profile analysis is tracked but not
// built yet, and results say so explicitly rather than omitting it.
type LinkedInAnalysis struct {
	Status string `json:"status"`
	URL    string `json:"url,omitempty"`
	Note   string `json:"note,omitempty"`
}

// ScrapedPage is one scrape result annotated with its content category.
type ScrapedPage struct {
	firecrawl.ScrapeResult
	Category string `json:"category,omitempty"`
}

// Statistics summarizes the website analysis funnel.
type Statistics struct {
	TotalDiscovered   int     `json:"total_urls_discovered"`
	TotalFiltered     int     `json:"total_urls_filtered"`
	TotalScraped      int     `json:"total_urls_scraped"`
	ScrapeFailures    int     `json:"scrape_failures"`
	ScrapeSuccessRate float64 `json:"scrape_success_rate"`
}

// WebsiteAnalysis is the full product of the discover/filter/scrape
// funnel for one website.
type WebsiteAnalysis struct {
	URL                string              `json:"url"`
	DiscoveryMethod    string              `json:"discovery_method"`
	DiscoveryStatus    string              `json:"discovery_status,omitempty"`
	DiscoveredURLs     []string            `json:"discovered_urls"`
	FilteredURLs       []string            `json:"filtered_urls"`
	FilterReasons      map[string][]string `json:"filter_reasons,omitempty"`
	FilteredOutSamples []string            `json:"filtered_out_samples,omitempty"`
	Pages              []ScrapedPage       `json:"scraped_content"`
	Statistics         Statistics          `json:"statistics"`
}

// ErrorInfo records a pipeline-level failure inside a result artifact.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Metadata carries processing provenance.
type Metadata struct {
	ProcessingSeconds float64 `json:"processing_time_seconds"`
	Version           string  `json:"version"`
	ArtifactURI       string  `json:"artifact_uri,omitempty"`
}

// Result is the persisted analysis artifact for one lead.
type Result struct {
	RequestID        string           `json:"request_id"`
	Timestamp        time.Time        `json:"timestamp"`
	InputData        Lead             `json:"input_data"`
	LinkedInAnalysis LinkedInAnalysis `json:"linkedin_analysis"`
	WebsiteAnalysis  *WebsiteAnalysis `json:"website_analysis,omitempty"`
	Error            *ErrorInfo       `json:"error,omitempty"`
	Metadata         Metadata         `json:"metadata"`
}

// Workflow wires the pipeline stages together.
type Workflow struct {
	discoverer *analysis.Discoverer
	scraper    *analysis.Scraper
	filterCfg  analysis.FilterConfig
	store      storage.BlobStore
	runner     Runner
	clock      Clock
	logger     *zap.Logger
	format     string
}

// New builds a Workflow. format is the scrape output format and
// defaults to markdown when blank; logger may be nil.
func New(
	discoverer *analysis.Discoverer,
	scraper *analysis.Scraper,
	filterCfg analysis.FilterConfig,
	store storage.BlobStore,
	runner Runner,
	clock Clock,
	format string,
	logger *zap.Logger,
) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	if format == "" {
		format = "markdown"
	}
	return &Workflow{
		discoverer: discoverer,
		scraper:    scraper,
		filterCfg:  filterCfg,
		store:      store,
		runner:     runner,
		clock:      clock,
		logger:     logger,
		format:     format,
	}
}

// Execute runs the full pipeline for one lead. Analysis failures degrade
// into the result artifact instead of aborting; only a persistence
// failure surfaces as an error, since a result that cannot be saved is
// lost work.
func (w *Workflow) Execute(ctx context.Context, lead Lead) (Result, error) {
	start := w.clock.Now()
	result := Result{
		RequestID: lead.RequestID,
		Timestamp: start,
		InputData: lead,
		LinkedInAnalysis: LinkedInAnalysis{
			Status: "not_implemented",
			URL:    lead.LinkedIn,
			Note:   "linkedin profile analysis is tracked but not built yet",
		},
	}

	if err := w.runner.Run(ctx, "analyze_website", func(ctx context.Context) error {
		site := w.analyzeWebsite(ctx, lead.CompanyWebsite)
		result.WebsiteAnalysis = &site
		return nil
	}); err != nil {
		result.Error = &ErrorInfo{Code: "analysis_failed", Message: err.Error()}
	}

	// analyze_linkedin is a recorded no-op until profile analysis lands.
	_ = w.runner.Run(ctx, "analyze_linkedin", func(context.Context) error {
		return nil
	})

	result.Metadata = Metadata{
		ProcessingSeconds: w.clock.Now().Sub(start).Seconds(),
		Version:           Version,
	}

	var saveErr error
	_ = w.runner.Run(ctx, "save_results", func(ctx context.Context) error {
		uri, err := w.save(ctx, lead, &result)
		if err != nil {
			saveErr = err
			return err
		}
		result.Metadata.ArtifactURI = uri
		return nil
	})
	if saveErr != nil {
		return result, fmt.Errorf("persist analysis result: %w", saveErr)
	}

	w.logger.Info("lead analysis completed",
		zap.String("request_id", lead.RequestID),
		zap.Float64("seconds", result.Metadata.ProcessingSeconds),
	)
	return result, nil
}

// analyzeWebsite runs the discover/filter/scrape funnel. Every branch
// produces a populated WebsiteAnalysis; degradation shows up as statuses
// and reasons, never as a missing section.
func (w *Workflow) analyzeWebsite(ctx context.Context, websiteURL string) WebsiteAnalysis {
	discovered := w.discoverer.Discover(ctx, websiteURL)
	site := WebsiteAnalysis{
		URL:             websiteURL,
		DiscoveryMethod: discovered.Method,
		DiscoveryStatus: discovered.Status,
		DiscoveredURLs:  discovered.URLs,
	}
	if len(discovered.URLs) == 0 {
		site.FilteredURLs = []string{}
		site.Pages = []ScrapedPage{}
		return site
	}

	filtered := analysis.FilterURLs(discovered.URLs, websiteURL, w.filterCfg)
	site.FilteredURLs = filtered.URLs
	site.FilterReasons = filtered.Reasons
	site.FilteredOutSamples = filtered.CutSamples

	targets := filtered.URLs
	if len(targets) == 0 {
		// Nothing scored positively; scrape the site root so the result
		// still carries some content.
		targets = discovered.URLs[:1]
	}

	scraped := w.scraper.ScrapeAll(ctx, targets, w.format)
	site.Pages = make([]ScrapedPage, 0, len(scraped.Results))
	for _, r := range scraped.Results {
		site.Pages = append(site.Pages, ScrapedPage{
			ScrapeResult: r,
			Category:     analysis.Category(r.URL),
		})
	}
	site.Statistics = Statistics{
		TotalDiscovered:   discovered.TotalFound,
		TotalFiltered:     len(filtered.URLs),
		TotalScraped:      scraped.Stats.Succeeded,
		ScrapeFailures:    scraped.Stats.Failed,
		ScrapeSuccessRate: scraped.Stats.SuccessRate,
	}
	return site
}

func (w *Workflow) save(ctx context.Context, lead Lead, result *Result) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	path := OutputFilename(result.Timestamp, lead.FirstName, lead.LastName, lead.RequestID)
	uri, err := w.store.PutObject(ctx, path, "application/json", data)
	if err != nil {
		return "", err
	}
	w.logger.Info("analysis artifact saved",
		zap.String("request_id", lead.RequestID),
		zap.String("uri", uri),
	)
	return uri, nil
}

// OutputFilename builds the artifact name:
// analysis_<UTC timestamp>_<FirstnameL>_<request id prefix>.json.
// The person segment is dropped when no name survives sanitization.
func OutputFilename(ts time.Time, firstName, lastName, requestID string) string {
	parts := []string{"analysis", ts.UTC().Format("20060102_150405")}
	if person := personSlug(firstName, lastName); person != "" {
		parts = append(parts, person)
	}
	if id := shortID(requestID); id != "" {
		parts = append(parts, id)
	}
	return strings.Join(parts, "_") + ".json"
}

// personSlug renders "Jane Doe" as "JaneD": capitalized first name plus
// last initial, restricted to letters and digits.
func personSlug(firstName, lastName string) string {
	first := []rune(sanitizeName(firstName))
	if len(first) == 0 {
		return ""
	}
	slug := strings.ToUpper(string(first[:1])) + strings.ToLower(string(first[1:]))
	if last := []rune(sanitizeName(lastName)); len(last) > 0 {
		slug += strings.ToUpper(string(last[:1]))
	}
	return slug
}

func sanitizeName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func shortID(requestID string) string {
	id := strings.ReplaceAll(requestID, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return id
}
