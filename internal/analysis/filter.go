package analysis

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/VictorW-repo/astral-assessment/internal/urlutil"
)

// FilterConfig controls URL scoring and truncation. The keyword lists are
// hand-tuned heuristics carried as configuration, not business rules.
type FilterConfig struct {
	KeepLimit        int
	ValuableKeywords []string
	ExcludedKeywords []string
}

// DefaultFilterConfig returns the stock scoring configuration.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		KeepLimit: 7,
		ValuableKeywords: []string{
			"about", "our-approach", "team", "leadership", "services",
			"solutions", "case-studies", "customers", "blog", "investors",
			"culture", "portfolio", "clients", "work", "projects",
		},
		ExcludedKeywords: []string{
			"privacy", "terms", "cookie", "careers", "contact", "login",
			"signup", "register", "press-kit", "media-kit", "legal",
			"disclaimer", "accessibility", "sitemap",
		},
	}
}

func (c FilterConfig) withDefaults() FilterConfig {
	d := DefaultFilterConfig()
	if c.KeepLimit <= 0 {
		c.KeepLimit = d.KeepLimit
	}
	if len(c.ValuableKeywords) == 0 {
		c.ValuableKeywords = d.ValuableKeywords
	}
	if len(c.ExcludedKeywords) == 0 {
		c.ExcludedKeywords = d.ExcludedKeywords
	}
	return c
}

// ScoredURL is the ephemeral product of one scoring pass.
type ScoredURL struct {
	URL     string
	Score   int
	Reasons []string
}

// FilterStats summarizes one filtering pass.
type FilterStats struct {
	Input       int `json:"input"`
	Output      int `json:"output"`
	FilteredOut int `json:"filtered_out"`
}

// FilterOutcome holds the kept URLs plus diagnostics: per-URL reason tags
// and up to five positively scored URLs that were cut by the keep limit.
type FilterOutcome struct {
	URLs       []string            `json:"urls"`
	Reasons    map[string][]string `json:"reasons,omitempty"`
	CutSamples []string            `json:"filtered_out_samples,omitempty"`
	Stats      FilterStats         `json:"stats"`
}

type scoredPattern struct {
	re     *regexp.Regexp
	points int
	reason string
}

// High-value patterns: only the first match applies.
var highValuePatterns = []scoredPattern{
	{regexp.MustCompile(`/about[-_]?us`), 15, "about_us_page"},
	{regexp.MustCompile(`/our[-_]?team`), 15, "team_page"},
	{regexp.MustCompile(`/leadership`), 15, "leadership_page"},
	{regexp.MustCompile(`/case[-_]?stud`), 12, "case_studies"},
	{regexp.MustCompile(`/portfolio`), 12, "portfolio"},
	{regexp.MustCompile(`/services?`), 10, "services"},
	{regexp.MustCompile(`/solutions?`), 10, "solutions"},
	{regexp.MustCompile(`/products?`), 10, "products"},
	{regexp.MustCompile(`/customers?`), 10, "customers"},
	{regexp.MustCompile(`/clients?`), 10, "clients"},
	{regexp.MustCompile(`/testimonials?`), 8, "testimonials"},
	{regexp.MustCompile(`/mission`), 8, "mission"},
	{regexp.MustCompile(`/values?`), 8, "values"},
	{regexp.MustCompile(`/culture`), 8, "culture"},
	{regexp.MustCompile(`/blog/`), 5, "blog_post"},
	{regexp.MustCompile(`/insights?/`), 5, "insights"},
	{regexp.MustCompile(`/20\d{2}/`), 3, "dated_content"},
}

// Low-value patterns: every match applies, additively.
var lowValuePathPatterns = []scoredPattern{
	{regexp.MustCompile(`/tag/`), -5, "tag_page"},
	{regexp.MustCompile(`/category/`), -5, "category_page"},
	{regexp.MustCompile(`/page/\d+`), -5, "pagination"},
	{regexp.MustCompile(`/search`), -10, "search_page"},
	{regexp.MustCompile(`/login`), -10, "login_page"},
	{regexp.MustCompile(`/signup`), -10, "signup_page"},
	{regexp.MustCompile(`/register`), -10, "register_page"},
	{regexp.MustCompile(`/cart`), -10, "cart_page"},
	{regexp.MustCompile(`/checkout`), -10, "checkout_page"},
	{regexp.MustCompile(`\.pdf$`), -3, "pdf_file"},
	{regexp.MustCompile(`\.(jpg|jpeg|png|gif|svg)$`), -10, "image_file"},
	{regexp.MustCompile(`\.(css|js)$`), -20, "asset_file"},
	{regexp.MustCompile(`/wp-`), -5, "wordpress_internal"},
	{regexp.MustCompile(`/feed`), -10, "feed_url"},
	{regexp.MustCompile(`/rss`), -10, "rss_url"},
}

var homepagePaths = map[string]struct{}{
	"": {}, "/": {}, "/index": {}, "/index.html": {}, "/home": {},
}

// Score rates a URL's business-intelligence value against a base URL.
// It is pure and deterministic: identical inputs always produce the same
// score and reason tags. A URL on a different registrable domain
// short-circuits to (-100, ["different_domain"]).
func Score(rawURL, baseURL string, cfg FilterConfig) (int, []string) {
	cfg = cfg.withDefaults()

	if baseURL != "" && !urlutil.SameDomain(rawURL, baseURL) {
		return -100, []string{"different_domain"}
	}

	lowered := strings.ToLower(rawURL)
	parsed, err := url.Parse(lowered)
	if err != nil {
		return -100, []string{"unparseable_url"}
	}
	path := parsed.Path

	score := 0
	var reasons []string

	for _, kw := range cfg.ValuableKeywords {
		if strings.Contains(path, kw) {
			score += 10
			reasons = append(reasons, "contains_"+kw)
			break
		}
	}

	for _, kw := range cfg.ExcludedKeywords {
		if strings.Contains(path, kw) {
			score -= 10
			reasons = append(reasons, "excluded_"+kw)
		}
	}

	for _, p := range highValuePatterns {
		if p.re.MatchString(path) {
			score += p.points
			reasons = append(reasons, p.reason)
			break
		}
	}

	for _, p := range lowValuePathPatterns {
		if p.re.MatchString(path) {
			score += p.points
			reasons = append(reasons, p.reason)
		}
	}
	if strings.Contains(lowered, "#") {
		score -= 5
		reasons = append(reasons, "has_fragment")
	}
	if strings.Contains(lowered, "?") {
		score -= 2
		reasons = append(reasons, "has_query_params")
	}

	depth := strings.Count(path, "/")
	switch {
	case depth > 4:
		score -= 2
		reasons = append(reasons, "deep_url")
	case depth <= 2:
		score += 2
		reasons = append(reasons, "shallow_url")
	}

	switch {
	case len(rawURL) > 150:
		score -= 3
		reasons = append(reasons, "very_long_url")
	case len(rawURL) < 50:
		score += 1
		reasons = append(reasons, "short_url")
	}

	if _, ok := homepagePaths[path]; ok {
		score += 5
		reasons = append(reasons, "homepage")
	}

	return score, reasons
}

// FilterURLs scores every candidate, sorts descending by score (stable on
// ties, preserving input order), and keeps the top KeepLimit URLs with a
// strictly positive score.
func FilterURLs(urls []string, baseURL string, cfg FilterConfig) FilterOutcome {
	cfg = cfg.withDefaults()
	outcome := FilterOutcome{
		Reasons: make(map[string][]string),
		Stats:   FilterStats{Input: len(urls)},
	}
	if len(urls) == 0 {
		return outcome
	}

	scored := make([]ScoredURL, 0, len(urls))
	for _, u := range urls {
		score, reasons := Score(u, baseURL, cfg)
		scored = append(scored, ScoredURL{URL: u, Score: score, Reasons: reasons})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	for i, s := range scored {
		if s.Score <= 0 {
			continue
		}
		if i < cfg.KeepLimit {
			outcome.URLs = append(outcome.URLs, s.URL)
			outcome.Reasons[s.URL] = s.Reasons
		} else if len(outcome.CutSamples) < 5 {
			outcome.CutSamples = append(outcome.CutSamples, s.URL)
		}
	}

	outcome.Stats.Output = len(outcome.URLs)
	outcome.Stats.FilteredOut = outcome.Stats.Input - outcome.Stats.Output
	return outcome
}

var categoryKeywords = []struct {
	name     string
	keywords []string
}{
	{"company_info", []string{"about", "mission", "vision", "values", "culture", "history"}},
	{"team", []string{"team", "leadership", "executive", "founder", "board", "advisor"}},
	{"offerings", []string{"service", "solution", "product", "offering", "feature"}},
	{"evidence", []string{"case", "study", "portfolio", "work", "project", "client", "customer"}},
	{"content", []string{"blog", "article", "post", "news", "insight", "resource"}},
	{"contact", []string{"contact", "location", "office"}},
	{"careers", []string{"career", "job", "hiring", "recruit"}},
	{"legal", []string{"privacy", "terms", "legal", "cookie", "gdpr"}},
	{"technical", []string{"api", "docs", "documentation", "developer"}},
}

// Category buckets a URL by its path for result organization.
func Category(rawURL string) string {
	parsed, err := url.Parse(strings.ToLower(rawURL))
	if err != nil {
		return "other"
	}
	path := parsed.Path
	for _, c := range categoryKeywords {
		for _, kw := range c.keywords {
			if strings.Contains(path, kw) {
				return c.name
			}
		}
	}
	return "other"
}
