package firecrawl

import (
	"fmt"
	"strings"
)

// Code is a machine-readable reason attached to every non-success outcome.
type Code string

// Reason codes surfaced by the client and the pipeline built on top of it.
const (
	CodeInvalidURL      Code = "invalid_url"
	CodeNoAPIKey        Code = "no_api_key"
	CodeRateLimited     Code = "http_429"
	CodePaymentRequired Code = "http_402"
	CodeCircuitOpen     Code = "circuit_breaker_open"
	CodeTimeout         Code = "request_timeout"
	CodeNetworkError    Code = "http_error"
	CodeAPIFailure      Code = "api_failure"
	CodeNoJobID         Code = "no_job_id"
	CodeCrawlFailed     Code = "crawl_failed"
	CodeCrawlTimeout    Code = "crawl_timeout"
	CodeScrapeError     Code = "scrape_error"
)

// HTTPCode builds the reason code for an HTTP status, e.g. http_502.
func HTTPCode(status int) Code {
	return Code(fmt.Sprintf("http_%d", status))
}

// Error is returned by client operations for terminal, non-HTTP-shaped
// failures (open breaker, exhausted retries, crawl lifecycle errors).
type Error struct {
	Code       Code
	HTTPStatus int
}

func (e *Error) Error() string {
	if e.HTTPStatus > 0 {
		return fmt.Sprintf("firecrawl: %s (status %d)", e.Code, e.HTTPStatus)
	}
	return fmt.Sprintf("firecrawl: %s", e.Code)
}

// Description is the operator-facing view of a reason code.
type Description struct {
	Message  string
	Category string
	Action   string
	Severity string
}

// Guidance describes the remediation suggested for an action code.
type Guidance struct {
	Title       string
	Description string
	URL         string
}

var descriptions = map[Code]Description{
	CodePaymentRequired: {
		Message:  "API credits exhausted. Please add credits to your Firecrawl account to continue web scraping.",
		Category: "payment",
		Action:   "add_credits",
		Severity: "high",
	},
	CodeRateLimited: {
		Message:  "Rate limit exceeded. The API is temporarily throttling requests to prevent overload.",
		Category: "rate_limit",
		Action:   "wait_and_retry",
		Severity: "medium",
	},
	"http_408": {
		Message:  "Request timeout. The server took too long to respond, possibly due to high load or rate limiting.",
		Category: "timeout",
		Action:   "wait_and_retry",
		Severity: "medium",
	},
	"http_500": {
		Message:  "Internal server error. The API service is experiencing technical difficulties.",
		Category: "server_error",
		Action:   "contact_support",
		Severity: "high",
	},
	"http_502": {
		Message:  "Bad gateway. The API service is temporarily unavailable.",
		Category: "server_error",
		Action:   "wait_and_retry",
		Severity: "medium",
	},
	"http_503": {
		Message:  "Service unavailable. The API is temporarily down for maintenance.",
		Category: "server_error",
		Action:   "wait_and_retry",
		Severity: "medium",
	},
	"http_504": {
		Message:  "Gateway timeout. The API service is not responding.",
		Category: "server_error",
		Action:   "wait_and_retry",
		Severity: "medium",
	},
	"http_401": {
		Message:  "Authentication failed. Check your API key configuration.",
		Category: "authentication",
		Action:   "check_api_key",
		Severity: "high",
	},
	"http_403": {
		Message:  "Access forbidden. Your API key may lack required permissions.",
		Category: "authorization",
		Action:   "check_permissions",
		Severity: "high",
	},
	"http_404": {
		Message:  "URL not found. The requested resource could not be located.",
		Category: "not_found",
		Action:   "check_url",
		Severity: "low",
	},
	CodeCircuitOpen: {
		Message:  "Circuit breaker activated due to repeated API failures. Service is temporarily paused to prevent further errors.",
		Category: "circuit_breaker",
		Action:   "wait_and_retry",
		Severity: "high",
	},
	CodeTimeout: {
		Message:  "Request timeout after multiple retries. The service may be overloaded or experiencing issues.",
		Category: "timeout",
		Action:   "wait_and_retry",
		Severity: "medium",
	},
	CodeNetworkError: {
		Message:  "Network or HTTP communication error occurred during the request.",
		Category: "network",
		Action:   "check_connection",
		Severity: "medium",
	},
	CodeNoAPIKey: {
		Message:  "No API key provided. Running in fallback mode with limited functionality.",
		Category: "configuration",
		Action:   "add_api_key",
		Severity: "low",
	},
	CodeInvalidURL: {
		Message:  "The provided URL is invalid or malformed.",
		Category: "validation",
		Action:   "check_url",
		Severity: "low",
	},
	CodeAPIFailure: {
		Message:  "The API reported the request as unsuccessful.",
		Category: "api_error",
		Action:   "contact_support",
		Severity: "medium",
	},
	CodeCrawlFailed: {
		Message:  "Crawl job failed to complete. The website may be inaccessible or have restrictions.",
		Category: "crawl_error",
		Action:   "check_url",
		Severity: "medium",
	},
	CodeCrawlTimeout: {
		Message:  "Crawl job timed out. The website may be very large or slow to respond.",
		Category: "timeout",
		Action:   "wait_and_retry",
		Severity: "medium",
	},
	CodeNoJobID: {
		Message:  "Failed to start crawl job. API may be experiencing issues.",
		Category: "api_error",
		Action:   "contact_support",
		Severity: "high",
	},
	CodeScrapeError: {
		Message:  "Scraping failed for an unexpected reason.",
		Category: "scrape_error",
		Action:   "wait_and_retry",
		Severity: "medium",
	},
}

var guidance = map[string]Guidance{
	"add_credits": {
		Title:       "Add API Credits",
		Description: "Purchase additional API credits from your Firecrawl dashboard",
		URL:         "https://firecrawl.dev/dashboard",
	},
	"wait_and_retry": {
		Title:       "Wait and Retry",
		Description: "Wait a few minutes before trying again to allow the service to recover",
	},
	"contact_support": {
		Title:       "Contact Support",
		Description: "Reach out to API support if the issue persists",
		URL:         "https://firecrawl.dev/support",
	},
	"check_api_key": {
		Title:       "Check API Key",
		Description: "Verify your API key is correct in the environment configuration",
	},
	"check_permissions": {
		Title:       "Check Permissions",
		Description: "Ensure your API key has the required permissions for this operation",
	},
	"check_url": {
		Title:       "Check URL",
		Description: "Verify the URL is correct, accessible, and properly formatted",
	},
	"add_api_key": {
		Title:       "Add API Key",
		Description: "Add your Firecrawl API key to the environment for full functionality",
		URL:         "https://firecrawl.dev/dashboard",
	},
	"check_connection": {
		Title:       "Check Connection",
		Description: "Verify your internet connection and network settings",
	},
}

// Describe looks up the operator-facing description of a reason code.
// Unknown http_* codes fall back to a generic HTTP description.
func Describe(code Code) (Description, bool) {
	if d, ok := descriptions[code]; ok {
		return d, true
	}
	if strings.HasPrefix(string(code), "http_") {
		return Description{
			Message:  fmt.Sprintf("The API returned an unexpected HTTP error (%s).", code),
			Category: "network",
			Action:   "wait_and_retry",
			Severity: "medium",
		}, true
	}
	return Description{}, false
}

// ActionGuidance returns the remediation guidance for an action code.
func ActionGuidance(action string) (Guidance, bool) {
	g, ok := guidance[action]
	return g, ok
}

// Message formats a complete human-readable message for a reason code,
// including remediation guidance when one is known.
func Message(code Code) string {
	d, ok := Describe(code)
	if !ok {
		return fmt.Sprintf("Unknown error: %s", code)
	}
	msg := d.Message
	if g, ok := ActionGuidance(d.Action); ok {
		msg += " " + g.Description + "."
	}
	return msg
}
