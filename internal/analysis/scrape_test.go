package analysis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/VictorW-repo/astral-assessment/internal/firecrawl"
)

func TestScrapeAllStats(t *testing.T) {
	t.Parallel()

	// Without a key every scrape is skipped; stats still add up.
	client := backendClient(t, "http://unused.invalid", "")
	s := NewScraper(client, nil, zap.NewNop())

	out := s.ScrapeAll(context.Background(),
		[]string{"https://acme.com/a", "https://acme.com/b"}, "markdown")
	require.Len(t, out.Results, 2)
	require.Equal(t, 2, out.Stats.Total)
	require.Equal(t, 0, out.Stats.Succeeded)
	require.Equal(t, 2, out.Stats.Failed)
	require.Zero(t, out.Stats.SuccessRate)
}

func TestScrapeAllEmptyInput(t *testing.T) {
	t.Parallel()

	s := NewScraper(backendClient(t, "http://unused.invalid", ""), nil, zap.NewNop())
	out := s.ScrapeAll(context.Background(), nil, "markdown")
	require.Empty(t, out.Results)
	require.Zero(t, out.Stats.Total)
}

func TestScrapeAllRetriesSimpleURLsOnPaymentFailure(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer backend.Close()

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><h1>Acme</h1><p>We make anvils.</p></body></html>"))
	}))
	defer site.Close()

	fallback := NewFallbackFetcher(FallbackConfig{
		Timeout:           2 * time.Second,
		RequestsPerSecond: 100,
	}, zap.NewNop())
	s := NewScraper(backendClient(t, backend.URL, "fc-test"), fallback, zap.NewNop())

	// The root path is "simple"; the deep path is not and keeps its 402.
	simple := site.URL + "/"
	complex := site.URL + "/deep/nested/page"
	out := s.ScrapeAll(context.Background(), []string{simple, complex}, "markdown")

	require.Len(t, out.Results, 2)
	require.Equal(t, firecrawl.StatusSuccess, out.Results[0].Status)
	require.Equal(t, firecrawl.MethodFallback, out.Results[0].Method)
	require.Contains(t, out.Results[0].Content, "# Acme")

	require.Equal(t, firecrawl.StatusError, out.Results[1].Status)
	require.Equal(t, firecrawl.CodePaymentRequired, out.Results[1].Reason)

	require.Equal(t, 1, out.Stats.Succeeded)
	require.Equal(t, 1, out.Stats.Failed)
	require.InDelta(t, 0.5, out.Stats.SuccessRate, 0.001)
}

func TestScrapeAllPaymentFallbackSurvivesOpenBreaker(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer backend.Close()

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><h1>Acme</h1></body></html>"))
	}))
	defer site.Close()

	fallback := NewFallbackFetcher(FallbackConfig{
		Timeout:           2 * time.Second,
		RequestsPerSecond: 1000,
	}, zap.NewNop())
	s := NewScraper(backendClient(t, backend.URL, "fc-test"), fallback, zap.NewNop())

	// More URLs than the breaker threshold: the 402s recorded for the
	// first wave open the circuit, so the tail of the batch fails with
	// circuit_breaker_open instead of http_402. The degraded retry must
	// still fire and cover those URLs.
	paths := []string{"/", "/about", "/team", "/services", "/contact", "/pricing", "/careers", "/blog", "/faq"}
	urls := make([]string, len(paths))
	for i, p := range paths {
		urls[i] = site.URL + p
	}
	out := s.ScrapeAll(context.Background(), urls, "markdown")

	require.Len(t, out.Results, len(urls))
	for i, r := range out.Results {
		require.Equal(t, firecrawl.StatusSuccess, r.Status, "url %s", urls[i])
		require.Equal(t, firecrawl.MethodFallback, r.Method, "url %s", urls[i])
		require.Contains(t, r.Content, "# Acme")
	}
	require.Equal(t, len(urls), out.Stats.Succeeded)
	require.Zero(t, out.Stats.Failed)
}

func TestCreditsExhausted(t *testing.T) {
	t.Parallel()

	r402 := firecrawl.ScrapeResult{Status: firecrawl.StatusError, Reason: firecrawl.CodePaymentRequired}
	rOpen := firecrawl.ScrapeResult{Status: firecrawl.StatusError, Reason: firecrawl.CodeCircuitOpen}
	rTimeout := firecrawl.ScrapeResult{Status: firecrawl.StatusError, Reason: firecrawl.CodeTimeout}
	rOK := firecrawl.ScrapeResult{Status: firecrawl.StatusSuccess}

	require.True(t, creditsExhausted([]firecrawl.ScrapeResult{r402, r402}))
	require.True(t, creditsExhausted([]firecrawl.ScrapeResult{r402, rOpen, rOpen}))
	require.False(t, creditsExhausted([]firecrawl.ScrapeResult{rOpen, rOpen}), "no 402 naming the cause")
	require.False(t, creditsExhausted([]firecrawl.ScrapeResult{r402, rTimeout}))
	require.False(t, creditsExhausted([]firecrawl.ScrapeResult{r402, rOK}))
	require.False(t, creditsExhausted(nil))
}

func TestIsSimple(t *testing.T) {
	t.Parallel()

	f := NewFallbackFetcher(FallbackConfig{}, zap.NewNop())

	require.True(t, f.IsSimple("https://example.com/anything/deep/here"))
	require.True(t, f.IsSimple("https://www.httpbin.org/html"))
	require.True(t, f.IsSimple("https://acme.com/"))
	require.True(t, f.IsSimple("https://acme.com/about"))
	require.False(t, f.IsSimple("https://acme.com/deep/nested/page"))
	require.False(t, f.IsSimple("not a url"))
}
