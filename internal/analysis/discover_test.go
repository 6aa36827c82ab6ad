package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/VictorW-repo/astral-assessment/internal/firecrawl"
)

func backendClient(t *testing.T, baseURL, key string) *firecrawl.Client {
	t.Helper()
	return firecrawl.New(firecrawl.Config{
		BaseURL:        baseURL,
		APIKey:         key,
		RequestTimeout: 2 * time.Second,
		MaxRetries:     1,
		BackoffBase:    time.Millisecond,
		BackoffMax:     5 * time.Millisecond,
		PollInterval:   10 * time.Millisecond,
		MaxCrawlWait:   300 * time.Millisecond,
		BatchDelay:     time.Millisecond,
	}, zap.NewNop())
}

func TestDiscoverFallsBackWithoutKey(t *testing.T) {
	t.Parallel()

	d := NewDiscoverer(backendClient(t, "http://unused.invalid", ""), 50, zap.NewNop())
	out := d.Discover(context.Background(), "acme.com")

	require.Equal(t, MethodFallbackPatterns, out.Method)
	require.Empty(t, out.Status)
	require.Contains(t, out.URLs, "https://acme.com")
	require.Contains(t, out.URLs, "https://acme.com/about")
	require.Contains(t, out.URLs, "https://acme.com/team")
	require.Contains(t, out.URLs, "https://acme.com/services")
	require.Contains(t, out.URLs, "https://acme.com/contact")
	require.Equal(t, len(out.URLs), out.TotalFound)
}

func TestFallbackURLsDeduplicates(t *testing.T) {
	t.Parallel()

	urls := FallbackURLs("https://acme.com")
	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		_, dup := seen[u]
		require.False(t, dup, "duplicate %s", u)
		seen[u] = struct{}{}
	}
	require.Empty(t, FallbackURLs(":::"))
}

func TestDiscoverFiltersAndDeduplicates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "id": "job-1"})
			return
		}
		require.True(t, strings.HasPrefix(r.URL.Path, "/crawl/"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"status":  "completed",
			"data": []map[string]any{
				{"url": "https://acme.com/about", "markdown": "a"},
				{"url": "https://www.acme.com/about/", "markdown": "dup of about"},
				{"url": "https://acme.com/team", "markdown": "t"},
				{"url": "https://evil.com/phish", "markdown": "x"},
				{"url": "https://acme.com/about?utm=1", "markdown": "dup again"},
			},
		})
	}))
	defer srv.Close()

	d := NewDiscoverer(backendClient(t, srv.URL, "fc-test"), 50, zap.NewNop())
	out := d.Discover(context.Background(), "acme.com")

	require.Equal(t, MethodCrawl, out.Method)
	require.Empty(t, out.Status)
	require.Equal(t, []string{"https://acme.com/about", "https://acme.com/team"}, out.URLs)
}

func TestDiscoverDegradesToInputOnCrawlFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "backend down"})
	}))
	defer srv.Close()

	d := NewDiscoverer(backendClient(t, srv.URL, "fc-test"), 50, zap.NewNop())
	out := d.Discover(context.Background(), "acme.com")

	require.Equal(t, "degraded", out.Status)
	require.Equal(t, []string{"https://acme.com"}, out.URLs)
	require.Equal(t, firecrawl.CodeAPIFailure, out.Reason)
}

func TestDiscoverRejectsInvalidURL(t *testing.T) {
	t.Parallel()

	d := NewDiscoverer(backendClient(t, "http://unused.invalid", ""), 50, zap.NewNop())
	out := d.Discover(context.Background(), "javascript:alert(1)")
	require.Equal(t, "error", out.Status)
	require.Equal(t, firecrawl.CodeInvalidURL, out.Reason)
	require.Empty(t, out.URLs)
}
