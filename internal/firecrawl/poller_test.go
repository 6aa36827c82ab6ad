package firecrawl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func crawlBackend(t *testing.T, status func(poll int32) map[string]any) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/crawl":
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "id": "job-1"})
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/crawl/"):
			require.Equal(t, "/crawl/job-1", r.URL.Path)
			_ = json.NewEncoder(w).Encode(status(polls.Add(1)))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	return srv, &polls
}

func pollerClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return testClient(t, baseURL, func(cfg *Config) {
		cfg.PollInterval = 10 * time.Millisecond
		cfg.MaxCrawlWait = 500 * time.Millisecond
		cfg.MaxCrawlURLs = 10
	})
}

func TestCrawlCompletes(t *testing.T) {
	t.Parallel()

	srv, _ := crawlBackend(t, func(poll int32) map[string]any {
		if poll < 2 {
			return map[string]any{"success": true, "status": "scraping"}
		}
		return map[string]any{
			"success": true,
			"status":  "completed",
			"data": []map[string]any{
				{"metadata": map[string]string{"sourceURL": "https://acme.com/about"}, "markdown": "# About"},
				{"url": "https://acme.com/team", "markdown": "# Team"},
				{"markdown": "orphan without a url"},
			},
		}
	})
	defer srv.Close()

	result, err := pollerClient(t, srv.URL).Crawl(context.Background(), "acme.com", 10)
	require.NoError(t, err)
	require.Equal(t, []string{"https://acme.com/about", "https://acme.com/team"}, result.URLs())
	require.Equal(t, "# About", result.Documents[0].Content)
}

func TestCrawlFailedStatus(t *testing.T) {
	t.Parallel()

	srv, _ := crawlBackend(t, func(int32) map[string]any {
		return map[string]any{"success": true, "status": "failed"}
	})
	defer srv.Close()

	_, err := pollerClient(t, srv.URL).Crawl(context.Background(), "acme.com", 10)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, CodeCrawlFailed, apiErr.Code)
}

func TestCrawlTimesOutOnNeverCompletingJob(t *testing.T) {
	t.Parallel()

	srv, polls := crawlBackend(t, func(int32) map[string]any {
		return map[string]any{"success": true, "status": "processing"}
	})
	defer srv.Close()

	start := time.Now()
	_, err := pollerClient(t, srv.URL).Crawl(context.Background(), "acme.com", 10)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, CodeCrawlTimeout, apiErr.Code)
	require.Less(t, time.Since(start), 5*time.Second, "deadline must bound polling")
	require.Greater(t, polls.Load(), int32(1), "job should have been polled repeatedly")
}

func TestCrawlSurvivesFailedStatusChecks(t *testing.T) {
	t.Parallel()

	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "id": "job-1"})
			return
		}
		// First status check is garbage; polling must carry on.
		if polls.Add(1) == 1 {
			_, _ = w.Write([]byte("not json"))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"status":  "completed",
			"data": []map[string]any{
				{"url": "https://acme.com", "markdown": "home"},
			},
		})
	}))
	defer srv.Close()

	result, err := pollerClient(t, srv.URL).Crawl(context.Background(), "acme.com", 10)
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)
}

func TestCrawlRejectsMissingJobID(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "id": ""})
	}))
	defer srv.Close()

	_, err := pollerClient(t, srv.URL).Crawl(context.Background(), "acme.com", 10)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, CodeNoJobID, apiErr.Code)
}

func TestCrawlWithoutKey(t *testing.T) {
	t.Parallel()

	c := testClient(t, "http://unused.invalid", func(cfg *Config) { cfg.APIKey = "" })
	_, err := c.Crawl(context.Background(), "acme.com", 10)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, CodeNoAPIKey, apiErr.Code)
}
