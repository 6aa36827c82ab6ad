package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
webhook:
  signing_key: secret
firecrawl:
  api_url: https://api.example.test/v2
  api_key: fc-test
  timeout_seconds: 45
  max_retries: 4
  backoff_initial_ms: 100
  backoff_max_ms: 500
  requests_per_minute: 10
  poll_interval_seconds: 1
  max_crawl_wait_seconds: 60
  max_crawl_urls: 25
filter:
  keep_limit: 5
  valuable_keywords: ["about", "team"]
scrape:
  concurrency: 2
  delay_ms: 100
  format: markdown
output:
  dir: artifacts
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Webhook.SigningKey != "secret" {
		t.Fatalf("expected signing key to load")
	}
	if cfg.Firecrawl.APIKey != "fc-test" || cfg.Firecrawl.MaxCrawlURLs != 25 {
		t.Fatalf("expected firecrawl overrides to apply: %+v", cfg.Firecrawl)
	}
	if cfg.Filter.KeepLimit != 5 || len(cfg.Filter.ValuableKeywords) != 2 {
		t.Fatalf("expected filter overrides to apply: %+v", cfg.Filter)
	}
	if cfg.Logging.Development {
		t.Fatal("expected development logging disabled")
	}
	if got := cfg.RequestTimeout(); got != 45*time.Second {
		t.Fatalf("expected request timeout 45s, got %v", got)
	}
	if got := cfg.BackoffMax(); got != 500*time.Millisecond {
		t.Fatalf("expected backoff max 500ms, got %v", got)
	}
	if got := cfg.PollInterval(); got != time.Second {
		t.Fatalf("expected poll interval 1s, got %v", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Firecrawl.RequestsPerMinute != 30 {
		t.Fatalf("expected default rpm 30, got %d", cfg.Firecrawl.RequestsPerMinute)
	}
	if cfg.Filter.KeepLimit != 7 {
		t.Fatalf("expected default keep limit 7, got %d", cfg.Filter.KeepLimit)
	}
	if cfg.Scrape.Format != "markdown" {
		t.Fatalf("expected default format markdown, got %s", cfg.Scrape.Format)
	}
	if cfg.MaxCrawlWait() != 5*time.Minute {
		t.Fatalf("expected default crawl wait 5m, got %v", cfg.MaxCrawlWait())
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		yaml string
	}{
		{"BadPort", "server:\n  port: 0\n"},
		{"BadFormat", "scrape:\n  format: pdf\n"},
		{"BadConcurrency", "scrape:\n  concurrency: -1\n"},
		{"EmptyOutputDir", "output:\n  dir: \"\"\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			if err := os.WriteFile(path, []byte(tc.yaml), 0o600); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
