// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Intake    IntakeConfig    `mapstructure:"intake"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	Firecrawl FirecrawlConfig `mapstructure:"firecrawl"`
	Filter    FilterConfig    `mapstructure:"filter"`
	Scrape    ScrapeConfig    `mapstructure:"scrape"`
	Fallback  FallbackConfig  `mapstructure:"fallback"`
	Output    OutputConfig    `mapstructure:"output"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// IntakeConfig sizes the lead queue and its worker pool.
type IntakeConfig struct {
	QueueDepth int `mapstructure:"queue_depth"`
	Workers    int `mapstructure:"workers"`
}

// WebhookConfig controls intake request verification.
type WebhookConfig struct {
	// SigningKey verifies X-Webhook-Signature headers. Empty disables
	// verification (development mode).
	SigningKey string `mapstructure:"signing_key"`
}

// FirecrawlConfig governs the scraping backend client.
type FirecrawlConfig struct {
	APIURL            string `mapstructure:"api_url"`
	APIKey            string `mapstructure:"api_key"`
	UserAgent         string `mapstructure:"user_agent"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`
	MaxRetries        int    `mapstructure:"max_retries"`
	BackoffInitialMs  int    `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs      int    `mapstructure:"backoff_max_ms"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
	PollIntervalSec   int    `mapstructure:"poll_interval_seconds"`
	MaxCrawlWaitSec   int    `mapstructure:"max_crawl_wait_seconds"`
	MaxCrawlURLs      int    `mapstructure:"max_crawl_urls"`
}

// FilterConfig tunes URL value scoring.
type FilterConfig struct {
	KeepLimit        int      `mapstructure:"keep_limit"`
	ValuableKeywords []string `mapstructure:"valuable_keywords"`
	ExcludedKeywords []string `mapstructure:"excluded_keywords"`
}

// ScrapeConfig governs batch content scraping.
type ScrapeConfig struct {
	Concurrency int    `mapstructure:"concurrency"`
	DelayMs     int    `mapstructure:"delay_ms"`
	Format      string `mapstructure:"format"`
}

// FallbackConfig governs the direct fetcher used when the backend is
// unavailable.
type FallbackConfig struct {
	RequestsPerSecond float64  `mapstructure:"requests_per_second"`
	SimpleHosts       []string `mapstructure:"simple_hosts"`
}

// OutputConfig sets where analysis artifacts land.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment. Environment variables use
// the INTAKE_ prefix with dots replaced by underscores, for example
// INTAKE_FIRECRAWL_API_KEY.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INTAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("intake.queue_depth", 64)
	v.SetDefault("intake.workers", 2)
	v.SetDefault("firecrawl.api_url", "https://api.firecrawl.dev/v2")
	v.SetDefault("firecrawl.user_agent", "astral-intake/1.0")
	v.SetDefault("firecrawl.timeout_seconds", 30)
	v.SetDefault("firecrawl.max_retries", 3)
	v.SetDefault("firecrawl.backoff_initial_ms", 1000)
	v.SetDefault("firecrawl.backoff_max_ms", 60000)
	v.SetDefault("firecrawl.requests_per_minute", 30)
	v.SetDefault("firecrawl.poll_interval_seconds", 2)
	v.SetDefault("firecrawl.max_crawl_wait_seconds", 300)
	v.SetDefault("firecrawl.max_crawl_urls", 50)
	v.SetDefault("filter.keep_limit", 7)
	v.SetDefault("scrape.concurrency", 3)
	v.SetDefault("scrape.delay_ms", 500)
	v.SetDefault("scrape.format", "markdown")
	v.SetDefault("fallback.requests_per_second", 1.0)
	v.SetDefault("output.dir", "outputs")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Intake.QueueDepth <= 0 {
		return fmt.Errorf("intake.queue_depth must be > 0")
	}
	if c.Intake.Workers <= 0 {
		return fmt.Errorf("intake.workers must be > 0")
	}
	if c.Firecrawl.APIURL == "" {
		return fmt.Errorf("firecrawl.api_url must be set")
	}
	if c.Firecrawl.TimeoutSeconds <= 0 {
		return fmt.Errorf("firecrawl.timeout_seconds must be > 0")
	}
	if c.Firecrawl.RequestsPerMinute < 0 {
		return fmt.Errorf("firecrawl.requests_per_minute must be >= 0")
	}
	if c.Filter.KeepLimit <= 0 {
		return fmt.Errorf("filter.keep_limit must be > 0")
	}
	if c.Scrape.Concurrency <= 0 {
		return fmt.Errorf("scrape.concurrency must be > 0")
	}
	if c.Scrape.Format != "markdown" && c.Scrape.Format != "html" {
		return fmt.Errorf("scrape.format must be markdown or html")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must be set")
	}
	return nil
}

// RequestTimeout is the per-request budget for backend calls.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Firecrawl.TimeoutSeconds) * time.Second
}

// BackoffInitial is the base retry backoff.
func (c Config) BackoffInitial() time.Duration {
	return time.Duration(c.Firecrawl.BackoffInitialMs) * time.Millisecond
}

// BackoffMax caps retry backoff growth.
func (c Config) BackoffMax() time.Duration {
	return time.Duration(c.Firecrawl.BackoffMaxMs) * time.Millisecond
}

// PollInterval is the crawl status polling cadence.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Firecrawl.PollIntervalSec) * time.Second
}

// MaxCrawlWait bounds total crawl job wall-clock time.
func (c Config) MaxCrawlWait() time.Duration {
	return time.Duration(c.Firecrawl.MaxCrawlWaitSec) * time.Second
}

// BatchDelay spaces out concurrent scrape launches.
func (c Config) BatchDelay() time.Duration {
	return time.Duration(c.Scrape.DelayMs) * time.Millisecond
}
