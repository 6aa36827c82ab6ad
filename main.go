// Package main wires together the lead intake service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/VictorW-repo/astral-assessment/internal/analysis"
	"github.com/VictorW-repo/astral-assessment/internal/api"
	"github.com/VictorW-repo/astral-assessment/internal/clock/system"
	"github.com/VictorW-repo/astral-assessment/internal/config"
	"github.com/VictorW-repo/astral-assessment/internal/dispatcher"
	"github.com/VictorW-repo/astral-assessment/internal/firecrawl"
	"github.com/VictorW-repo/astral-assessment/internal/id/uuid"
	"github.com/VictorW-repo/astral-assessment/internal/logging"
	queueMemory "github.com/VictorW-repo/astral-assessment/internal/queue/memory"
	"github.com/VictorW-repo/astral-assessment/internal/storage/local"
	"github.com/VictorW-repo/astral-assessment/internal/worker"
	"github.com/VictorW-repo/astral-assessment/internal/workflow"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	blobStore, err := local.New(local.Config{BaseDir: cfg.Output.Dir})
	if err != nil {
		logger.Fatal("blob store init failed", zap.Error(err))
	}

	client := firecrawl.New(firecrawl.Config{
		BaseURL:           cfg.Firecrawl.APIURL,
		APIKey:            cfg.Firecrawl.APIKey,
		UserAgent:         cfg.Firecrawl.UserAgent,
		RequestTimeout:    cfg.RequestTimeout(),
		MaxRetries:        cfg.Firecrawl.MaxRetries,
		BackoffBase:       cfg.BackoffInitial(),
		BackoffMax:        cfg.BackoffMax(),
		RequestsPerMinute: cfg.Firecrawl.RequestsPerMinute,
		PollInterval:      cfg.PollInterval(),
		MaxCrawlWait:      cfg.MaxCrawlWait(),
		MaxCrawlURLs:      cfg.Firecrawl.MaxCrawlURLs,
		BatchConcurrency:  cfg.Scrape.Concurrency,
		BatchDelay:        cfg.BatchDelay(),
	}, logger.Named("firecrawl"))
	if !client.HasKey() {
		logger.Warn("no firecrawl api key configured, running in degraded mode")
	}

	fallback := analysis.NewFallbackFetcher(analysis.FallbackConfig{
		UserAgent:         cfg.Firecrawl.UserAgent,
		Timeout:           cfg.RequestTimeout(),
		RequestsPerSecond: cfg.Fallback.RequestsPerSecond,
		SimpleHosts:       cfg.Fallback.SimpleHosts,
	}, logger.Named("fallback"))

	clock := system.New()
	idGen := uuid.New()
	discoverer := analysis.NewDiscoverer(client, cfg.Firecrawl.MaxCrawlURLs, logger.Named("discover"))
	scraper := analysis.NewScraper(client, fallback, logger.Named("scrape"))
	runner := workflow.NewLoggingRunner(logger.Named("pipeline"), clock)
	pipeline := workflow.New(
		discoverer,
		scraper,
		analysis.FilterConfig{
			KeepLimit:        cfg.Filter.KeepLimit,
			ValuableKeywords: cfg.Filter.ValuableKeywords,
			ExcludedKeywords: cfg.Filter.ExcludedKeywords,
		},
		blobStore,
		runner,
		clock,
		cfg.Scrape.Format,
		logger.Named("workflow"),
	)

	queue := queueMemory.NewQueue(cfg.Intake.QueueDepth)
	var workers []*worker.Worker
	for i := 0; i < cfg.Intake.Workers; i++ {
		workers = append(workers, worker.New(
			queue,
			pipeline,
			worker.Config{},
			logger.Named("worker").With(zap.Int("index", i)),
		))
	}
	dispatch := dispatcher.New(queue, workers)

	apiServer := api.NewServer(dispatch, idGen, clock, cfg.Webhook.SigningKey, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("dispatcher started", zap.Int("workers", cfg.Intake.Workers))
		dispatch.Run(ctx)
	}()

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	queue.Close()
	logger.Info("shutdown complete")
}
