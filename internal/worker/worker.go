// Package worker drains the lead queue and runs the analysis pipeline.
package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/VictorW-repo/astral-assessment/internal/queue/memory"
	"github.com/VictorW-repo/astral-assessment/internal/workflow"
)

// Analyzer runs the pipeline for one lead. Satisfied by *workflow.Workflow.
type Analyzer interface {
	Execute(ctx context.Context, lead workflow.Lead) (workflow.Result, error)
}

// Config controls per-lead processing.
type Config struct {
	// LeadTimeout bounds one analysis run. Zero means 15 minutes.
	LeadTimeout time.Duration
}

// Worker pulls leads off the queue and analyzes them one at a time.
type Worker struct {
	queue    *memory.Queue
	analyzer Analyzer
	cfg      Config
	logger   *zap.Logger
}

// New builds a Worker. logger may be nil.
func New(queue *memory.Queue, analyzer Analyzer, cfg Config, logger *zap.Logger) *Worker {
	if cfg.LeadTimeout <= 0 {
		cfg.LeadTimeout = 15 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{queue: queue, analyzer: analyzer, cfg: cfg, logger: logger}
}

// Run processes leads until the context ends or the queue closes.
func (w *Worker) Run(ctx context.Context) {
	for {
		lead, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, memory.ErrClosed) || ctx.Err() != nil {
				return
			}
			w.logger.Warn("dequeue failed", zap.Error(err))
			continue
		}
		w.process(ctx, lead)
	}
}

// process runs one lead with its own deadline. Pipeline failures are
// logged and absorbed; one bad lead never takes the worker down.
func (w *Worker) process(ctx context.Context, lead workflow.Lead) {
	leadCtx, cancel := context.WithTimeout(ctx, w.cfg.LeadTimeout)
	defer cancel()

	w.logger.Info("processing lead", zap.String("request_id", lead.RequestID))
	if _, err := w.analyzer.Execute(leadCtx, lead); err != nil {
		w.logger.Error("lead analysis failed",
			zap.String("request_id", lead.RequestID),
			zap.Error(err),
		)
	}
}
