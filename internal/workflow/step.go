package workflow

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/VictorW-repo/astral-assessment/internal/telemetry"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// StepFunc is one unit of pipeline work.
type StepFunc func(ctx context.Context) error

// Runner executes named pipeline steps. Implementations add the
// cross-cutting behavior (logging, timing) so the pipeline body stays
// declarative.
type Runner interface {
	Run(ctx context.Context, name string, fn StepFunc) error
}

// LoggingRunner runs steps with start/finish logs and phase timing.
type LoggingRunner struct {
	logger *zap.Logger
	clock  Clock
}

// NewLoggingRunner builds a runner. logger may be nil.
func NewLoggingRunner(logger *zap.Logger, clock Clock) *LoggingRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingRunner{logger: logger, clock: clock}
}

// Run executes fn, recording its duration whether it succeeds or fails.
func (r *LoggingRunner) Run(ctx context.Context, name string, fn StepFunc) error {
	start := r.clock.Now()
	r.logger.Info("step started", zap.String("step", name))

	err := fn(ctx)
	elapsed := r.clock.Now().Sub(start)
	telemetry.ObservePipelinePhase(name, elapsed)

	if err != nil {
		r.logger.Warn("step failed",
			zap.String("step", name),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return fmt.Errorf("step %s: %w", name, err)
	}
	r.logger.Info("step finished",
		zap.String("step", name),
		zap.Duration("elapsed", elapsed),
	)
	return nil
}
