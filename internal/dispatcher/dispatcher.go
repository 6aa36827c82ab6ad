// Package dispatcher manages worker fan-out over the lead queue.
package dispatcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/VictorW-repo/astral-assessment/internal/queue/memory"
	"github.com/VictorW-repo/astral-assessment/internal/worker"
	"github.com/VictorW-repo/astral-assessment/internal/workflow"
)

// Dispatcher fans out queued leads to a pool of workers.
type Dispatcher struct {
	queue   *memory.Queue
	workers []*worker.Worker
}

// New creates a Dispatcher.
func New(queue *memory.Queue, workers []*worker.Worker) *Dispatcher {
	return &Dispatcher{queue: queue, workers: workers}
}

// Run starts all workers and blocks until the context finishes and the
// workers have drained.
func (d *Dispatcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, w := range d.workers {
		wg.Add(1)
		go func(wk *worker.Worker) {
			defer wg.Done()
			wk.Run(ctx)
		}(w)
	}
	<-ctx.Done()
	wg.Wait()
}

// Enqueue proxies to the underlying queue.
func (d *Dispatcher) Enqueue(ctx context.Context, lead workflow.Lead) error {
	if err := d.queue.Enqueue(ctx, lead); err != nil {
		return fmt.Errorf("queue enqueue: %w", err)
	}
	return nil
}
