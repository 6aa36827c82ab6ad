// Package memory provides a bounded in-memory lead queue for local
// deployments.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/VictorW-repo/astral-assessment/internal/workflow"
)

// ErrClosed is returned when the queue has been shut down.
var ErrClosed = errors.New("queue closed")

// Queue is a bounded in-memory lead queue with context-aware operations.
type Queue struct {
	ch      chan workflow.Lead
	closeMu sync.Mutex
	closed  bool
}

// NewQueue constructs a queue with the provided capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 64
	}
	return &Queue{ch: make(chan workflow.Lead, capacity)}
}

// Enqueue pushes a lead into the queue or returns if the context ends.
func (q *Queue) Enqueue(ctx context.Context, lead workflow.Lead) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case q.ch <- lead:
		return nil
	}
}

// Dequeue pops the next lead, respecting context cancellation.
func (q *Queue) Dequeue(ctx context.Context) (workflow.Lead, error) {
	select {
	case <-ctx.Done():
		return workflow.Lead{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case lead, ok := <-q.ch:
		if !ok {
			return workflow.Lead{}, ErrClosed
		}
		return lead, nil
	}
}

// Close closes the underlying channel for shutdown.
func (q *Queue) Close() {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return
	}
	close(q.ch)
	q.closed = true
}
