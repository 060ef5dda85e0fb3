package sandbox

import (
	"context"
	"fmt"
)

// DefaultPoolSize bounds concurrent executions when no size is configured.
const DefaultPoolSize = 8

// Pool bounds how many executions may run at once. Callers beyond the bound
// wait for a slot; the wait is abandoned when their context is done, which
// is the backpressure signal — the submission was never started, so no
// Outcome exists for it.
type Pool struct {
	exec  Executor
	slots chan struct{}
}

// NewPool wraps an executor with a concurrency ceiling.
func NewPool(exec Executor, size int) *Pool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	return &Pool{
		exec:  exec,
		slots: make(chan struct{}, size),
	}
}

// Cap returns the pool's concurrency ceiling.
func (p *Pool) Cap() int {
	return cap(p.slots)
}

// InFlight returns how many executions currently hold a slot.
func (p *Pool) InFlight() int {
	return len(p.slots)
}

// Execute acquires a slot and runs the submission. An error is returned only
// when the context ends before a slot frees up.
func (p *Pool) Execute(ctx context.Context, sub Submission) (*Outcome, error) {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for an execution slot: %w", ctx.Err())
	}
	defer func() { <-p.slots }()

	return p.exec.Execute(ctx, sub)
}
