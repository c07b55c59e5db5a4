// Package background runs detached, fire-and-forget tasks whose outcome is
// only logged. Callers never observe a task's result.
package background

import (
	"context"
	"sync"
	"time"

	"smartparking/pkg/logger"

	"golang.org/x/sync/errgroup"
)

type Task func(ctx context.Context) error

type Runner struct {
	// mu orders group.Go against Wait, and guards closed.
	mu     sync.Mutex
	group  *errgroup.Group
	closed bool

	timeout time.Duration
	log     *logger.Logger
}

func NewRunner(timeout time.Duration, log *logger.Logger) *Runner {
	return &Runner{
		group:   &errgroup.Group{},
		timeout: timeout,
		log:     log,
	}
}

// Go starts task in its own goroutine and returns immediately. The task
// context keeps the values of ctx but not its cancellation, so a finished
// HTTP request does not abort it; it is bounded by the runner timeout instead.
// Tasks handed to a closed runner are dropped and logged.
func (r *Runner) Go(ctx context.Context, name string, task Task) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		r.log.WarnContext(ctx, "Background task dropped, runner is shutting down", "task", name)
		return
	}

	detached := context.WithoutCancel(ctx)
	r.group.Go(func() error {
		taskCtx, cancel := context.WithTimeout(detached, r.timeout)
		defer cancel()

		start := time.Now()
		err := r.run(taskCtx, task)
		if err != nil {
			r.log.ErrorContext(taskCtx, "Background task failed",
				"task", name,
				"duration_ms", time.Since(start).Milliseconds(),
				"error", err,
			)
			return nil
		}

		r.log.DebugContext(taskCtx, "Background task completed",
			"task", name,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	})
}

func (r *Runner) run(ctx context.Context, task Task) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &PanicError{Value: rec}
		}
	}()
	return task(ctx)
}

// Wait blocks until every task started before the call has finished or ctx
// is done. Tasks started meanwhile go to a fresh group and are not awaited.
func (r *Runner) Wait(ctx context.Context) error {
	r.mu.Lock()
	group := r.group
	r.group = &errgroup.Group{}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = group.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks and waits for the ones already running.
func (r *Runner) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	return r.Wait(ctx)
}

type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return "background task panicked"
}
