// Package background runs fire-and-forget tasks with bounded concurrency and
// an isolated error sink. Submitting never blocks the caller and a task's
// failure (error or panic) is logged here, never propagated to the submitter.
package background

import (
	"context"
	"log/slog"
	"sync"
)

// Runner manages background task goroutines.
type Runner struct {
	slots  chan struct{}
	logger *slog.Logger

	mu     sync.Mutex
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// NewRunner creates a Runner with at most maxSlots concurrent tasks.
// A nil logger falls back to slog's default.
func NewRunner(maxSlots int, logger *slog.Logger) *Runner {
	if maxSlots <= 0 {
		maxSlots = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		slots:  make(chan struct{}, maxSlots),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Submit schedules task on its own goroutine and returns immediately. It
// reports false when the runner is closed or all slots are busy; a dropped
// task is logged and simply not run. The task receives a context that is
// canceled when the runner closes.
func (r *Runner) Submit(name string, task func(ctx context.Context) error) bool {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return false
	}
	select {
	case r.slots <- struct{}{}:
	default:
		r.mu.Unlock()
		r.logger.Warn("background task dropped, all slots busy", "task", name)
		return false
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("background task panicked", "task", name, "panic", rec)
			}
			<-r.slots
			r.wg.Done()
		}()
		if err := task(r.ctx); err != nil {
			r.logger.Error("background task failed", "task", name, "error", err)
		}
	}()
	return true
}

// Close stops accepting new tasks, cancels the context handed to in-flight
// tasks, and waits for them to finish.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
}
