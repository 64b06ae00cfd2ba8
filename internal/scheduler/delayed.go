package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrAlreadyScheduled is returned when a task with the same key is still pending.
	ErrAlreadyScheduled = errors.New("task already scheduled")
	// ErrRunnerStopped is returned by Schedule after Stop.
	ErrRunnerStopped = errors.New("task runner stopped")
)

// DelayedRunner executes one-shot tasks after a delay. Tasks are keyed so the
// same batch cannot be scheduled twice while pending, and every pending task
// is abandoned when the runner stops (no retries, nothing left dangling).
type DelayedRunner struct {
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	pending map[string]*time.Timer
	wg      sync.WaitGroup
	stopped bool
	logger  *slog.Logger
}

// NewDelayedRunner returns a runner whose tasks receive a context derived from parent.
func NewDelayedRunner(parent context.Context, logger *slog.Logger) *DelayedRunner {
	ctx, cancel := context.WithCancel(parent)
	return &DelayedRunner{
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[string]*time.Timer),
		logger:  logger,
	}
}

// Schedule runs task once after delay on its own goroutine.
func (r *DelayedRunner) Schedule(key string, delay time.Duration, task func(ctx context.Context)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped || r.ctx.Err() != nil {
		return ErrRunnerStopped
	}
	if _, ok := r.pending[key]; ok {
		return ErrAlreadyScheduled
	}

	r.wg.Add(1)
	r.pending[key] = time.AfterFunc(delay, func() {
		defer r.wg.Done()

		r.mu.Lock()
		delete(r.pending, key)
		r.mu.Unlock()

		if r.ctx.Err() != nil {
			r.logger.Debug("delayed task abandoned", "key", key)
			return
		}
		task(r.ctx)
	})
	r.logger.Debug("delayed task scheduled", "key", key, "delay", delay.String())
	return nil
}

// Cancel abandons a pending task. It reports false if the task already
// started or was never scheduled.
func (r *DelayedRunner) Cancel(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.pending[key]
	if !ok || !t.Stop() {
		return false
	}
	delete(r.pending, key)
	r.wg.Done()
	return true
}

// Pending returns the number of tasks waiting for their delay.
func (r *DelayedRunner) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Wait blocks until every scheduled task has finished or been cancelled.
func (r *DelayedRunner) Wait() {
	r.wg.Wait()
}

// Stop abandons pending tasks, cancels the context of running ones and
// waits for them to return.
func (r *DelayedRunner) Stop() {
	r.mu.Lock()
	r.stopped = true
	for key, t := range r.pending {
		if t.Stop() {
			r.wg.Done()
		}
		delete(r.pending, key)
	}
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
}
