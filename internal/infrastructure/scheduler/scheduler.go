package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/taskhive/core/internal/infrastructure/logger"
)

// Job is one unit of scheduled work. Errors are logged, not fatal: the next
// tick runs regardless.
type Job func(ctx context.Context) error

// Runner invokes a job on a fixed interval. It runs the job once
// immediately on start, then on every tick until the context is cancelled
// or Stop is called. A run is never interrupted mid-flight.
type Runner struct {
	name     string
	interval time.Duration
	job      Job
	logger   *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewRunner creates a new interval runner
func NewRunner(name string, interval time.Duration, job Job, logger *logger.Logger) *Runner {
	return &Runner{
		name:     name,
		interval: interval,
		job:      job,
		logger:   logger.WithComponent("scheduler"),
	}
}

// Start launches the runner's loop.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("runner %s is already running", r.name)
	}
	r.running = true

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.loop(runCtx)

	r.logger.Infow("Runner started", "job", r.name, "interval", r.interval)
	return nil
}

// Stop cancels the loop and waits for any in-flight run to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	cancel()
	<-done

	r.logger.Infow("Runner stopped", "job", r.name)
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)

	r.run(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.run(ctx)
		}
	}
}

func (r *Runner) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := r.job(ctx); err != nil {
		r.logger.Errorw("Scheduled job failed", "job", r.name, "error", err)
	}
}
