package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verto/internal/common"
)

// Pool runs a fleet of workers against the shared job store, plus a
// scheduled sweep that requeues jobs orphaned by crashed workers.
type Pool struct {
	config *common.Config
	deps   *WorkerDeps
	logger arbor.ILogger
}

// NewPool creates a worker pool.
func NewPool(cfg *common.Config, deps *WorkerDeps) *Pool {
	return &Pool{
		config: cfg,
		deps:   deps,
		logger: deps.Logger,
	}
}

// Run starts the configured number of workers and blocks until every
// worker has exited, either because the queue drained or the context
// was cancelled. Returns the total number of jobs completed.
func (p *Pool) Run(ctx context.Context) (int, error) {
	count := p.config.Worker.Count
	if count < 1 {
		count = 1
	}

	stuckTimeout := p.config.Worker.StuckTimeoutDuration()

	workers := make([]*Worker, 0, count)
	for i := 0; i < count; i++ {
		w, err := NewWorker(p.config, p.deps)
		if err != nil {
			return 0, fmt.Errorf("failed to create worker: %w", err)
		}
		workers = append(workers, w)
	}

	p.logger.Info().
		Int("count", count).
		Str("stuck_timeout", stuckTimeout.String()).
		Msg("Starting worker pool")

	sweeper := p.startStuckSweep(ctx, stuckTimeout)
	if sweeper != nil {
		defer sweeper.Stop()
	}

	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func(w *Worker) {
			defer wg.Done()
			if err := w.Run(ctx); err != nil {
				p.logger.Error().Err(err).Str("worker_id", w.ID()).Msg("Worker exited with error")
			}
		}(w)
	}
	wg.Wait()

	completed := 0
	for _, w := range workers {
		completed += w.JobsCompleted()
	}

	stats, err := p.deps.Storage.Jobs().Stats(context.WithoutCancel(ctx))
	if err != nil {
		p.logger.Warn().Err(err).Msg("Failed to read final queue stats")
	} else {
		p.logger.Info().
			Int("completed", stats.Completed).
			Int("failed", stats.Failed).
			Int("pending", stats.Pending).
			Int("in_progress", stats.InProgress).
			Msg("Worker pool finished")
	}

	return completed, nil
}

// startStuckSweep schedules the reset-stuck scan on the configured
// cron expression. Returns nil when no schedule is configured.
func (p *Pool) startStuckSweep(ctx context.Context, timeout time.Duration) *cron.Cron {
	schedule := p.config.Worker.StuckSweepSchedule
	if schedule == "" {
		return nil
	}

	jobs := p.deps.Storage.Jobs()
	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc(schedule, func() {
		n, err := jobs.ResetStuck(ctx, timeout)
		if err != nil {
			p.logger.Warn().Err(err).Msg("Stuck-job sweep failed")
			return
		}
		if n > 0 {
			p.logger.Warn().Int("requeued", n).Msg("Requeued jobs from unresponsive workers")
		}
		if stats, err := jobs.Stats(ctx); err == nil {
			p.logger.Info().
				Int("pending", stats.Pending).
				Int("in_progress", stats.InProgress).
				Int("completed", stats.Completed).
				Int("failed", stats.Failed).
				Msg("Queue progress")
		}
	})
	if err != nil {
		p.logger.Warn().
			Err(err).
			Str("schedule", schedule).
			Msg("Invalid stuck-sweep schedule, sweep disabled")
		return nil
	}

	c.Start()
	return c
}
