package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobFactory builds jobs for items that still need generation. The runner
// uses it to rebuild work during recovery and the stuck-item sweep.
type JobFactory interface {
	CreateJob(itemID uuid.UUID, tzOffsetMinutes int) (Job, error)
}

// JobRunnerConfig holds configuration for the job runner
type JobRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process jobs
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory job queue
	QueueSize int

	// StuckItemAge defines how long an item can stay in the pending
	// generation state before the sweep re-submits it
	StuckItemAge time.Duration

	// StuckCheckInterval defines how often to sweep for stuck items.
	// If zero, defaults to 5 minutes.
	StuckCheckInterval time.Duration
}

// DefaultJobRunnerConfig returns a JobRunnerConfig with reasonable defaults
func DefaultJobRunnerConfig() JobRunnerConfig {
	return JobRunnerConfig{
		WorkerCount:        2,
		QueueSize:          100,
		StuckItemAge:       30 * time.Minute,
		StuckCheckInterval: 5 * time.Minute,
	}
}

// JobRunner manages background job processing: a worker pool consuming the
// in-memory queue, a ledger of job records, startup recovery, and the
// periodic stuck-item sweep.
type JobRunner struct {
	store      JobStore
	items      StalePendingLister
	factory    JobFactory
	queue      *JobQueue
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     JobRunnerConfig
	logger     *slog.Logger
	errHandler func(job Job, err error)
}

// NewJobRunner creates a new JobRunner.
func NewJobRunner(
	store JobStore,
	items StalePendingLister,
	factory JobFactory,
	config JobRunnerConfig,
	logger *slog.Logger,
) *JobRunner {
	if config.StuckCheckInterval == 0 {
		config.StuckCheckInterval = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &JobRunner{
		store:      store,
		items:      items,
		factory:    factory,
		queue:      NewJobQueue(config.QueueSize, logger),
		ctx:        ctx,
		cancelFunc: cancel,
		wg:         sync.WaitGroup{},
		config:     config,
		logger:     logger,
		errHandler: func(job Job, err error) {
			logger.Error("job execution failed",
				"job_id", job.ID(),
				"job_type", job.Type(),
				"error", err)
		},
	}
}

// SetErrorHandler allows setting a custom error handler function.
func (r *JobRunner) SetErrorHandler(handler func(job Job, err error)) {
	r.errHandler = handler
}

// Submit persists a job record and adds the job to the queue.
func (r *JobRunner) Submit(ctx context.Context, job Job) error {
	if err := r.store.SaveJob(ctx, job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	if err := r.queue.Enqueue(job); err != nil {
		// The job record stays pending; the stuck-item sweep will pick the
		// item up again later.
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	return nil
}

// Start recovers outstanding work, then launches the worker pool and the
// stuck-item sweep.
func (r *JobRunner) Start() error {
	if err := r.Recover(); err != nil {
		return fmt.Errorf("failed to recover pending generations: %w", err)
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.wg.Add(1)
	go r.stuckItemMonitor()

	return nil
}

// Stop gracefully shuts down the job runner.
func (r *JobRunner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
	r.queue.Close()
}

// Recover re-submits every item whose generation is still pending. Items are
// the source of truth: any job interrupted by a crash left its item pending,
// so rebuilding jobs from pending items covers lost job records, lost queue
// entries, and mid-execution kills alike. Rebuilt jobs carry a zero UTC
// offset because the original client offset is not worth persisting.
func (r *JobRunner) Recover() error {
	ctx := context.Background()

	items, err := r.items.FindStalePending(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to find pending items: %w", err)
	}

	r.logger.Info("recovering pending generations", "item_count", len(items))

	for _, item := range items {
		r.resubmitItem(ctx, item.ID)
	}

	return nil
}

// resubmitItem builds a fresh job for the item and submits it. Failures are
// logged, not returned: the next sweep retries.
func (r *JobRunner) resubmitItem(ctx context.Context, itemID uuid.UUID) {
	job, err := r.factory.CreateJob(itemID, 0)
	if err != nil {
		r.logger.Error("failed to rebuild job for pending item",
			"item_id", itemID,
			"error", err)
		return
	}

	if err := r.Submit(ctx, job); err != nil {
		r.logger.Error("failed to resubmit job for pending item",
			"item_id", itemID,
			"job_id", job.ID(),
			"error", err)
		return
	}

	r.logger.Info("resubmitted generation for pending item",
		"item_id", itemID,
		"job_id", job.ID())
}

// worker processes jobs from the queue.
func (r *JobRunner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return

		case job, ok := <-r.queue.GetChannel():
			if !ok {
				r.logger.Debug("job channel closed, stopping worker", "worker_id", id)
				return
			}

			r.processJob(job, id)
		}
	}
}

// processJob handles execution of a single job and records its outcome in
// the ledger.
func (r *JobRunner) processJob(job Job, workerID int) {
	ctx := context.Background()
	logger := r.logger.With(
		"job_id", job.ID(),
		"job_type", job.Type(),
		"worker_id", workerID,
	)

	if err := r.store.UpdateJobStatus(ctx, job.ID(), JobStatusProcessing, ""); err != nil {
		logger.Error("failed to update job status to processing", "error", err)
		return
	}

	logger.Info("processing job")

	outcome, err := job.Execute(r.ctx)

	switch outcome {
	case OutcomeCompleted:
		logger.Info("job completed successfully")
		if updateErr := r.store.UpdateJobStatus(ctx, job.ID(), JobStatusCompleted, ""); updateErr != nil {
			logger.Error("failed to update job status to completed", "error", updateErr)
		}

	case OutcomeSkipped:
		msg := ""
		if err != nil {
			msg = err.Error()
		}
		logger.Info("job skipped", "reason", msg)
		if updateErr := r.store.UpdateJobStatus(ctx, job.ID(), JobStatusSkipped, msg); updateErr != nil {
			logger.Error("failed to update job status to skipped", "error", updateErr)
		}

	case OutcomeFailed:
		msg := ""
		if err != nil {
			msg = err.Error()
		}
		logger.Error("job execution failed", "error", msg)
		if updateErr := r.store.UpdateJobStatus(ctx, job.ID(), JobStatusFailed, msg); updateErr != nil {
			logger.Error("failed to update job status to failed", "error", updateErr)
		}
		if err != nil {
			r.errHandler(job, err)
		}
	}
}

// stuckItemMonitor periodically re-submits items whose generation has been
// pending for too long. The claim refresh keeps actively-worked items out
// of the sweep, and duplicate submissions resolve as skips.
func (r *JobRunner) stuckItemMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			ctx := context.Background()

			stuckItems, err := r.items.FindStalePending(ctx, r.config.StuckItemAge)
			if err != nil {
				r.logger.Error("failed to check for stuck items", "error", err)
				continue
			}

			if len(stuckItems) == 0 {
				continue
			}

			r.logger.Info("found stuck pending items", "count", len(stuckItems))

			for _, item := range stuckItems {
				r.resubmitItem(ctx, item.ID)
			}
		}
	}
}
