package task

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/upkeepai/upkeep-api/internal/domain"
)

// JobStatus represents the current state of a background job record.
type JobStatus string

// Possible job status values
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusSkipped    JobStatus = "skipped"
)

// Job type constants
const (
	// JobTypePlanGeneration identifies maintenance-plan generation jobs
	JobTypePlanGeneration = "plan_generation"
)

// Outcome classifies how a job resolved. It mirrors the item's resolution:
// Completed means the item reached ready, Failed means the item was marked
// failed (or the job could not resolve it), and Skipped means the item was
// deliberately left untouched because it no longer owned a pending
// generation. A skip is not an error; duplicate submissions and mid-flight
// deletions resolve this way by design of the state machine.
type Outcome string

// Possible job outcomes
const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// Job represents a unit of background work to be processed.
type Job interface {
	// ID returns the job's unique identifier
	ID() uuid.UUID

	// Type returns the job type identifier
	Type() string

	// Payload returns the job data as a byte slice
	Payload() []byte

	// Status returns the current job status
	Status() JobStatus

	// Execute runs the job logic and reports how it resolved. The error
	// carries detail for Failed and Skipped outcomes; it is nil for
	// Completed.
	Execute(ctx context.Context) (Outcome, error)
}

// JobQueueReader provides read-only access to the job channel,
// allowing workers to consume jobs without the ability to enqueue.
type JobQueueReader interface {
	// GetChannel returns a read-only channel for consuming jobs
	GetChannel() <-chan Job
}

// JobQueueWriter provides write access to the job queue,
// allowing services to enqueue jobs for processing.
type JobQueueWriter interface {
	// Enqueue adds a job to the queue for processing.
	// Returns an error if the queue is full or closed.
	Enqueue(job Job) error

	// Close closes the job queue, preventing further submission.
	Close()
}

// JobStore defines the interface for persisting job records. The records
// are an execution ledger, not the recovery source: restarts re-derive
// outstanding work from pending items.
type JobStore interface {
	// SaveJob persists a new job record
	SaveJob(ctx context.Context, job Job) error

	// UpdateJobStatus updates the status and message of a job record
	UpdateJobStatus(ctx context.Context, jobID uuid.UUID, status JobStatus, errorMsg string) error

	// CountActive returns the number of job records in pending or
	// processing state, used for shutdown diagnostics.
	CountActive(ctx context.Context) (int, error)

	// WithTx returns a new JobStore instance that uses the provided transaction.
	// The transaction should be created and managed by the caller.
	WithTx(tx *sql.Tx) JobStore
}

// StalePendingLister finds items whose generation has been pending longer
// than a threshold. The runner uses it for startup recovery (zero threshold)
// and for the periodic stuck-item sweep.
type StalePendingLister interface {
	FindStalePending(ctx context.Context, olderThan time.Duration) ([]*domain.Item, error)
}
