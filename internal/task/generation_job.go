package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/upkeepai/upkeep-api/internal/domain"
	"github.com/upkeepai/upkeep-api/internal/store"
)

// Common errors
var (
	ErrNilItemService   = errors.New("item service cannot be nil")
	ErrNilPlanGenerator = errors.New("plan generator cannot be nil")
	ErrNilQuotaChecker  = errors.New("quota checker cannot be nil")
	ErrNilLogger        = errors.New("logger cannot be nil")
	ErrEmptyItemID      = errors.New("item ID cannot be empty")
)

// ItemService defines the item operations the generation job needs. The
// conditional transitions enforce the state machine: every mutating call
// only succeeds while the item still owns a pending generation, and
// returns store.ErrItemNotPending otherwise.
type ItemService interface {
	// GetItem retrieves an item by its ID regardless of owner.
	GetItem(ctx context.Context, itemID uuid.UUID) (*domain.Item, error)

	// ClaimPendingGeneration refreshes the generation claim on a pending item.
	ClaimPendingGeneration(ctx context.Context, itemID uuid.UUID) error

	// CompleteGeneration inserts the task batch and marks the item ready in
	// one transaction. An empty batch still resolves the item to ready.
	CompleteGeneration(ctx context.Context, itemID uuid.UUID, tasks []*domain.Task) error

	// FailGeneration marks the item failed with the given message.
	FailGeneration(ctx context.Context, itemID uuid.UUID, message string) error
}

// PlanGenerator defines the provider interface for maintenance-plan
// generation. Returned tasks are sorted ascending by priority.
type PlanGenerator interface {
	GenerateTasks(ctx context.Context, item *domain.Item) ([]*domain.Task, error)
}

// QuotaChecker computes a user's remaining daily generation allowance.
type QuotaChecker interface {
	// RemainingQuota returns the remaining allowance and the configured
	// daily limit for the user's current local day, derived from the
	// caller-supplied UTC offset in minutes.
	RemainingQuota(ctx context.Context, userID uuid.UUID, tzOffsetMinutes int) (remaining, limit int, err error)
}

// planGenerationPayload represents the serialized data stored in the job record
type planGenerationPayload struct {
	ItemID          uuid.UUID `json:"item_id"`
	TzOffsetMinutes int       `json:"tz_offset_minutes"`
}

// PlanGenerationJob implements the Job interface for generating a
// maintenance task plan for one item.
type PlanGenerationJob struct {
	id              uuid.UUID
	itemID          uuid.UUID
	tzOffsetMinutes int
	itemService     ItemService
	generator       PlanGenerator
	quota           QuotaChecker
	logger          *slog.Logger
	status          JobStatus
}

// NewPlanGenerationJob creates a new plan generation job for the given item.
// tzOffsetMinutes is the client's UTC offset captured at item creation; jobs
// rebuilt during recovery use zero.
func NewPlanGenerationJob(
	itemID uuid.UUID,
	tzOffsetMinutes int,
	itemService ItemService,
	generator PlanGenerator,
	quota QuotaChecker,
	logger *slog.Logger,
) (*PlanGenerationJob, error) {
	if itemService == nil {
		return nil, ErrNilItemService
	}
	if generator == nil {
		return nil, ErrNilPlanGenerator
	}
	if quota == nil {
		return nil, ErrNilQuotaChecker
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if itemID == uuid.Nil {
		return nil, ErrEmptyItemID
	}

	return &PlanGenerationJob{
		id:              uuid.New(),
		itemID:          itemID,
		tzOffsetMinutes: tzOffsetMinutes,
		itemService:     itemService,
		generator:       generator,
		quota:           quota,
		logger:          logger.With("job_type", JobTypePlanGeneration, "item_id", itemID),
		status:          JobStatusPending,
	}, nil
}

// ID returns the job's unique identifier
func (j *PlanGenerationJob) ID() uuid.UUID {
	return j.id
}

// Type returns the job type identifier
func (j *PlanGenerationJob) Type() string {
	return JobTypePlanGeneration
}

// Payload returns the job data as a byte slice
func (j *PlanGenerationJob) Payload() []byte {
	payload := planGenerationPayload{
		ItemID:          j.itemID,
		TzOffsetMinutes: j.tzOffsetMinutes,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		j.logger.Error("failed to marshal job payload", "error", err)
		return []byte{}
	}

	return data
}

// Status returns the current job status
func (j *PlanGenerationJob) Status() JobStatus {
	return j.status
}

// Execute runs the full generation protocol for one item: claim the pending
// generation, check quota, call the provider, truncate to the remaining
// allowance, and resolve the item to ready or failed. Every terminal error
// is absorbed into persisted item state; nothing here is retried, because a
// poller, not a caller, observes the result.
func (j *PlanGenerationJob) Execute(ctx context.Context) (Outcome, error) {
	j.status = JobStatusProcessing
	j.logger.Info("starting plan generation job")

	if err := ctx.Err(); err != nil {
		j.status = JobStatusFailed
		return OutcomeFailed, fmt.Errorf("job cancelled by context: %w", err)
	}

	item, err := j.itemService.GetItem(ctx, j.itemID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return j.skip(fmt.Errorf("item deleted before generation started: %w", err))
		}
		return j.fail(ctx, fmt.Errorf("failed to retrieve item: %w", err))
	}

	// Claim the generation. Only one job can be working a pending item at a
	// time in any meaningful sense: a duplicate submission finds the claim
	// check failing once the first job has resolved the item, and until
	// then the transactional ready transition keeps the loser's batch out.
	if err := j.itemService.ClaimPendingGeneration(ctx, j.itemID); err != nil {
		if errors.Is(err, store.ErrItemNotPending) {
			return j.skip(fmt.Errorf("item no longer owns a pending generation: %w", err))
		}
		return j.fail(ctx, fmt.Errorf("failed to claim pending generation: %w", err))
	}

	remaining, limit, err := j.quota.RemainingQuota(ctx, item.UserID, j.tzOffsetMinutes)
	if err != nil {
		return j.fail(ctx, fmt.Errorf("failed to check quota: %w", err))
	}

	if remaining <= 0 {
		msg := fmt.Sprintf(
			"daily limit of %d generated tasks reached; the limit resets at your local midnight",
			limit,
		)
		j.logger.Info("quota exhausted, failing generation", "limit", limit)
		return j.failWithMessage(ctx, msg, errors.New(msg))
	}

	tasks, err := j.generator.GenerateTasks(ctx, item)
	if err != nil {
		return j.fail(ctx, fmt.Errorf("provider failed to generate tasks: %w", err))
	}

	j.logger.Info("tasks generated", "count", len(tasks), "remaining_quota", remaining)

	// Drop candidates beyond the remaining allowance. The generator sorts
	// ascending by priority, so truncation keeps the most important tasks.
	if len(tasks) > remaining {
		j.logger.Info("truncating plan to remaining quota",
			"generated", len(tasks),
			"kept", remaining)
		tasks = tasks[:remaining]
	}

	if err := j.itemService.CompleteGeneration(ctx, j.itemID, tasks); err != nil {
		if errors.Is(err, store.ErrItemNotPending) {
			// The item was deleted mid-flight; the transaction rolled the
			// batch back so no orphan tasks exist.
			return j.skip(fmt.Errorf("item resolved or deleted during generation: %w", err))
		}
		return j.fail(ctx, fmt.Errorf("failed to persist generated tasks: %w", err))
	}

	j.status = JobStatusCompleted
	j.logger.Info("plan generation job completed", "tasks_inserted", len(tasks))
	return OutcomeCompleted, nil
}

// skip records a silent skip: the item is left untouched.
func (j *PlanGenerationJob) skip(reason error) (Outcome, error) {
	j.status = JobStatusSkipped
	j.logger.Info("skipping plan generation job", "reason", reason.Error())
	return OutcomeSkipped, reason
}

// fail marks the item failed with the (truncated) error text.
func (j *PlanGenerationJob) fail(ctx context.Context, cause error) (Outcome, error) {
	return j.failWithMessage(ctx, domain.TruncateGenError(cause.Error()), cause)
}

// failWithMessage marks the item failed with an explicit message. If the
// item lost its pending generation in the meantime, the job resolves as a
// skip instead.
func (j *PlanGenerationJob) failWithMessage(ctx context.Context, msg string, cause error) (Outcome, error) {
	j.logger.Error("plan generation failed", "error", cause)

	if err := j.itemService.FailGeneration(ctx, j.itemID, msg); err != nil {
		if errors.Is(err, store.ErrItemNotPending) {
			return j.skip(fmt.Errorf("item resolved or deleted before failure could be recorded: %w", cause))
		}
		j.logger.Error("failed to record generation failure", "error", err)
	}

	j.status = JobStatusFailed
	return OutcomeFailed, cause
}
