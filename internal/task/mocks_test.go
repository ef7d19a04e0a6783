package task

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/upkeepai/upkeep-api/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeItemService implements ItemService with overridable behavior and
// records the calls it receives.
type fakeItemService struct {
	mu sync.Mutex

	getItemFn            func(ctx context.Context, itemID uuid.UUID) (*domain.Item, error)
	claimFn              func(ctx context.Context, itemID uuid.UUID) error
	completeGenerationFn func(ctx context.Context, itemID uuid.UUID, tasks []*domain.Task) error
	failGenerationFn     func(ctx context.Context, itemID uuid.UUID, message string) error

	completedTasks []*domain.Task
	failedMessage  string
	failCalls      int
	completeCalls  int
}

func (f *fakeItemService) GetItem(ctx context.Context, itemID uuid.UUID) (*domain.Item, error) {
	return f.getItemFn(ctx, itemID)
}

func (f *fakeItemService) ClaimPendingGeneration(ctx context.Context, itemID uuid.UUID) error {
	if f.claimFn == nil {
		return nil
	}
	return f.claimFn(ctx, itemID)
}

func (f *fakeItemService) CompleteGeneration(
	ctx context.Context,
	itemID uuid.UUID,
	tasks []*domain.Task,
) error {
	f.mu.Lock()
	f.completeCalls++
	f.completedTasks = tasks
	f.mu.Unlock()
	if f.completeGenerationFn == nil {
		return nil
	}
	return f.completeGenerationFn(ctx, itemID, tasks)
}

func (f *fakeItemService) FailGeneration(ctx context.Context, itemID uuid.UUID, message string) error {
	f.mu.Lock()
	f.failCalls++
	f.failedMessage = message
	f.mu.Unlock()
	if f.failGenerationFn == nil {
		return nil
	}
	return f.failGenerationFn(ctx, itemID, message)
}

// fakeGenerator implements PlanGenerator.
type fakeGenerator struct {
	tasks []*domain.Task
	err   error
	calls int
}

func (f *fakeGenerator) GenerateTasks(_ context.Context, _ *domain.Item) ([]*domain.Task, error) {
	f.calls++
	return f.tasks, f.err
}

// fakeQuota implements QuotaChecker.
type fakeQuota struct {
	remaining int
	limit     int
	err       error
}

func (f *fakeQuota) RemainingQuota(
	_ context.Context,
	_ uuid.UUID,
	_ int,
) (int, int, error) {
	return f.remaining, f.limit, f.err
}

// fakeJobStore implements JobStore in memory.
type fakeJobStore struct {
	mu       sync.Mutex
	saved    []Job
	statuses map[uuid.UUID]JobStatus
	messages map[uuid.UUID]string
	saveErr  error
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{
		statuses: make(map[uuid.UUID]JobStatus),
		messages: make(map[uuid.UUID]string),
	}
}

func (f *fakeJobStore) SaveJob(_ context.Context, job Job) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, job)
	f.statuses[job.ID()] = job.Status()
	return nil
}

func (f *fakeJobStore) UpdateJobStatus(
	_ context.Context,
	jobID uuid.UUID,
	status JobStatus,
	errorMsg string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[jobID] = status
	f.messages[jobID] = errorMsg
	return nil
}

func (f *fakeJobStore) CountActive(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, status := range f.statuses {
		if status == JobStatusPending || status == JobStatusProcessing {
			count++
		}
	}
	return count, nil
}

func (f *fakeJobStore) WithTx(_ *sql.Tx) JobStore {
	return f
}

func (f *fakeJobStore) statusOf(jobID uuid.UUID) JobStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statuses[jobID]
}

// fakeStaleLister implements StalePendingLister.
type fakeStaleLister struct {
	mu    sync.Mutex
	items []*domain.Item
	err   error
}

func (f *fakeStaleLister) FindStalePending(
	_ context.Context,
	_ time.Duration,
) ([]*domain.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	items := f.items
	f.items = nil
	return items, nil
}

// fakeJob implements Job with a scripted outcome.
type fakeJob struct {
	id      uuid.UUID
	outcome Outcome
	err     error
	mu      sync.Mutex
	runs    int
}

func newFakeJob(outcome Outcome, err error) *fakeJob {
	return &fakeJob{
		id:      uuid.New(),
		outcome: outcome,
		err:     err,
	}
}

func (j *fakeJob) ID() uuid.UUID     { return j.id }
func (j *fakeJob) Type() string      { return JobTypePlanGeneration }
func (j *fakeJob) Payload() []byte   { return []byte(`{}`) }
func (j *fakeJob) Status() JobStatus { return JobStatusPending }

func (j *fakeJob) runCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.runs
}

func (j *fakeJob) Execute(_ context.Context) (Outcome, error) {
	j.mu.Lock()
	j.runs++
	j.mu.Unlock()
	return j.outcome, j.err
}
