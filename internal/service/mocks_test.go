package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/upkeepai/upkeep-api/internal/domain"
	"github.com/upkeepai/upkeep-api/internal/events"
	"github.com/upkeepai/upkeep-api/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeItemStore implements store.ItemStore with overridable behavior.
type fakeItemStore struct {
	mu sync.Mutex

	createFn     func(ctx context.Context, item *domain.Item) error
	getForUserFn func(ctx context.Context, id, userID uuid.UUID) (*domain.Item, error)
	deleteFn     func(ctx context.Context, id, userID uuid.UUID) error

	created       []*domain.Item
	failedMessage string
}

func (f *fakeItemStore) Create(ctx context.Context, item *domain.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createFn != nil {
		return f.createFn(ctx, item)
	}
	f.created = append(f.created, item)
	return nil
}

func (f *fakeItemStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	return nil, store.ErrItemNotFound
}

func (f *fakeItemStore) GetForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Item, error) {
	if f.getForUserFn != nil {
		return f.getForUserFn(ctx, id, userID)
	}
	return nil, store.ErrItemNotFound
}

func (f *fakeItemStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*domain.Item{}, f.created...), nil
}

func (f *fakeItemStore) ClaimPendingGeneration(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (f *fakeItemStore) MarkGenerationReady(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (f *fakeItemStore) MarkGenerationFailed(ctx context.Context, id uuid.UUID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failedMessage = message
	return nil
}

func (f *fakeItemStore) FindStalePending(ctx context.Context, olderThan time.Duration) ([]*domain.Item, error) {
	return nil, nil
}

func (f *fakeItemStore) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id, userID)
	}
	return nil
}

func (f *fakeItemStore) WithTx(tx *sql.Tx) store.ItemStore { return f }

// fakeTaskStore implements store.TaskStore with overridable behavior.
type fakeTaskStore struct {
	listByItemFn func(ctx context.Context, userID, itemID uuid.UUID) ([]*domain.Task, error)
	listByUserFn func(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)
	countFn      func(ctx context.Context, userID uuid.UUID, start, end time.Time) (int, error)

	lastStart time.Time
	lastEnd   time.Time
}

func (f *fakeTaskStore) CreateBatch(ctx context.Context, tasks []*domain.Task) error {
	return nil
}

func (f *fakeTaskStore) ListByItem(ctx context.Context, userID, itemID uuid.UUID) ([]*domain.Task, error) {
	if f.listByItemFn != nil {
		return f.listByItemFn(ctx, userID, itemID)
	}
	return []*domain.Task{}, nil
}

func (f *fakeTaskStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	if f.listByUserFn != nil {
		return f.listByUserFn(ctx, userID)
	}
	return []*domain.Task{}, nil
}

func (f *fakeTaskStore) CountCreatedBetween(
	ctx context.Context,
	userID uuid.UUID,
	start, end time.Time,
) (int, error) {
	f.lastStart = start
	f.lastEnd = end
	if f.countFn != nil {
		return f.countFn(ctx, userID, start, end)
	}
	return 0, nil
}

func (f *fakeTaskStore) WithTx(tx *sql.Tx) store.TaskStore { return f }

// fakeEmitter records emitted events.
type fakeEmitter struct {
	mu      sync.Mutex
	emitFn  func(ctx context.Context, event *events.GenerationRequestedEvent) error
	emitted []*events.GenerationRequestedEvent
}

func (f *fakeEmitter) EmitEvent(ctx context.Context, event *events.GenerationRequestedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.emitFn != nil {
		return f.emitFn(ctx, event)
	}
	f.emitted = append(f.emitted, event)
	return nil
}
