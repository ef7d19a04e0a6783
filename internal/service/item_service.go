package service

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"

	"github.com/upkeepai/upkeep-api/internal/domain"
	"github.com/upkeepai/upkeep-api/internal/events"
	"github.com/upkeepai/upkeep-api/internal/platform/logger"
	"github.com/upkeepai/upkeep-api/internal/store"
	"github.com/upkeepai/upkeep-api/internal/task"
)

// ItemService manages the item lifecycle: registration with an immediately
// scheduled plan generation, owner-scoped reads, and the conditional
// generation-status transitions the background job drives.
type ItemService struct {
	db        *sql.DB
	itemStore store.ItemStore
	taskStore store.TaskStore
	emitter   events.EventEmitter
	logger    *slog.Logger
}

// ItemService satisfies the item operations the generation job needs.
var _ task.ItemService = (*ItemService)(nil)

// NewItemService creates a new ItemService with the given dependencies.
func NewItemService(
	db *sql.DB,
	itemStore store.ItemStore,
	taskStore store.TaskStore,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (*ItemService, error) {
	if db == nil {
		return nil, ErrNilDB
	}
	if itemStore == nil {
		return nil, ErrNilItemStore
	}
	if taskStore == nil {
		return nil, ErrNilTaskStore
	}
	if emitter == nil {
		return nil, ErrNilEmitter
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	return &ItemService{
		db:        db,
		itemStore: itemStore,
		taskStore: taskStore,
		emitter:   emitter,
		logger:    logger.With(slog.String("component", "item_service")),
	}, nil
}

// CreateItem registers a new item for the user and schedules its plan
// generation. The item is persisted with generation pending and returned
// immediately; the plan arrives asynchronously. A failed event emission is
// logged but not surfaced: the item stays pending and the stale-pending
// sweep resubmits it.
func (s *ItemService) CreateItem(
	ctx context.Context,
	userID uuid.UUID,
	name, model string,
	tzOffsetMinutes int,
) (*domain.Item, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	item, err := domain.NewItem(userID, name, model)
	if err != nil {
		return nil, NewServiceError("create_item", "invalid item", err)
	}

	if err := s.itemStore.Create(ctx, item); err != nil {
		return nil, NewServiceError("create_item", "failed to save item", err)
	}

	event, err := task.NewPlanGenerationEvent(item.ID, tzOffsetMinutes)
	if err != nil {
		log.Error("failed to build plan generation event",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return item, nil
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Error("failed to emit plan generation event",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return item, nil
	}

	log.Debug("item created and generation scheduled",
		slog.String("item_id", item.ID.String()),
		slog.String("user_id", userID.String()))
	return item, nil
}

// GetItemForUser retrieves an item scoped to its owner. Items owned by
// other users read as not found.
func (s *ItemService) GetItemForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Item, error) {
	return s.itemStore.GetForUser(ctx, id, userID)
}

// ListItems retrieves all of the user's items, newest first.
func (s *ItemService) ListItems(ctx context.Context, userID uuid.UUID) ([]*domain.Item, error) {
	return s.itemStore.ListByUser(ctx, userID)
}

// DeleteItem removes an item owned by the user along with its tasks.
// Deleting an item whose generation is still pending is allowed; the
// in-flight job observes the missing row and skips.
func (s *ItemService) DeleteItem(ctx context.Context, id, userID uuid.UUID) error {
	return s.itemStore.Delete(ctx, id, userID)
}

// GetItem retrieves an item by ID regardless of owner. Used by the
// generation job, which runs outside any user session.
func (s *ItemService) GetItem(ctx context.Context, itemID uuid.UUID) (*domain.Item, error) {
	return s.itemStore.GetByID(ctx, itemID)
}

// ClaimPendingGeneration refreshes the generation claim on a pending item,
// returning store.ErrItemNotPending if the item has moved on.
func (s *ItemService) ClaimPendingGeneration(ctx context.Context, itemID uuid.UUID) error {
	return s.itemStore.ClaimPendingGeneration(ctx, itemID)
}

// CompleteGeneration inserts the generated task batch and marks the item
// ready in a single transaction. If the item was deleted or resolved while
// the plan was being generated, the conditional ready transition returns
// store.ErrItemNotPending and the whole batch rolls back, so no orphaned
// tasks survive. An empty batch still transitions the item to ready.
func (s *ItemService) CompleteGeneration(
	ctx context.Context,
	itemID uuid.UUID,
	tasks []*domain.Task,
) error {
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if len(tasks) > 0 {
			if err := s.taskStore.WithTx(tx).CreateBatch(ctx, tasks); err != nil {
				return err
			}
		}
		return s.itemStore.WithTx(tx).MarkGenerationReady(ctx, itemID)
	})
}

// FailGeneration marks the item's generation failed with the given message,
// truncated to the stored bound. Conditional on the item still pending.
func (s *ItemService) FailGeneration(ctx context.Context, itemID uuid.UUID, message string) error {
	return s.itemStore.MarkGenerationFailed(ctx, itemID, domain.TruncateGenError(message))
}
