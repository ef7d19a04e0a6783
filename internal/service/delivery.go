package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/upkeepai/upkeep-api/internal/config"
	"github.com/upkeepai/upkeep-api/internal/domain"
	"github.com/upkeepai/upkeep-api/internal/platform/logger"
	"github.com/upkeepai/upkeep-api/internal/store"
)

// DeliveryStatus describes the outcome of a task delivery request.
type DeliveryStatus string

const (
	// DeliveryFound means the item's plan is available and Tasks is populated.
	DeliveryFound DeliveryStatus = "found"
	// DeliveryPending means generation is still running; the caller should
	// poll again.
	DeliveryPending DeliveryStatus = "pending"
	// DeliveryFailed means generation failed; Message carries the stored
	// failure reason.
	DeliveryFailed DeliveryStatus = "failed"
	// DeliveryNotFound means the item does not exist or belongs to another
	// user.
	DeliveryNotFound DeliveryStatus = "not_found"
)

// DeliveryResult is the outcome of a single delivery request.
type DeliveryResult struct {
	Status  DeliveryStatus
	Tasks   []*domain.Task
	Message string
}

// TaskDeliveryService is the read-side gateway for generated plans. It
// answers immediately once the item has tasks or a recorded failure and can
// long-poll otherwise, re-reading the item and its tasks until one of those
// appears or the poll ceiling passes.
type TaskDeliveryService struct {
	itemStore    store.ItemStore
	taskStore    store.TaskStore
	pollCeiling  time.Duration
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewTaskDeliveryService creates a TaskDeliveryService using the poll bounds
// from the generation config.
func NewTaskDeliveryService(
	itemStore store.ItemStore,
	taskStore store.TaskStore,
	cfg config.GenerationConfig,
	logger *slog.Logger,
) (*TaskDeliveryService, error) {
	if itemStore == nil {
		return nil, ErrNilItemStore
	}
	if taskStore == nil {
		return nil, ErrNilTaskStore
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if cfg.PollCeilingSeconds <= 0 || cfg.PollIntervalMillis <= 0 {
		return nil, errors.New("poll ceiling and interval must be positive")
	}
	return &TaskDeliveryService{
		itemStore:    itemStore,
		taskStore:    taskStore,
		pollCeiling:  time.Duration(cfg.PollCeilingSeconds) * time.Second,
		pollInterval: time.Duration(cfg.PollIntervalMillis) * time.Millisecond,
		logger:       logger.With(slog.String("component", "task_delivery")),
	}, nil
}

// AwaitTasks resolves the tasks for one of the user's items. Task presence
// decides delivery: any stored tasks are returned immediately, a failed
// generation reports the stored message, and everything else is pending —
// including an item whose plan came back empty, which the client treats the
// same as one still generating. With wait set, a pending item is re-read
// every poll interval until it resolves or the ceiling passes; a pending
// result after the ceiling is not an error, the client simply polls again.
func (s *TaskDeliveryService) AwaitTasks(
	ctx context.Context,
	userID, itemID uuid.UUID,
	wait bool,
) (*DeliveryResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	deadline := time.Now().Add(s.pollCeiling)

	for {
		item, err := s.itemStore.GetForUser(ctx, itemID, userID)
		if err != nil {
			if errors.Is(err, store.ErrItemNotFound) {
				return &DeliveryResult{Status: DeliveryNotFound}, nil
			}
			return nil, NewServiceError("await_tasks", "failed to read item", err)
		}

		tasks, err := s.taskStore.ListByItem(ctx, userID, itemID)
		if err != nil {
			return nil, NewServiceError("await_tasks", "failed to list tasks", err)
		}
		if len(tasks) > 0 {
			return &DeliveryResult{Status: DeliveryFound, Tasks: tasks}, nil
		}

		if item.GenStatus == domain.GenStatusFailed {
			msg := ""
			if item.GenError != nil {
				msg = *item.GenError
			}
			return &DeliveryResult{Status: DeliveryFailed, Message: msg}, nil
		}

		if !wait || !time.Now().Add(s.pollInterval).Before(deadline) {
			log.Debug("generation still pending",
				slog.String("item_id", itemID.String()),
				slog.Bool("waited", wait))
			return &DeliveryResult{Status: DeliveryPending}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
}

// ListUserTasks retrieves every task the user owns across all items,
// ordered by priority then creation time.
func (s *TaskDeliveryService) ListUserTasks(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	return s.taskStore.ListByUser(ctx, userID)
}

// ItemWithTasks pairs an item with its generated tasks.
type ItemWithTasks struct {
	Item  *domain.Item
	Tasks []*domain.Task
}

// ItemsWithTasks retrieves all of the user's items with their tasks grouped
// per item. Items keep the newest-first list order; tasks keep the store's
// priority ordering. Items whose plan has not arrived yet appear with an
// empty task list.
func (s *TaskDeliveryService) ItemsWithTasks(ctx context.Context, userID uuid.UUID) ([]ItemWithTasks, error) {
	items, err := s.itemStore.ListByUser(ctx, userID)
	if err != nil {
		return nil, NewServiceError("items_with_tasks", "failed to list items", err)
	}
	tasks, err := s.taskStore.ListByUser(ctx, userID)
	if err != nil {
		return nil, NewServiceError("items_with_tasks", "failed to list tasks", err)
	}

	byItem := make(map[uuid.UUID][]*domain.Task, len(items))
	for _, task := range tasks {
		byItem[task.ItemID] = append(byItem[task.ItemID], task)
	}

	result := make([]ItemWithTasks, 0, len(items))
	for _, item := range items {
		itemTasks := byItem[item.ID]
		if itemTasks == nil {
			itemTasks = []*domain.Task{}
		}
		result = append(result, ItemWithTasks{Item: item, Tasks: itemTasks})
	}
	return result, nil
}
