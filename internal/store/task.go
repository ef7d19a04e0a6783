package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/upkeepai/upkeep-api/internal/domain"
)

// TaskStore defines the interface for maintenance task persistence.
type TaskStore interface {
	// CreateBatch saves a batch of tasks as one unit of work.
	// IMPORTANT: run this within a transaction (WithTx + RunInTransaction)
	// so a generated plan is never partially written. The generation job
	// pairs the batch insert with the item's ready transition in the same
	// transaction.
	CreateBatch(ctx context.Context, tasks []*domain.Task) error

	// ListByItem retrieves the tasks of one item scoped to its owner,
	// ordered by priority ascending then created_at ascending.
	// Returns an empty slice if the item has no tasks.
	ListByItem(ctx context.Context, userID, itemID uuid.UUID) ([]*domain.Task, error)

	// ListByUser retrieves every task owned by the user with the same
	// ordering as ListByItem.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// CountCreatedBetween counts the user's tasks with created_at in
	// [start, end). The quota tracker derives the daily window and calls
	// this on every check; nothing about the window is persisted.
	CountCreatedBetween(ctx context.Context, userID uuid.UUID, start, end time.Time) (int, error)

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	// The transaction should be created and managed by the caller.
	WithTx(tx *sql.Tx) TaskStore
}
