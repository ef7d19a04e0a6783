package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/upkeepai/upkeep-api/internal/domain"
)

// ItemStore defines the interface for item data persistence, including the
// conditional generation-status transitions the background job relies on.
type ItemStore interface {
	// Create saves a new item to the store.
	// Returns validation errors from the domain Item if data is invalid.
	Create(ctx context.Context, item *domain.Item) error

	// GetByID retrieves an item by its unique ID.
	// Returns ErrItemNotFound if the item does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Item, error)

	// GetForUser retrieves an item by ID scoped to its owner.
	// Returns ErrItemNotFound if the item does not exist or belongs to
	// another user; callers cannot distinguish the two cases.
	GetForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Item, error)

	// ListByUser retrieves all items owned by the user, newest first.
	// Returns an empty slice if the user has no items.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Item, error)

	// ClaimPendingGeneration atomically refreshes the generation claim on an
	// item that is still pending. The update only succeeds if gen_status is
	// 'pending'; otherwise ErrItemNotPending is returned and the caller must
	// skip the job. This is the store-side claim that bounds the duplicate
	// job race without a separate lock.
	ClaimPendingGeneration(ctx context.Context, id uuid.UUID) error

	// MarkGenerationReady transitions a pending item to ready, clearing any
	// stale error and stamping gen_updated_at. The write is conditional on
	// gen_status still being 'pending'; ErrItemNotPending is returned if the
	// item was deleted or already resolved.
	MarkGenerationReady(ctx context.Context, id uuid.UUID) error

	// MarkGenerationFailed transitions a pending item to failed, storing the
	// message (already truncated by the caller). Conditional on 'pending'
	// like MarkGenerationReady.
	MarkGenerationFailed(ctx context.Context, id uuid.UUID, message string) error

	// FindStalePending retrieves items whose generation has been pending
	// longer than olderThan (measured against gen_updated_at, which the
	// claim refreshes). Used by the recovery sweep. A zero olderThan returns
	// every pending item.
	FindStalePending(ctx context.Context, olderThan time.Duration) ([]*domain.Item, error)

	// Delete removes an item owned by the user. Task rows are removed by the
	// schema's ON DELETE CASCADE. Returns ErrItemNotFound if no matching
	// row exists.
	Delete(ctx context.Context, id, userID uuid.UUID) error

	// WithTx returns a new ItemStore instance that uses the provided transaction.
	// The transaction should be created and managed by the caller.
	WithTx(tx *sql.Tx) ItemStore
}
