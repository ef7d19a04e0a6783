package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/upkeepai/upkeep-api/internal/domain"
	"github.com/upkeepai/upkeep-api/internal/store"
)

// itemColumns is the select list shared by every item query.
const itemColumns = `id, user_id, name, model, gen_status, gen_updated_at, gen_error, created_at, updated_at`

// PostgresItemStore implements the store.ItemStore interface
// using a PostgreSQL database as the storage backend.
type PostgresItemStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresItemStore creates a new PostgreSQL implementation of the
// ItemStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller.
func NewPostgresItemStore(db store.DBTX, logger *slog.Logger) *PostgresItemStore {
	return &PostgresItemStore{
		db:     db,
		logger: logger.With(slog.String("component", "item_store")),
	}
}

// Ensure PostgresItemStore implements store.ItemStore
var _ store.ItemStore = (*PostgresItemStore)(nil)

// Create implements store.ItemStore.Create
func (s *PostgresItemStore) Create(ctx context.Context, item *domain.Item) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO items (id, user_id, name, model, gen_status, gen_updated_at, gen_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.ExecContext(ctx, query,
		item.ID,
		item.UserID,
		item.Name,
		item.Model,
		item.GenStatus,
		item.GenUpdatedAt,
		item.GenError,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create item",
			"item_id", item.ID,
			"error", err)
		return MapError(err)
	}

	return nil
}

// GetByID implements store.ItemStore.GetByID
func (s *PostgresItemStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	item, err := scanItem(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrItemNotFound
		}
		return nil, MapError(err)
	}

	return item, nil
}

// GetForUser implements store.ItemStore.GetForUser
func (s *PostgresItemStore) GetForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1 AND user_id = $2`

	item, err := scanItem(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// An item owned by someone else reads the same as a missing one.
			return nil, store.ErrItemNotFound
		}
		return nil, MapError(err)
	}

	return item, nil
}

// ListByUser implements store.ItemStore.ListByUser
func (s *PostgresItemStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	items := []*domain.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, MapError(err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return items, nil
}

// ClaimPendingGeneration implements store.ItemStore.ClaimPendingGeneration.
// The condition on gen_status makes the claim atomic: a job whose item was
// deleted or already resolved sees zero rows affected and skips.
func (s *PostgresItemStore) ClaimPendingGeneration(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE items
		SET gen_updated_at = $1, updated_at = $1
		WHERE id = $2 AND gen_status = $3
	`

	return s.conditionalTransition(ctx, query, time.Now().UTC(), id, domain.GenStatusPending)
}

// MarkGenerationReady implements store.ItemStore.MarkGenerationReady
func (s *PostgresItemStore) MarkGenerationReady(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE items
		SET gen_status = $1, gen_error = NULL, gen_updated_at = $2, updated_at = $2
		WHERE id = $3 AND gen_status = $4
	`

	return s.conditionalTransition(ctx, query,
		domain.GenStatusReady, time.Now().UTC(), id, domain.GenStatusPending)
}

// MarkGenerationFailed implements store.ItemStore.MarkGenerationFailed
func (s *PostgresItemStore) MarkGenerationFailed(ctx context.Context, id uuid.UUID, message string) error {
	query := `
		UPDATE items
		SET gen_status = $1, gen_error = $2, gen_updated_at = $3, updated_at = $3
		WHERE id = $4 AND gen_status = $5
	`

	return s.conditionalTransition(ctx, query,
		domain.GenStatusFailed, domain.TruncateGenError(message), time.Now().UTC(), id, domain.GenStatusPending)
}

// conditionalTransition executes a status-guarded update and converts "no
// rows affected" into ErrItemNotPending.
func (s *PostgresItemStore) conditionalTransition(ctx context.Context, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return store.ErrItemNotPending
	}

	return nil
}

// FindStalePending implements store.ItemStore.FindStalePending
func (s *PostgresItemStore) FindStalePending(ctx context.Context, olderThan time.Duration) ([]*domain.Item, error) {
	var query string
	var args []any

	if olderThan > 0 {
		query = `SELECT ` + itemColumns + `
			FROM items
			WHERE gen_status = $1 AND gen_updated_at < $2
			ORDER BY gen_updated_at ASC`
		args = []any{domain.GenStatusPending, time.Now().UTC().Add(-olderThan)}
	} else {
		query = `SELECT ` + itemColumns + `
			FROM items
			WHERE gen_status = $1
			ORDER BY gen_updated_at ASC`
		args = []any{domain.GenStatusPending}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	items := []*domain.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, MapError(err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return items, nil
}

// Delete implements store.ItemStore.Delete. Task rows go with the item via
// the schema's ON DELETE CASCADE.
func (s *PostgresItemStore) Delete(ctx context.Context, id, userID uuid.UUID) error {
	query := `DELETE FROM items WHERE id = $1 AND user_id = $2`

	result, err := s.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return store.ErrItemNotFound
	}

	s.logger.DebugContext(ctx, "item deleted", "item_id", id)
	return nil
}

// WithTx implements store.ItemStore.WithTx
func (s *PostgresItemStore) WithTx(tx *sql.Tx) store.ItemStore {
	return &PostgresItemStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanItem.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanItem maps one items row onto a domain.Item.
func scanItem(row rowScanner) (*domain.Item, error) {
	var item domain.Item
	var genUpdatedAt sql.NullTime
	var genError sql.NullString

	err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.Name,
		&item.Model,
		&item.GenStatus,
		&genUpdatedAt,
		&genError,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if genUpdatedAt.Valid {
		t := genUpdatedAt.Time
		item.GenUpdatedAt = &t
	}
	if genError.Valid {
		msg := genError.String
		item.GenError = &msg
	}

	return &item, nil
}
