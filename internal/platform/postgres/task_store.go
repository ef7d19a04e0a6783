package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/upkeepai/upkeep-api/internal/domain"
	"github.com/upkeepai/upkeep-api/internal/store"
)

// taskColumns is the select list shared by every task query.
const taskColumns = `id, user_id, item_id, task_name, description, priority, frequency,
	frequency_in_weeks, difficulty, duration, duration_minutes, who, steps, tools,
	manufacturer_snippet, manufacturer_source_url, manufacturer_doc_title, created_at`

// taskOrdering matches what pollers receive: most important first, ties
// broken by insertion time.
const taskOrdering = ` ORDER BY priority ASC, created_at ASC`

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// CreateBatch implements store.TaskStore.CreateBatch
func (s *PostgresTaskStore) CreateBatch(ctx context.Context, tasks []*domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	for _, task := range tasks {
		if err := task.Validate(); err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
	}

	query := `
		INSERT INTO tasks (id, user_id, item_id, task_name, description, priority, frequency,
			frequency_in_weeks, difficulty, duration, duration_minutes, who, steps, tools,
			manufacturer_snippet, manufacturer_source_url, manufacturer_doc_title, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return MapError(err)
	}
	defer func() { _ = stmt.Close() }()

	for _, task := range tasks {
		steps, err := json.Marshal(task.Steps)
		if err != nil {
			return fmt.Errorf("failed to marshal task steps: %w", err)
		}
		tools, err := json.Marshal(task.Tools)
		if err != nil {
			return fmt.Errorf("failed to marshal task tools: %w", err)
		}

		_, err = stmt.ExecContext(ctx,
			task.ID,
			task.UserID,
			task.ItemID,
			task.TaskName,
			task.Description,
			task.Priority,
			task.Frequency,
			task.FrequencyInWeeks,
			task.Difficulty,
			task.Duration,
			task.DurationMinutes,
			task.Who,
			steps,
			tools,
			task.ManufacturerSnippet,
			task.ManufacturerSourceURL,
			task.ManufacturerDocTitle,
			task.CreatedAt,
		)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to insert task",
				"task_id", task.ID,
				"item_id", task.ItemID,
				"error", err)
			return MapError(err)
		}
	}

	s.logger.DebugContext(ctx, "task batch inserted", "count", len(tasks))
	return nil
}

// ListByItem implements store.TaskStore.ListByItem
func (s *PostgresTaskStore) ListByItem(ctx context.Context, userID, itemID uuid.UUID) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 AND item_id = $2` + taskOrdering

	return s.queryTasks(ctx, query, userID, itemID)
}

// ListByUser implements store.TaskStore.ListByUser
func (s *PostgresTaskStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1` + taskOrdering

	return s.queryTasks(ctx, query, userID)
}

// CountCreatedBetween implements store.TaskStore.CountCreatedBetween
func (s *PostgresTaskStore) CountCreatedBetween(
	ctx context.Context,
	userID uuid.UUID,
	start, end time.Time,
) (int, error) {
	query := `SELECT COUNT(*) FROM tasks WHERE user_id = $1 AND created_at >= $2 AND created_at < $3`

	var count int
	if err := s.db.QueryRowContext(ctx, query, userID, start, end).Scan(&count); err != nil {
		return 0, MapError(err)
	}

	return count, nil
}

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// queryTasks runs a task select and scans the result set.
func (s *PostgresTaskStore) queryTasks(ctx context.Context, query string, args ...any) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, MapError(err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return tasks, nil
}

// scanTask maps one tasks row onto a domain.Task.
func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var steps, tools []byte
	var snippet, sourceURL, docTitle sql.NullString

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.ItemID,
		&task.TaskName,
		&task.Description,
		&task.Priority,
		&task.Frequency,
		&task.FrequencyInWeeks,
		&task.Difficulty,
		&task.Duration,
		&task.DurationMinutes,
		&task.Who,
		&steps,
		&tools,
		&snippet,
		&sourceURL,
		&docTitle,
		&task.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(steps, &task.Steps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task steps: %w", err)
	}
	if err := json.Unmarshal(tools, &task.Tools); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task tools: %w", err)
	}

	if snippet.Valid {
		v := snippet.String
		task.ManufacturerSnippet = &v
	}
	if sourceURL.Valid {
		v := sourceURL.String
		task.ManufacturerSourceURL = &v
	}
	if docTitle.Valid {
		v := docTitle.String
		task.ManufacturerDocTitle = &v
	}

	return &task, nil
}
