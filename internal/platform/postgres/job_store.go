package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/upkeepai/upkeep-api/internal/platform/logger"
	"github.com/upkeepai/upkeep-api/internal/store"
	"github.com/upkeepai/upkeep-api/internal/task"
)

// PostgresJobStore implements the task.JobStore interface using PostgreSQL.
// Job records are an execution ledger; recovery derives outstanding work
// from pending items, not from this table.
type PostgresJobStore struct {
	db store.DBTX
}

// NewPostgresJobStore creates a new PostgresJobStore.
func NewPostgresJobStore(db store.DBTX) *PostgresJobStore {
	return &PostgresJobStore{
		db: db,
	}
}

// Ensure PostgresJobStore implements task.JobStore
var _ task.JobStore = (*PostgresJobStore)(nil)

// SaveJob implements task.JobStore.SaveJob
func (s *PostgresJobStore) SaveJob(ctx context.Context, job task.Job) error {
	log := logger.FromContext(ctx)

	query := `
		INSERT INTO jobs (id, type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, query,
		job.ID(),
		job.Type(),
		job.Payload(),
		job.Status(),
		now,
		now,
	)
	if err != nil {
		log.Error("failed to save job",
			"job_id", job.ID(),
			"job_type", job.Type(),
			"error", err)
		return fmt.Errorf("failed to save job to database: %w", err)
	}

	return nil
}

// UpdateJobStatus implements task.JobStore.UpdateJobStatus
func (s *PostgresJobStore) UpdateJobStatus(
	ctx context.Context,
	jobID uuid.UUID,
	status task.JobStatus,
	errorMsg string,
) error {
	log := logger.FromContext(ctx)

	query := `
		UPDATE jobs
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query,
		status,
		errorMsg,
		time.Now().UTC(),
		jobID,
	)
	if err != nil {
		log.Error("failed to update job status",
			"job_id", jobID,
			"status", status,
			"error", err)
		return fmt.Errorf("failed to update job status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Missing ledger rows are not worth failing a job over.
		log.Warn("no job found with ID to update status", "job_id", jobID)
		return nil
	}

	return nil
}

// CountActive implements task.JobStore.CountActive
func (s *PostgresJobStore) CountActive(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM jobs WHERE status = $1 OR status = $2`

	var count int
	err := s.db.QueryRowContext(ctx, query, task.JobStatusPending, task.JobStatusProcessing).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active jobs: %w", err)
	}

	return count, nil
}

// WithTx implements task.JobStore.WithTx
func (s *PostgresJobStore) WithTx(tx *sql.Tx) task.JobStore {
	return &PostgresJobStore{
		db: tx,
	}
}
