package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/upkeepai/upkeep-api/internal/store"
)

// maxTzOffsetMinutes bounds caller-supplied UTC offsets. Real time zones
// span UTC-12 to UTC+14; the symmetric 14h bound accepts all of them.
const maxTzOffsetMinutes = 14 * 60

// ErrNilQuotaTaskStore is returned when NewQuotaTracker receives a nil store.
var ErrNilQuotaTaskStore = errors.New("quota task store cannot be nil")

// QuotaTracker computes a user's remaining daily generation allowance by
// counting the tasks created during the user's current local calendar day.
// Nothing about the window is persisted: the count is derived on every check,
// so the allowance resets at the user's local midnight without any reset job.
type QuotaTracker struct {
	taskStore  store.TaskStore
	dailyLimit int
	logger     *slog.Logger
	timeFunc   func() time.Time // injectable for testing
}

// NewQuotaTracker creates a QuotaTracker enforcing the given daily task limit.
func NewQuotaTracker(
	taskStore store.TaskStore,
	dailyLimit int,
	logger *slog.Logger,
) (*QuotaTracker, error) {
	if taskStore == nil {
		return nil, ErrNilQuotaTaskStore
	}
	if dailyLimit <= 0 {
		return nil, errors.New("daily task limit must be positive")
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	return &QuotaTracker{
		taskStore:  taskStore,
		dailyLimit: dailyLimit,
		logger:     logger.With(slog.String("component", "quota_tracker")),
		timeFunc:   time.Now,
	}, nil
}

// RemainingQuota returns the user's remaining allowance and the configured
// daily limit for the local day described by tzOffsetMinutes. The offset
// follows the minutes-west-of-UTC convention (UTC = local + offset), which
// is what browsers report; offsets outside the range of real time zones
// fall back to UTC rather than failing the generation.
func (q *QuotaTracker) RemainingQuota(
	ctx context.Context,
	userID uuid.UUID,
	tzOffsetMinutes int,
) (remaining, limit int, err error) {
	if tzOffsetMinutes < -maxTzOffsetMinutes || tzOffsetMinutes > maxTzOffsetMinutes {
		q.logger.Warn("timezone offset out of range, using UTC",
			slog.Int("tz_offset_minutes", tzOffsetMinutes),
			slog.String("user_id", userID.String()))
		tzOffsetMinutes = 0
	}

	start, end := localDayWindow(q.timeFunc(), tzOffsetMinutes)

	count, err := q.taskStore.CountCreatedBetween(ctx, userID, start, end)
	if err != nil {
		return 0, 0, NewServiceError("remaining_quota", "failed to count tasks for quota window", err)
	}

	remaining = q.dailyLimit - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, q.dailyLimit, nil
}

// localDayWindow returns the UTC instants bounding the caller's current
// local calendar day. The window is a fixed 24 hours; a DST transition on
// the local day shifts the boundary by the changed hour, which is accepted
// rather than tracking full zone rules for every client.
func localDayWindow(now time.Time, tzOffsetMinutes int) (start, end time.Time) {
	offset := time.Duration(tzOffsetMinutes) * time.Minute

	local := now.UTC().Add(-offset)
	localMidnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

	start = localMidnight.Add(offset)
	return start, start.Add(24 * time.Hour)
}
