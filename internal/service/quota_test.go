package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQuotaTracker(t *testing.T, taskStore *fakeTaskStore, limit int, now time.Time) *QuotaTracker {
	t.Helper()
	tracker, err := NewQuotaTracker(taskStore, limit, testLogger())
	require.NoError(t, err)
	tracker.timeFunc = func() time.Time { return now }
	return tracker
}

func TestRemainingQuotaWindowFollowsLocalMidnight(t *testing.T) {
	// 03:00 UTC with a UTC-5 offset (300 minutes west) is still the
	// previous local day, so the window starts at 05:00 UTC the day before.
	now := time.Date(2025, 3, 10, 3, 0, 0, 0, time.UTC)
	taskStore := &fakeTaskStore{}
	tracker := newTestQuotaTracker(t, taskStore, 100, now)

	remaining, limit, err := tracker.RemainingQuota(context.Background(), uuid.New(), 300)
	require.NoError(t, err)

	assert.Equal(t, 100, remaining)
	assert.Equal(t, 100, limit)
	assert.Equal(t, time.Date(2025, 3, 9, 5, 0, 0, 0, time.UTC), taskStore.lastStart)
	assert.Equal(t, time.Date(2025, 3, 10, 5, 0, 0, 0, time.UTC), taskStore.lastEnd)
}

func TestRemainingQuotaEastOfUTC(t *testing.T) {
	// 23:00 UTC with a UTC+2 offset (-120 minutes) is already the next
	// local day.
	now := time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC)
	taskStore := &fakeTaskStore{}
	tracker := newTestQuotaTracker(t, taskStore, 100, now)

	_, _, err := tracker.RemainingQuota(context.Background(), uuid.New(), -120)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC), taskStore.lastStart)
	assert.Equal(t, time.Date(2025, 3, 11, 22, 0, 0, 0, time.UTC), taskStore.lastEnd)
}

func TestRemainingQuotaSubtractsExistingTasks(t *testing.T) {
	taskStore := &fakeTaskStore{
		countFn: func(context.Context, uuid.UUID, time.Time, time.Time) (int, error) {
			return 97, nil
		},
	}
	tracker := newTestQuotaTracker(t, taskStore, 100, time.Now())

	remaining, limit, err := tracker.RemainingQuota(context.Background(), uuid.New(), 0)
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)
	assert.Equal(t, 100, limit)
}

func TestRemainingQuotaNeverNegative(t *testing.T) {
	taskStore := &fakeTaskStore{
		countFn: func(context.Context, uuid.UUID, time.Time, time.Time) (int, error) {
			return 150, nil
		},
	}
	tracker := newTestQuotaTracker(t, taskStore, 100, time.Now())

	remaining, _, err := tracker.RemainingQuota(context.Background(), uuid.New(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestRemainingQuotaOutOfRangeOffsetFallsBackToUTC(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	taskStore := &fakeTaskStore{}
	tracker := newTestQuotaTracker(t, taskStore, 100, now)

	_, _, err := tracker.RemainingQuota(context.Background(), uuid.New(), 100000)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), taskStore.lastStart)
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), taskStore.lastEnd)
}

func TestRemainingQuotaStoreError(t *testing.T) {
	storeErr := errors.New("connection refused")
	taskStore := &fakeTaskStore{
		countFn: func(context.Context, uuid.UUID, time.Time, time.Time) (int, error) {
			return 0, storeErr
		},
	}
	tracker := newTestQuotaTracker(t, taskStore, 100, time.Now())

	_, _, err := tracker.RemainingQuota(context.Background(), uuid.New(), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)

	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "remaining_quota", svcErr.Operation)
}

func TestNewQuotaTrackerValidation(t *testing.T) {
	_, err := NewQuotaTracker(nil, 100, testLogger())
	assert.ErrorIs(t, err, ErrNilQuotaTaskStore)

	_, err = NewQuotaTracker(&fakeTaskStore{}, 0, testLogger())
	assert.Error(t, err)

	_, err = NewQuotaTracker(&fakeTaskStore{}, 100, nil)
	assert.ErrorIs(t, err, ErrNilLogger)
}
