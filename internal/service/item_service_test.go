package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upkeepai/upkeep-api/internal/domain"
	"github.com/upkeepai/upkeep-api/internal/events"
	"github.com/upkeepai/upkeep-api/internal/task"
)

func newTestItemService(
	t *testing.T,
	itemStore *fakeItemStore,
	taskStore *fakeTaskStore,
	emitter *fakeEmitter,
) *ItemService {
	t.Helper()
	svc, err := NewItemService(new(sql.DB), itemStore, taskStore, emitter, testLogger())
	require.NoError(t, err)
	return svc
}

func TestCreateItemPersistsAndEmitsEvent(t *testing.T) {
	itemStore := &fakeItemStore{}
	emitter := &fakeEmitter{}
	svc := newTestItemService(t, itemStore, &fakeTaskStore{}, emitter)

	userID := uuid.New()
	item, err := svc.CreateItem(context.Background(), userID, "Water Heater", "Rheem XE40", 300)
	require.NoError(t, err)
	require.NotNil(t, item)

	assert.Equal(t, userID, item.UserID)
	assert.Equal(t, domain.GenStatusPending, item.GenStatus)
	require.Len(t, itemStore.created, 1)
	require.Len(t, emitter.emitted, 1)

	event := emitter.emitted[0]
	assert.Equal(t, task.JobTypePlanGeneration, event.Type)

	var payload struct {
		ItemID          uuid.UUID `json:"item_id"`
		TzOffsetMinutes int       `json:"tz_offset_minutes"`
	}
	require.NoError(t, event.UnmarshalPayload(&payload))
	assert.Equal(t, item.ID, payload.ItemID)
	assert.Equal(t, 300, payload.TzOffsetMinutes)
}

func TestCreateItemInvalidName(t *testing.T) {
	svc := newTestItemService(t, &fakeItemStore{}, &fakeTaskStore{}, &fakeEmitter{})

	_, err := svc.CreateItem(context.Background(), uuid.New(), "   ", "", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyItemName)
}

func TestCreateItemStoreFailure(t *testing.T) {
	storeErr := errors.New("insert failed")
	itemStore := &fakeItemStore{
		createFn: func(context.Context, *domain.Item) error { return storeErr },
	}
	emitter := &fakeEmitter{}
	svc := newTestItemService(t, itemStore, &fakeTaskStore{}, emitter)

	_, err := svc.CreateItem(context.Background(), uuid.New(), "Furnace", "", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
	assert.Empty(t, emitter.emitted, "no event should be emitted when the item was not saved")
}

func TestCreateItemSurvivesEmitFailure(t *testing.T) {
	// The item stays pending when the event cannot be emitted; the stale
	// pending sweep picks it up later.
	itemStore := &fakeItemStore{}
	emitter := &fakeEmitter{
		emitFn: func(context.Context, *events.GenerationRequestedEvent) error {
			return errors.New("queue unavailable")
		},
	}
	svc := newTestItemService(t, itemStore, &fakeTaskStore{}, emitter)

	item, err := svc.CreateItem(context.Background(), uuid.New(), "Furnace", "", 0)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, domain.GenStatusPending, item.GenStatus)
}

func TestFailGenerationTruncatesMessage(t *testing.T) {
	itemStore := &fakeItemStore{}
	svc := newTestItemService(t, itemStore, &fakeTaskStore{}, &fakeEmitter{})

	long := strings.Repeat("x", domain.MaxGenErrorLength+200)
	require.NoError(t, svc.FailGeneration(context.Background(), uuid.New(), long))
	assert.Len(t, itemStore.failedMessage, domain.MaxGenErrorLength)
}

func TestNewItemServiceValidation(t *testing.T) {
	itemStore := &fakeItemStore{}
	taskStore := &fakeTaskStore{}
	emitter := &fakeEmitter{}
	log := testLogger()

	_, err := NewItemService(nil, itemStore, taskStore, emitter, log)
	assert.ErrorIs(t, err, ErrNilDB)

	_, err = NewItemService(new(sql.DB), nil, taskStore, emitter, log)
	assert.ErrorIs(t, err, ErrNilItemStore)

	_, err = NewItemService(new(sql.DB), itemStore, nil, emitter, log)
	assert.ErrorIs(t, err, ErrNilTaskStore)

	_, err = NewItemService(new(sql.DB), itemStore, taskStore, nil, log)
	assert.ErrorIs(t, err, ErrNilEmitter)

	_, err = NewItemService(new(sql.DB), itemStore, taskStore, emitter, nil)
	assert.ErrorIs(t, err, ErrNilLogger)
}
