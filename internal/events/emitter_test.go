package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler counts handled events and can be made to fail.
type recordingHandler struct {
	handledCount int
	lastEvent    *GenerationRequestedEvent
	err          error
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *GenerationRequestedEvent) error {
	h.handledCount++
	h.lastEvent = event
	return h.err
}

func TestInMemoryEventEmitter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("emit event with no handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		event, err := NewGenerationRequestedEvent("plan_generation", map[string]string{"item_id": "x"})
		require.NoError(t, err)

		err = emitter.EmitEvent(context.Background(), event)
		assert.NoError(t, err)
	})

	t.Run("every registered handler receives the event", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)

		handler1 := &recordingHandler{}
		handler2 := &recordingHandler{}
		emitter.RegisterHandler(handler1)
		emitter.RegisterHandler(handler2)

		event, err := NewGenerationRequestedEvent("plan_generation", map[string]string{"item_id": "x"})
		require.NoError(t, err)

		err = emitter.EmitEvent(context.Background(), event)
		assert.NoError(t, err)

		assert.Equal(t, 1, handler1.handledCount)
		assert.Equal(t, 1, handler2.handledCount)
		assert.Equal(t, event, handler1.lastEvent)
		assert.Equal(t, event, handler2.lastEvent)
	})

	t.Run("a failing handler does not starve later handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)

		failing := &recordingHandler{err: errors.New("handler error")}
		healthy := &recordingHandler{}
		emitter.RegisterHandler(failing)
		emitter.RegisterHandler(healthy)

		event, err := NewGenerationRequestedEvent("plan_generation", map[string]string{"item_id": "x"})
		require.NoError(t, err)

		err = emitter.EmitEvent(context.Background(), event)
		assert.ErrorContains(t, err, "handler error")
		assert.Equal(t, 1, failing.handledCount)
		assert.Equal(t, 1, healthy.handledCount)
	})
}

func TestGenerationRequestedEventPayload(t *testing.T) {
	event, err := NewGenerationRequestedEvent("plan_generation", map[string]string{
		"item_id": "6a9f0c7e",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "", event.ID.String())
	assert.Equal(t, "plan_generation", event.Type)
	assert.False(t, event.CreatedAt.IsZero())

	var payload struct {
		ItemID string `json:"item_id"`
	}
	require.NoError(t, event.UnmarshalPayload(&payload))
	assert.Equal(t, "6a9f0c7e", payload.ItemID)
}

func TestNewGenerationRequestedEventUnmarshalablePayload(t *testing.T) {
	_, err := NewGenerationRequestedEvent("plan_generation", make(chan int))
	assert.Error(t, err)
}
