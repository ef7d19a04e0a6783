package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/upkeepai/upkeep-api/internal/events"
)

// JobSubmitter accepts jobs for background execution. *JobRunner satisfies it.
type JobSubmitter interface {
	Submit(ctx context.Context, job Job) error
}

// GenerationEventHandler implements events.EventHandler: it turns
// plan-generation request events into jobs and submits them to the runner.
// It is the only bridge between the service layer (which emits events) and
// the runner (which executes jobs).
type GenerationEventHandler struct {
	factory JobFactory
	runner  JobSubmitter
	logger  *slog.Logger
}

// NewGenerationEventHandler creates an event handler that builds jobs with
// the given factory and submits them to the given runner.
func NewGenerationEventHandler(
	factory JobFactory,
	runner JobSubmitter,
	logger *slog.Logger,
) *GenerationEventHandler {
	return &GenerationEventHandler{
		factory: factory,
		runner:  runner,
		logger:  logger.With("component", "generation_event_handler"),
	}
}

// HandleEvent processes plan-generation request events. Events of any other
// type are ignored.
func (h *GenerationEventHandler) HandleEvent(
	ctx context.Context,
	event *events.GenerationRequestedEvent,
) error {
	if event.Type != JobTypePlanGeneration {
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	var payload planGenerationPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	job, err := h.factory.CreateJob(payload.ItemID, payload.TzOffsetMinutes)
	if err != nil {
		h.logger.Error("failed to create job",
			"error", err,
			"item_id", payload.ItemID,
			"event_id", event.ID)
		return fmt.Errorf("failed to create job: %w", err)
	}

	if err := h.runner.Submit(ctx, job); err != nil {
		h.logger.Error("failed to submit job",
			"error", err,
			"job_id", job.ID(),
			"item_id", payload.ItemID,
			"event_id", event.ID)
		return fmt.Errorf("failed to submit job: %w", err)
	}

	h.logger.Info("job created and submitted",
		"job_id", job.ID(),
		"item_id", payload.ItemID,
		"event_id", event.ID)
	return nil
}

// NewPlanGenerationEvent builds the event a service emits to request plan
// generation for an item.
func NewPlanGenerationEvent(itemID uuid.UUID, tzOffsetMinutes int) (*events.GenerationRequestedEvent, error) {
	return events.NewGenerationRequestedEvent(JobTypePlanGeneration, planGenerationPayload{
		ItemID:          itemID,
		TzOffsetMinutes: tzOffsetMinutes,
	})
}

// Ensure GenerationEventHandler implements events.EventHandler
var _ events.EventHandler = (*GenerationEventHandler)(nil)
