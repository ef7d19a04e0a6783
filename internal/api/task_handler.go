package api

import (
	"log/slog"
	"net/http"

	"github.com/upkeepai/upkeep-api/internal/api/shared"
	"github.com/upkeepai/upkeep-api/internal/platform/logger"
	"github.com/upkeepai/upkeep-api/internal/service"
)

// TaskHandler serves generated maintenance plans.
type TaskHandler struct {
	delivery *service.TaskDeliveryService
	logger   *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(delivery *service.TaskDeliveryService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}
	return &TaskHandler{
		delivery: delivery,
		logger:   logger.With(slog.String("component", "task_handler")),
	}
}

// GetItemTasks handles GET /api/tasks/item/{itemID}. With ?wait=1 the
// request long-polls while generation is pending, up to the configured
// ceiling. Responses:
//
//	200 {tasks}        stored tasks exist for the item
//	202 {pending:true} no tasks yet (still generating or empty plan), poll again
//	404                item missing or owned by someone else
//	409 {error}        generation failed; body carries the stored reason
func (h *TaskHandler) GetItemTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireAuth(w, r)
	if !ok {
		return
	}
	itemID, ok := getPathUUID(r, "itemID")
	if !ok {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid item ID")
		return
	}

	wait := r.URL.Query().Get("wait") == "1"

	result, err := h.delivery.AwaitTasks(r.Context(), userID, itemID, wait)
	if err != nil {
		if r.Context().Err() != nil {
			// Client went away mid-poll; nothing useful to write.
			return
		}
		HandleAPIError(w, r, err, "Failed to retrieve tasks")
		return
	}

	switch result.Status {
	case service.DeliveryFound:
		shared.RespondWithJSON(w, r, http.StatusOK, ItemTasksResponse{Tasks: tasksToResponse(result.Tasks)})

	case service.DeliveryPending:
		shared.RespondWithJSON(w, r, http.StatusAccepted, PendingResponse{Pending: true})

	case service.DeliveryFailed:
		message := result.Message
		if message == "" {
			message = "Plan generation failed"
		}
		shared.RespondWithError(w, r, http.StatusConflict, message)

	case service.DeliveryNotFound:
		shared.RespondWithError(w, r, http.StatusNotFound, "Item not found")

	default:
		log.Error("unknown delivery status", slog.String("status", string(result.Status)))
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to retrieve tasks")
	}
}

// ListTasks handles GET /api/tasks, returning every task the user owns.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireAuth(w, r)
	if !ok {
		return
	}

	tasks, err := h.delivery.ListUserTasks(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ItemTasksResponse{Tasks: tasksToResponse(tasks)})
}
