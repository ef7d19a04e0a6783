package api

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/upkeepai/upkeep-api/internal/api/shared"
	"github.com/upkeepai/upkeep-api/internal/platform/logger"
	"github.com/upkeepai/upkeep-api/internal/service"
)

// ItemHandler handles item-related HTTP requests.
type ItemHandler struct {
	itemService *service.ItemService
	delivery    *service.TaskDeliveryService
	validator   *validator.Validate
	logger      *slog.Logger
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(
	itemService *service.ItemService,
	delivery *service.TaskDeliveryService,
	logger *slog.Logger,
) *ItemHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ItemHandler")
	}
	return &ItemHandler{
		itemService: itemService,
		delivery:    delivery,
		validator:   validator.New(),
		logger:      logger.With(slog.String("component", "item_handler")),
	}
}

// CreateItem handles POST /api/items. The item is returned immediately with
// generation pending; the plan arrives asynchronously and is fetched through
// the task delivery endpoint.
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireAuth(w, r)
	if !ok {
		return
	}

	var req CreateItemRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	item, err := h.itemService.CreateItem(r.Context(), userID, req.Name, req.Model, getTzOffset(r))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create item")
		return
	}

	log.Debug("item created",
		slog.String("item_id", item.ID.String()),
		slog.String("user_id", userID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, itemToResponse(item))
}

// ListItems handles GET /api/items.
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireAuth(w, r)
	if !ok {
		return
	}

	items, err := h.itemService.ListItems(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list items")
		return
	}

	out := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, itemToResponse(item))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// ListItemsWithTasks handles GET /api/items/items-and-tasks, returning
// every item with its tasks grouped.
func (h *ItemHandler) ListItemsWithTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireAuth(w, r)
	if !ok {
		return
	}

	grouped, err := h.delivery.ItemsWithTasks(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list items and tasks")
		return
	}

	out := make([]ItemWithTasksResponse, 0, len(grouped))
	for _, entry := range grouped {
		out = append(out, ItemWithTasksResponse{
			Item:  itemToResponse(entry.Item),
			Tasks: tasksToResponse(entry.Tasks),
		})
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// DeleteItem handles DELETE /api/items/{id}. Deleting an item whose plan is
// still generating is allowed; the background job notices and skips.
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireAuth(w, r)
	if !ok {
		return
	}
	itemID, ok := getPathUUID(r, "id")
	if !ok {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid item ID")
		return
	}

	if err := h.itemService.DeleteItem(r.Context(), itemID, userID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete item")
		return
	}

	log.Debug("item deleted",
		slog.String("item_id", itemID.String()),
		slog.String("user_id", userID.String()))
	w.WriteHeader(http.StatusNoContent)
}
