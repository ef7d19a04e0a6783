package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/upkeepai/upkeep-api/internal/domain"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    string    `json:"expires_at,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token refresh
// endpoint. Both tokens are rotated.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}

// SignoutResponse acknowledges a signout. Tokens are discarded client-side.
type SignoutResponse struct {
	Message string `json:"message"`
}

// CreateItemRequest defines the payload for item registration. The client's
// UTC offset rides in the X-TZ-Offset header, not the body.
type CreateItemRequest struct {
	Name  string `json:"name"  validate:"required,min=1,max=200"`
	Model string `json:"model" validate:"max=200"`
}

// ItemResponse represents an item in API responses.
type ItemResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Model     string    `json:"model,omitempty"`
	GenStatus string    `json:"gen_status"`
	GenError  string    `json:"gen_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskResponse represents a maintenance task in API responses.
type TaskResponse struct {
	ID               string    `json:"id"`
	ItemID           string    `json:"item_id"`
	TaskName         string    `json:"task_name"`
	Description      string    `json:"description"`
	Priority         int       `json:"priority"`
	Frequency        string    `json:"frequency"`
	FrequencyInWeeks int       `json:"frequency_in_weeks"`
	Difficulty       string    `json:"difficulty"`
	Duration         string    `json:"duration"`
	DurationMinutes  int       `json:"duration_minutes"`
	Who              string    `json:"who"`
	Steps            []string  `json:"steps"`
	Tools            []string  `json:"tools"`
	Source           *string   `json:"manufacturer_source_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// ItemTasksResponse is the 200 response of the task delivery endpoint.
type ItemTasksResponse struct {
	Tasks []TaskResponse `json:"tasks"`
}

// PendingResponse is the 202 response while generation is still running.
type PendingResponse struct {
	Pending bool `json:"pending"`
}

// ItemWithTasksResponse groups an item with its tasks.
type ItemWithTasksResponse struct {
	Item  ItemResponse   `json:"item"`
	Tasks []TaskResponse `json:"tasks"`
}

func itemToResponse(item *domain.Item) ItemResponse {
	resp := ItemResponse{
		ID:        item.ID.String(),
		Name:      item.Name,
		Model:     item.Model,
		GenStatus: string(item.GenStatus),
		CreatedAt: item.CreatedAt,
	}
	if item.GenError != nil {
		resp.GenError = *item.GenError
	}
	return resp
}

func taskToResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:               task.ID.String(),
		ItemID:           task.ItemID.String(),
		TaskName:         task.TaskName,
		Description:      task.Description,
		Priority:         task.Priority,
		Frequency:        task.Frequency,
		FrequencyInWeeks: task.FrequencyInWeeks,
		Difficulty:       string(task.Difficulty),
		Duration:         task.Duration,
		DurationMinutes:  task.DurationMinutes,
		Who:              string(task.Who),
		Steps:            task.Steps,
		Tools:            task.Tools,
		Source:           task.ManufacturerSourceURL,
		CreatedAt:        task.CreatedAt,
	}
}

func tasksToResponse(tasks []*domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, taskToResponse(task))
	}
	return out
}
