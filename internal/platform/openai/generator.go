// Package openai implements the generation.Generator interface using the
// OpenAI chat completions API with structured (JSON schema) output.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/upkeepai/upkeep-api/internal/config"
	"github.com/upkeepai/upkeep-api/internal/domain"
	"github.com/upkeepai/upkeep-api/internal/generation"
)

// chatClient abstracts the OpenAI SDK client so tests can substitute a fake.
type chatClient interface {
	CreateChatCompletion(
		ctx context.Context,
		req goopenai.ChatCompletionRequest,
	) (goopenai.ChatCompletionResponse, error)
}

// Generator implements generation.Generator against the OpenAI API.
type Generator struct {
	logger *slog.Logger
	config config.LLMConfig
	client chatClient
	model  string
}

// NewGenerator creates a new OpenAI-backed Generator.
// Returns an error if the configuration is incomplete.
func NewGenerator(logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	return &Generator{
		logger: logger.With(slog.String("component", "openai_generator")),
		config: cfg,
		client: goopenai.NewClient(cfg.OpenAIAPIKey),
		model:  cfg.ModelName,
	}, nil
}

// GenerateTasks creates candidate maintenance tasks for the given item.
// The returned tasks carry the item's owner and ID and are sorted ascending
// by priority.
func (g *Generator) GenerateTasks(ctx context.Context, item *domain.Item) ([]*domain.Task, error) {
	if item == nil {
		return nil, ErrNilItem
	}

	prompt, err := g.buildPrompt(item)
	if err != nil {
		return nil, err
	}

	response, err := g.callWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return g.parseResponse(ctx, response, item)
}

// buildPrompt renders the plan prompt with the item presented as the single
// asset, matching the structured-output contract.
func (g *Generator) buildPrompt(item *domain.Item) (string, error) {
	if item.Name == "" {
		return "", fmt.Errorf("%w: item name cannot be empty", generation.ErrGenerationFailed)
	}

	assets := []asset{{
		MaintenanceItemID:   item.ID.String(),
		MaintenanceItemName: item.Name,
		Model:               item.Model,
	}}

	assetsJSON, err := json.MarshalIndent(assets, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal assets: %w", err)
	}

	return planPrompt + "\n\nAssets:\n" + string(assetsJSON), nil
}

// callWithRetry makes the chat completion call with exponential backoff and
// jitter for transient errors. Permanent errors (invalid response, content
// blocked) are returned immediately without retrying.
func (g *Generator) callWithRetry(ctx context.Context, prompt string) (*planResponse, error) {
	maxRetries := g.config.MaxRetries
	baseDelaySeconds := g.config.RetryDelaySeconds
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	if maxRetries < 0 {
		g.logger.WarnContext(ctx, "invalid max retries value, using default", "max_retries", 3)
		maxRetries = 3
	}

	if baseDelaySeconds < 1 {
		g.logger.WarnContext(ctx, "invalid retry delay value, using default", "base_delay_seconds", 2)
		baseDelaySeconds = 2
	}

	for attempt := 0; ; attempt++ {
		attemptNum := attempt + 1
		g.logger.InfoContext(ctx, "making OpenAI API call",
			"attempt", attemptNum,
			"max_attempts", maxRetries+1)

		response, transient, err := g.callOnce(ctx, prompt)
		if err == nil {
			g.logger.InfoContext(ctx, "OpenAI API call successful", "attempt", attemptNum)
			return response, nil
		}

		g.logger.ErrorContext(ctx, "OpenAI API call failed",
			"attempt", attemptNum,
			"error", err)

		if !transient {
			return nil, err
		}

		if attempt >= maxRetries {
			return nil, fmt.Errorf("%w: exceeded maximum retry attempts (%d)",
				generation.ErrTransientFailure, maxRetries)
		}

		// delay = baseDelay * 2^attempt * (0.5 + rand(0, 0.5))
		backoffSeconds := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		jitterFactor := 0.5 + rng.Float64()*0.5
		delay := time.Duration(backoffSeconds * jitterFactor * float64(time.Second))

		g.logger.InfoContext(ctx, "retrying after delay",
			"attempt", attemptNum,
			"delay", delay.String())

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}
}

// callOnce performs a single chat completion round trip. The boolean return
// value reports whether a failure is worth retrying.
func (g *Generator) callOnce(ctx context.Context, prompt string) (*planResponse, bool, error) {
	req := goopenai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: 0.2,
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role:    goopenai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &goopenai.ChatCompletionResponseFormatJSONSchema{
				Name:   "maintenance_task_plan",
				Schema: planResponseSchema(),
				// Wire-level permissiveness; the local decoder enforces
				// the strict shape.
				Strict: false,
			},
		},
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		// API and transport errors are assumed transient.
		return nil, true, fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, false, fmt.Errorf("%w: no choices in response", generation.ErrInvalidResponse)
	}

	choice := resp.Choices[0]
	if choice.FinishReason == goopenai.FinishReasonContentFilter {
		return nil, false, fmt.Errorf("%w: completion stopped by content filter",
			generation.ErrContentBlocked)
	}

	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		return nil, false, fmt.Errorf("%w: empty completion content", generation.ErrInvalidResponse)
	}

	// Strict decode: unknown fields are a schema violation, same as the
	// original contract's server-side validation.
	decoder := json.NewDecoder(strings.NewReader(content))
	decoder.DisallowUnknownFields()

	var parsed planResponse
	if err := decoder.Decode(&parsed); err != nil {
		return nil, false, fmt.Errorf("%w: failed to parse JSON response: %v",
			generation.ErrInvalidResponse, err)
	}

	return &parsed, false, nil
}

// parseResponse converts the wire plan into domain tasks, flattening every
// entry's task list, validating each task, and sorting ascending by
// priority so insertion order matches generation intent.
func (g *Generator) parseResponse(
	ctx context.Context,
	response *planResponse,
	item *domain.Item,
) ([]*domain.Task, error) {
	if response == nil {
		return nil, fmt.Errorf("%w: no plan in response", generation.ErrInvalidResponse)
	}

	tasks := []*domain.Task{}
	for _, entry := range response.Plan {
		for i, ts := range entry.Tasks {
			task, err := domain.NewTask(item.UserID, item.ID, planFieldsFromSchema(ts))
			if err != nil {
				return nil, fmt.Errorf("%w: task %d: %v", generation.ErrInvalidResponse, i, err)
			}
			tasks = append(tasks, task)
		}
	}

	// An empty plan is a valid outcome: the item still resolves, just with
	// no tasks.
	if len(tasks) == 0 {
		g.logger.WarnContext(ctx, "provider returned an empty plan",
			"item_id", item.ID.String())
		return tasks, nil
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Priority < tasks[j].Priority
	})

	g.logger.InfoContext(ctx, "parsed OpenAI plan response",
		"item_id", item.ID.String(),
		"task_count", len(tasks))

	return tasks, nil
}

// planFieldsFromSchema maps one wire task onto domain plan fields.
func planFieldsFromSchema(ts taskSchema) domain.TaskPlanFields {
	fields := domain.TaskPlanFields{
		TaskName:         ts.TaskName,
		Description:      ts.Description,
		Priority:         ts.Priority,
		Frequency:        ts.Frequency,
		FrequencyInWeeks: ts.FrequencyInWeeks,
		Difficulty:       domain.Difficulty(ts.Difficulty),
		Duration:         ts.Duration,
		DurationMinutes:  ts.DurationMinutes,
		Who:              domain.Responsible(ts.Who),
		Steps:            ts.Steps,
		Tools:            ts.Tools,
	}

	if ts.ManufacturerSnippet != "" {
		fields.ManufacturerSnippet = &ts.ManufacturerSnippet
	}
	if ts.ManufacturerSourceURL != "" {
		fields.ManufacturerSourceURL = &ts.ManufacturerSourceURL
	}
	if ts.ManufacturerDocTitle != "" {
		fields.ManufacturerDocTitle = &ts.ManufacturerDocTitle
	}

	return fields
}

// Ensure Generator implements generation.Generator
var _ generation.Generator = (*Generator)(nil)
