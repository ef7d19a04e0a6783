package gemini

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

	"google.golang.org/genai"

	"github.com/upkeepai/upkeep-api/internal/config"
	"github.com/upkeepai/upkeep-api/internal/domain"
	"github.com/upkeepai/upkeep-api/internal/generation"
)

// contentClient abstracts the genai Models API so tests can substitute a fake.
type contentClient interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		cfg *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// modelsClient adapts *genai.Client to the contentClient interface.
type modelsClient struct {
	client *genai.Client
}

func (m *modelsClient) GenerateContent(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	return m.client.Models.GenerateContent(ctx, model, contents, cfg)
}

// Generator implements generation.Generator against the Gemini API.
type Generator struct {
	logger *slog.Logger
	config config.LLMConfig
	client contentClient
	model  string
}

// NewGenerator creates a new Gemini-backed Generator.
// Returns an error if the configuration is incomplete or the client cannot
// be constructed.
func NewGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &Generator{
		logger: logger.With(slog.String("component", "gemini_generator")),
		config: cfg,
		client: &modelsClient{client: client},
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
// asset.
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

// callWithRetry makes the generate-content call with exponential backoff and
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
		g.logger.InfoContext(ctx, "making Gemini API call",
			"attempt", attemptNum,
			"max_attempts", maxRetries+1)

		response, transient, err := g.callOnce(ctx, prompt)
		if err == nil {
			g.logger.InfoContext(ctx, "Gemini API call successful", "attempt", attemptNum)
			return response, nil
		}

		g.logger.ErrorContext(ctx, "Gemini API call failed",
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

// callOnce performs a single generate-content round trip. The boolean return
// value reports whether a failure is worth retrying.
func (g *Generator) callOnce(ctx context.Context, prompt string) (*planResponse, bool, error) {
	temperature := float32(0.2)
	cfg := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
		ResponseSchema:   planResponseSchema(),
	}

	resp, err := g.client.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		// API and transport errors are assumed transient.
		return nil, true, fmt.Errorf("Gemini API call failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, false, fmt.Errorf("%w: no candidates in response", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, false, fmt.Errorf("%w: content blocked by safety filters",
			generation.ErrContentBlocked)
	}

	if candidate.Content == nil {
		return nil, false, fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}

	content := strings.TrimSpace(text.String())
	if content == "" {
		return nil, false, fmt.Errorf("%w: empty completion content", generation.ErrInvalidResponse)
	}

	// Strict decode: unknown fields are a schema violation.
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

	g.logger.InfoContext(ctx, "parsed Gemini plan response",
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
