package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Difficulty describes how hard a maintenance task is to perform.
type Difficulty string

// Possible difficulty values
const (
	DifficultyEasy     Difficulty = "easy"
	DifficultyMedium   Difficulty = "medium"
	DifficultyHard     Difficulty = "hard"
	DifficultyVeryHard Difficulty = "very hard"
)

// Responsible identifies who should carry out a maintenance task.
type Responsible string

// Possible responsible-party values
const (
	ResponsibleOwner        Responsible = "owner"
	ResponsibleProfessional Responsible = "professional"
)

// Bounds enforced on task plan fields. These mirror the provider's response
// schema so a task that validates here is storable as-is.
const (
	MinTaskPriority    = 1
	MaxTaskPriority    = 10
	MinFrequencyWeeks  = 1
	MaxFrequencyWeeks  = 520
	MinDurationMinutes = 1
)

// Task-specific validation errors
var (
	ErrEmptyTaskID            = errors.New("task ID cannot be empty")
	ErrEmptyTaskUserID        = errors.New("task user ID cannot be empty")
	ErrEmptyTaskItemID        = errors.New("task item ID cannot be empty")
	ErrEmptyTaskName          = errors.New("task name cannot be empty")
	ErrEmptyTaskDescription   = errors.New("task description cannot be empty")
	ErrInvalidTaskPriority    = errors.New("task priority must be between 1 and 10")
	ErrEmptyTaskFrequency     = errors.New("task frequency cannot be empty")
	ErrInvalidFrequencyWeeks  = errors.New("task frequency weeks must be between 1 and 520")
	ErrInvalidDifficulty      = errors.New("invalid task difficulty")
	ErrEmptyTaskDuration      = errors.New("task duration cannot be empty")
	ErrInvalidDurationMinutes = errors.New("task duration minutes must be at least 1")
	ErrInvalidResponsible     = errors.New("invalid task responsible party")
)

// Task represents one maintenance action belonging to an item's generated
// plan. Tasks are created only by the generation job on success and are
// deleted alongside their owning item. CreatedAt is the key used for daily
// quota accounting.
type Task struct {
	ID               uuid.UUID   `json:"id"`
	UserID           uuid.UUID   `json:"user_id"`
	ItemID           uuid.UUID   `json:"item_id"`
	TaskName         string      `json:"task_name"`
	Description      string      `json:"description"`
	Priority         int         `json:"priority"`
	Frequency        string      `json:"frequency"`
	FrequencyInWeeks int         `json:"frequency_in_weeks"`
	Difficulty       Difficulty  `json:"difficulty"`
	Duration         string      `json:"duration"`
	DurationMinutes  int         `json:"duration_minutes"`
	Who              Responsible `json:"who"`
	Steps            []string    `json:"steps"`
	Tools            []string    `json:"tools"`

	// Optional manufacturer citation
	ManufacturerSnippet   *string `json:"manufacturer_snippet,omitempty"`
	ManufacturerSourceURL *string `json:"manufacturer_source_url,omitempty"`
	ManufacturerDocTitle  *string `json:"manufacturer_doc_title,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// TaskPlanFields holds the provider-supplied plan fields for a single task,
// before ownership and timestamps are attached.
type TaskPlanFields struct {
	TaskName              string
	Description           string
	Priority              int
	Frequency             string
	FrequencyInWeeks      int
	Difficulty            Difficulty
	Duration              string
	DurationMinutes       int
	Who                   Responsible
	Steps                 []string
	Tools                 []string
	ManufacturerSnippet   *string
	ManufacturerSourceURL *string
	ManufacturerDocTitle  *string
}

// NewTask creates a Task from provider plan fields, stamping it with the
// owning user, owning item, and the current time.
// Returns an error if validation fails.
func NewTask(userID, itemID uuid.UUID, plan TaskPlanFields) (*Task, error) {
	task := &Task{
		ID:                    uuid.New(),
		UserID:                userID,
		ItemID:                itemID,
		TaskName:              plan.TaskName,
		Description:           plan.Description,
		Priority:              plan.Priority,
		Frequency:             plan.Frequency,
		FrequencyInWeeks:      plan.FrequencyInWeeks,
		Difficulty:            plan.Difficulty,
		Duration:              plan.Duration,
		DurationMinutes:       plan.DurationMinutes,
		Who:                   plan.Who,
		Steps:                 plan.Steps,
		Tools:                 plan.Tools,
		ManufacturerSnippet:   plan.ManufacturerSnippet,
		ManufacturerSourceURL: plan.ManufacturerSourceURL,
		ManufacturerDocTitle:  plan.ManufacturerDocTitle,
		CreatedAt:             time.Now().UTC(),
	}

	if task.Steps == nil {
		task.Steps = []string{}
	}
	if task.Tools == nil {
		task.Tools = []string{}
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.UserID == uuid.Nil {
		return ErrEmptyTaskUserID
	}

	if t.ItemID == uuid.Nil {
		return ErrEmptyTaskItemID
	}

	if t.TaskName == "" {
		return ErrEmptyTaskName
	}

	if t.Description == "" {
		return ErrEmptyTaskDescription
	}

	if t.Priority < MinTaskPriority || t.Priority > MaxTaskPriority {
		return ErrInvalidTaskPriority
	}

	if t.Frequency == "" {
		return ErrEmptyTaskFrequency
	}

	if t.FrequencyInWeeks < MinFrequencyWeeks || t.FrequencyInWeeks > MaxFrequencyWeeks {
		return ErrInvalidFrequencyWeeks
	}

	if !isValidDifficulty(t.Difficulty) {
		return ErrInvalidDifficulty
	}

	if t.Duration == "" {
		return ErrEmptyTaskDuration
	}

	if t.DurationMinutes < MinDurationMinutes {
		return ErrInvalidDurationMinutes
	}

	if !isValidResponsible(t.Who) {
		return ErrInvalidResponsible
	}

	return nil
}

// isValidDifficulty checks if the given difficulty is a valid Difficulty.
func isValidDifficulty(d Difficulty) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyVeryHard:
		return true
	default:
		return false
	}
}

// isValidResponsible checks if the given value is a valid Responsible.
func isValidResponsible(r Responsible) bool {
	switch r {
	case ResponsibleOwner, ResponsibleProfessional:
		return true
	default:
		return false
	}
}
