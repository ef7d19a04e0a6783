package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upkeepai/upkeep-api/internal/domain"
)

func validPlanFields() domain.TaskPlanFields {
	return domain.TaskPlanFields{
		TaskName:         "Flush the tank",
		Description:      "Drain sediment from the bottom of the tank",
		Priority:         3,
		Frequency:        "Twice a year",
		FrequencyInWeeks: 26,
		Difficulty:       domain.DifficultyMedium,
		Duration:         "About an hour",
		DurationMinutes:  60,
		Who:              domain.ResponsibleOwner,
		Steps:            []string{"Turn off power", "Attach hose", "Drain"},
		Tools:            []string{"Garden hose"},
	}
}

func TestNewTask(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	itemID := uuid.New()

	task, err := domain.NewTask(userID, itemID, validPlanFields())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, task.ID)
	assert.Equal(t, userID, task.UserID)
	assert.Equal(t, itemID, task.ItemID)
	assert.Equal(t, "Flush the tank", task.TaskName)
	assert.False(t, task.CreatedAt.IsZero())
}

func TestNewTaskDefaultsNilSlices(t *testing.T) {
	t.Parallel()

	plan := validPlanFields()
	plan.Steps = nil
	plan.Tools = nil

	task, err := domain.NewTask(uuid.New(), uuid.New(), plan)
	require.NoError(t, err)

	assert.NotNil(t, task.Steps)
	assert.NotNil(t, task.Tools)
	assert.Empty(t, task.Steps)
	assert.Empty(t, task.Tools)
}

func TestNewTaskValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*domain.TaskPlanFields)
		wantErr error
	}{
		{
			name:    "empty task name",
			mutate:  func(p *domain.TaskPlanFields) { p.TaskName = "" },
			wantErr: domain.ErrEmptyTaskName,
		},
		{
			name:    "empty description",
			mutate:  func(p *domain.TaskPlanFields) { p.Description = "" },
			wantErr: domain.ErrEmptyTaskDescription,
		},
		{
			name:    "priority below minimum",
			mutate:  func(p *domain.TaskPlanFields) { p.Priority = 0 },
			wantErr: domain.ErrInvalidTaskPriority,
		},
		{
			name:    "priority above maximum",
			mutate:  func(p *domain.TaskPlanFields) { p.Priority = 11 },
			wantErr: domain.ErrInvalidTaskPriority,
		},
		{
			name:    "frequency weeks above maximum",
			mutate:  func(p *domain.TaskPlanFields) { p.FrequencyInWeeks = 521 },
			wantErr: domain.ErrInvalidFrequencyWeeks,
		},
		{
			name:    "unknown difficulty",
			mutate:  func(p *domain.TaskPlanFields) { p.Difficulty = "impossible" },
			wantErr: domain.ErrInvalidDifficulty,
		},
		{
			name:    "zero duration minutes",
			mutate:  func(p *domain.TaskPlanFields) { p.DurationMinutes = 0 },
			wantErr: domain.ErrInvalidDurationMinutes,
		},
		{
			name:    "unknown responsible party",
			mutate:  func(p *domain.TaskPlanFields) { p.Who = "robot" },
			wantErr: domain.ErrInvalidResponsible,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			plan := validPlanFields()
			tt.mutate(&plan)

			_, err := domain.NewTask(uuid.New(), uuid.New(), plan)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewTaskOwnershipValidation(t *testing.T) {
	t.Parallel()

	_, err := domain.NewTask(uuid.Nil, uuid.New(), validPlanFields())
	assert.ErrorIs(t, err, domain.ErrEmptyTaskUserID)

	_, err = domain.NewTask(uuid.New(), uuid.Nil, validPlanFields())
	assert.ErrorIs(t, err, domain.ErrEmptyTaskItemID)
}

func TestVeryHardDifficultyIsValid(t *testing.T) {
	t.Parallel()

	plan := validPlanFields()
	plan.Difficulty = domain.DifficultyVeryHard

	_, err := domain.NewTask(uuid.New(), uuid.New(), plan)
	assert.NoError(t, err)
}
