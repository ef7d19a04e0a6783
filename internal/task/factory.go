package task

import (
	"log/slog"

	"github.com/google/uuid"
)

// PlanGenerationJobFactory creates PlanGenerationJob instances with a fixed
// set of collaborators.
type PlanGenerationJobFactory struct {
	itemService ItemService
	generator   PlanGenerator
	quota       QuotaChecker
	logger      *slog.Logger
}

// NewPlanGenerationJobFactory creates a new factory for PlanGenerationJobs.
func NewPlanGenerationJobFactory(
	itemService ItemService,
	generator PlanGenerator,
	quota QuotaChecker,
	logger *slog.Logger,
) *PlanGenerationJobFactory {
	return &PlanGenerationJobFactory{
		itemService: itemService,
		generator:   generator,
		quota:       quota,
		logger:      logger.With("component", "plan_generation_job_factory"),
	}
}

// CreateJob creates a new PlanGenerationJob for the specified item.
func (f *PlanGenerationJobFactory) CreateJob(itemID uuid.UUID, tzOffsetMinutes int) (Job, error) {
	job, err := NewPlanGenerationJob(
		itemID,
		tzOffsetMinutes,
		f.itemService,
		f.generator,
		f.quota,
		f.logger,
	)
	if err != nil {
		return nil, err
	}
	return job, nil
}
