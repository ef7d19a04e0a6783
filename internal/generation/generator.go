package generation

import (
	"context"

	"github.com/upkeepai/upkeep-api/internal/domain"
)

// Generator defines the interface for generating a maintenance task plan for
// an item. Implementations are responsible for producing schema-valid
// output: every returned task is already validated against the plan shape
// (bounded priority, frequency, duration, enums). Non-conforming provider
// output surfaces as ErrInvalidResponse, never as malformed tasks.
type Generator interface {
	// GenerateTasks creates candidate maintenance tasks for the given item.
	// The returned tasks are stamped with the item's owner and ID and are
	// sorted ascending by priority. An empty slice with a nil error is a
	// valid result: the provider produced a plan with no tasks. The caller
	// (the generation job) applies quota truncation; the generator itself
	// does not.
	GenerateTasks(ctx context.Context, item *domain.Item) ([]*domain.Task, error)
}
