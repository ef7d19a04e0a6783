package openai

import "errors"

// Errors specific to the OpenAI generator.
var (
	// ErrNilItem is returned when GenerateTasks is called with a nil item.
	ErrNilItem = errors.New("item cannot be nil")
)
