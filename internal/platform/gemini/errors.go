package gemini

import "errors"

// Errors specific to the Gemini generator
var (
	// ErrNilItem is returned when GenerateTasks is called with a nil item
	ErrNilItem = errors.New("item cannot be nil")
)
