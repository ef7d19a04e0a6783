// Package events provides types and interfaces for decoupled background-job
// dispatch.
//
// Services emit a GenerationRequestedEvent when an item needs a maintenance
// plan without knowing which handler will process it. The task package
// registers a handler that builds and submits the corresponding background
// job. This indirection keeps the service layer free of task-runner
// dependencies and breaks what would otherwise be a circular import.
package events
