package service

import (
	"errors"
	"fmt"
)

// Common service errors for constructor validation.
var (
	ErrNilDB        = errors.New("database connection cannot be nil")
	ErrNilItemStore = errors.New("item store cannot be nil")
	ErrNilTaskStore = errors.New("task store cannot be nil")
	ErrNilEmitter   = errors.New("event emitter cannot be nil")
	ErrNilLogger    = errors.New("logger cannot be nil")
)

// ServiceError is a custom error type for service-specific errors
// that includes the operation that failed and wraps the underlying error.
type ServiceError struct {
	Operation string // The operation that failed (e.g., "create_item")
	Message   string // Human-readable error message
	Err       error  // The underlying error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError with the given operation,
// message, and wrapped error.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
