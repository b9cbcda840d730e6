package errors

import "fmt"

// Category classifies engine errors by origin.
type Category string

const (
	CategoryConfiguration Category = "CONFIG"
	CategoryValidation    Category = "VALIDATION"
	CategoryData          Category = "DATA"
	CategoryReport        Category = "REPORT"
)

// EngineError is a categorized error with component and operation context.
type EngineError struct {
	Category   Category
	Component  string
	Operation  string
	Message    string
	Underlying error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error.
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// New creates a categorized engine error.
func New(category Category, component, operation, message string) *EngineError {
	return &EngineError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
	}
}

// Wrap attaches engine context to an existing error. Returns nil for a nil error.
func Wrap(err error, category Category, component, operation string) *EngineError {
	if err == nil {
		return nil
	}
	return &EngineError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
	}
}

// NewConfigurationError reports a malformed or unreadable configuration.
func NewConfigurationError(component, operation, message string) *EngineError {
	return New(CategoryConfiguration, component, operation, message)
}

// NewValidationError reports an out-of-range or inconsistent parameter.
func NewValidationError(component, operation, message string) *EngineError {
	return New(CategoryValidation, component, operation, message)
}
