package agent

import "fmt"

// GenerationError is returned when the initial draft cannot be produced.
type GenerationError struct {
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("content generation failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("content generation failed: %s", e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// OptimizationError describes a failed rewrite. It never reaches callers of
// Generate; the unoptimized content is returned instead.
type OptimizationError struct {
	Strategy string
	Cause    error
}

func (e *OptimizationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s optimization failed: %v", e.Strategy, e.Cause)
	}
	return fmt.Sprintf("%s optimization failed", e.Strategy)
}

func (e *OptimizationError) Unwrap() error {
	return e.Cause
}
