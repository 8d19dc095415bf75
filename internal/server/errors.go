// Package server provides the HTTP APIs of the content and loop services.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/marketing-agent/internal/agent"
	"github.com/jonathan/marketing-agent/internal/schemas"
	"github.com/jonathan/marketing-agent/internal/types"
)

// ErrAgentUnavailable indicates the model client was not initialized.
type ErrAgentUnavailable struct{}

func (e *ErrAgentUnavailable) Error() string {
	return "content agent not initialized"
}

// ErrNotFound indicates a missing resource or route.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrBadRequest indicates a body that could not be decoded.
type ErrBadRequest struct {
	Message string
	Cause   error
}

func (e *ErrBadRequest) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ErrBadRequest) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		missing     *types.ErrMissingFields
		invalid     *types.ErrValidation
		schemaErr   *schemas.ValidationError
		badRequest  *ErrBadRequest
		unavailable *ErrAgentUnavailable
		notFound    *ErrNotFound
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &missing), errors.As(err, &invalid), errors.As(err, &schemaErr), errors.As(err, &badRequest):
		return http.StatusBadRequest
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &notFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// errorCode is the short machine-readable name sent in the "error" field.
func errorCode(err error) string {
	var (
		missing     *types.ErrMissingFields
		invalid     *types.ErrValidation
		schemaErr   *schemas.ValidationError
		genErr      *agent.GenerationError
		badRequest  *ErrBadRequest
		unavailable *ErrAgentUnavailable
		notFound    *ErrNotFound
	)
	switch {
	case errors.As(err, &missing):
		return "missing_fields"
	case errors.As(err, &invalid), errors.As(err, &schemaErr):
		return "validation_error"
	case errors.As(err, &badRequest):
		return "invalid_request"
	case errors.As(err, &unavailable):
		return "service_unavailable"
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &genErr):
		return "generation_failed"
	default:
		return "internal_error"
	}
}
