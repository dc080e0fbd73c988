package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrUpstreamUnavailable  = errors.New("upstream unavailable")
	ErrMissingDependency    = errors.New("missing dependency")
	ErrConfigurationMissing = errors.New("configuration missing")
	ErrModelNotLoaded       = errors.New("model not loaded")
	ErrValidation           = errors.New("validation failed")
	ErrInvalidTransition    = errors.New("invalid status transition")
)

// ValidationError reports a malformed field on an inbound request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError is a shorthand used by request decoders.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// UpstreamError wraps a failed collaborator call. StatusCode is zero when the
// request never produced an HTTP response.
type UpstreamError struct {
	Service    string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Service, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}
