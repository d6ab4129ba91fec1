// Package errors defines the error values shared by the storefront service layers.
package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = stderrors.New("not found")
	// ErrUnauthorized is returned when a request carries no valid session.
	ErrUnauthorized = stderrors.New("unauthorized")
	// ErrForbidden is returned when the session role may not perform the operation.
	ErrForbidden = stderrors.New("forbidden")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
	Details map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Details: map[string]string{field: message},
	}
}

// UpstreamError reports a non-success response from an external API.
type UpstreamError struct {
	Service    string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("%s service returned status %d", e.Service, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamStatusError wraps a non-success status code.
func NewUpstreamStatusError(service string, statusCode int) *UpstreamError {
	return &UpstreamError{Service: service, StatusCode: statusCode}
}

// NewUpstreamError wraps a transport or decoding failure.
func NewUpstreamError(service string, err error) *UpstreamError {
	return &UpstreamError{Service: service, Err: err}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return stderrors.As(err, &v)
}

// IsUpstream reports whether err came from an external API.
func IsUpstream(err error) bool {
	var u *UpstreamError
	return stderrors.As(err, &u)
}
