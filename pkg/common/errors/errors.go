package errors

import (
	"errors"
	"fmt"
)

// Common error types used across the courseflow library

var (
	// ErrClosed indicates that an operation was attempted on a closed resource
	ErrClosed = errors.New("resource is closed")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrRateLimited indicates that a request was rate limited
	ErrRateLimited = errors.New("rate limited")

	// ErrContentLoad indicates that content could not be fetched or decoded
	ErrContentLoad = errors.New("unable to load content")

	// ErrNotFound indicates that a requested item does not exist
	ErrNotFound = errors.New("not found")

	// ErrNilStream indicates that a stream producer returned no stream
	ErrNilStream = errors.New("no stream produced")

	// ErrAccessDenied indicates that content is gated for the current user
	ErrAccessDenied = errors.New("access denied")
)

// ValidationError describes a configuration value that failed validation.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError without a hint.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches a remediation hint and returns the same error for chaining.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap makes every ValidationError match ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// OperationError wraps a failure of a named operation in a module.
type OperationError struct {
	Module    string
	Operation string
	Cause     error
	Context   string
}

// NewOperationError creates an OperationError.
func NewOperationError(module, operation string, cause error) *OperationError {
	return &OperationError{
		Module:    module,
		Operation: operation,
		Cause:     cause,
	}
}

// WithContext attaches extra detail and returns the same error for chaining.
func (e *OperationError) WithContext(context string) *OperationError {
	e.Context = context
	return e
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s.%s failed: %v", e.Module, e.Operation, e.Cause)
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// ContentLoadError reports a failure fetching or decoding a piece of content.
type ContentLoadError struct {
	// Resource names what was being loaded, e.g. "announcements".
	Resource string
	Cause    error
}

// NewContentLoadError creates a ContentLoadError for resource.
func NewContentLoadError(resource string, cause error) *ContentLoadError {
	return &ContentLoadError{Resource: resource, Cause: cause}
}

func (e *ContentLoadError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("unable to load %s", e.Resource)
	}
	return fmt.Sprintf("unable to load %s: %v", e.Resource, e.Cause)
}

// Is matches ErrContentLoad.
func (e *ContentLoadError) Is(target error) bool {
	return target == ErrContentLoad
}

func (e *ContentLoadError) Unwrap() error {
	return e.Cause
}

// AccessDeniedError reports content gated for the current user. It carries
// the metadata a presentation layer needs to explain why.
type AccessDeniedError struct {
	CourseID    string
	Code        string
	Message     string
	DisplayInfo string
}

func (e *AccessDeniedError) Error() string {
	msg := fmt.Sprintf("access denied to course %s", e.CourseID)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.DisplayInfo != "" {
		msg += " (" + e.DisplayInfo + ")"
	}
	return msg
}

func (e *AccessDeniedError) Unwrap() error {
	return ErrAccessDenied
}

// NetworkError is an opaque transport or status failure from the network layer.
type NetworkError struct {
	Method     string
	URL        string
	StatusCode int
	Cause      error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Cause != nil && e.StatusCode != 0:
		return fmt.Sprintf("%s %s: status %d: %v", e.Method, e.URL, e.StatusCode, e.Cause)
	case e.Cause != nil:
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Cause)
	default:
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	}
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// Temporary reports whether the server signalled a transient condition.
func (e *NetworkError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// IsRetryable returns true if the error indicates a condition that might
// be resolved by retrying the operation
func IsRetryable(err error) bool {
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimited) {
		return true
	}
	var netErr *NetworkError
	return errors.As(err, &netErr) && netErr.Temporary()
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsAccessDenied reports whether err is or wraps an AccessDeniedError.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}
