// Package errors provides custom error types for the learnstream system.
// These errors enable programmatic error checking across the stream client,
// its transports and the development server.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the learnstream system
var (
	// ErrInvalidEvent indicates a stream message that is not a valid AppEvent
	ErrInvalidEvent = errors.New("invalid event")

	// ErrTransport indicates the underlying stream connection failed or closed
	ErrTransport = errors.New("transport error")

	// ErrInvalidURL indicates a stream url that cannot be opened
	ErrInvalidURL = errors.New("invalid url")

	// ErrUnauthorized indicates a missing or rejected credential
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrClosed indicates an operation on a closed resource
	ErrClosed = errors.New("closed")
)

// DecodeError represents a stream message that could not be decoded into an AppEvent.
type DecodeError struct {
	EventType string // declared eventType, empty when the envelope itself is unreadable
	Field     string // offending field, if known
	Message   string
	Err       error
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	switch {
	case e.EventType != "" && e.Field != "":
		return fmt.Sprintf("decode %s event: field %s: %s", e.EventType, e.Field, e.Message)
	case e.EventType != "":
		return fmt.Sprintf("decode %s event: %s", e.EventType, e.Message)
	default:
		return fmt.Sprintf("decode event: %s", e.Message)
	}
}

// Unwrap implements errors.Unwrap
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *DecodeError) Is(target error) bool {
	return target == ErrInvalidEvent
}

// NewDecodeError creates a new DecodeError
func NewDecodeError(eventType, field, message string, err error) *DecodeError {
	return &DecodeError{EventType: eventType, Field: field, Message: message, Err: err}
}

// TransportError represents a failure of the underlying stream connection.
type TransportError struct {
	Transport  string // "sse", "websocket"
	URL        string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s transport error for %s (status %d): %s", e.Transport, e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s transport error for %s: %s", e.Transport, e.URL, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *TransportError) Is(target error) bool {
	if target == ErrTransport {
		return true
	}
	if e.StatusCode == 401 || e.StatusCode == 403 {
		return target == ErrUnauthorized
	}
	return false
}

// NewTransportError creates a new TransportError
func NewTransportError(transport, url string, statusCode int, err error) *TransportError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &TransportError{
		Transport:  transport,
		URL:        url,
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// APIError represents a non-success response from the platform API
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Endpoint, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	switch e.StatusCode {
	case 400, 422:
		return target == ErrInvalidInput
	case 401, 403:
		return target == ErrUnauthorized
	}
	return false
}

// NewAPIError creates a new APIError
func NewAPIError(endpoint string, statusCode int, message string) *APIError {
	return &APIError{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    message,
	}
}

// ResourceError represents an error during resource operations
type ResourceError struct {
	Operation string // "create", "load", "watch", "publish"
	Resource  string // "config", "session", "server", "event"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsInvalidEvent checks if an error is an event decode error
func IsInvalidEvent(err error) bool {
	return errors.Is(err, ErrInvalidEvent)
}

// IsTransport checks if an error is a transport error
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsUnauthorized checks if an error is an authorization failure
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// Helper wrapping functions for common patterns

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapTransport wraps an error as a TransportError
func WrapTransport(transport, url string, err error) error {
	if err == nil {
		return nil
	}
	return NewTransportError(transport, url, 0, err)
}

// Is reports whether any error in err's tree matches target.
// It's an alias for the standard library errors.Is for convenience.
var Is = errors.Is

// As finds the first error in err's tree that matches target.
// It's an alias for the standard library errors.As for convenience.
var As = errors.As
