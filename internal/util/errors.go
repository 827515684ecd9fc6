// Package util provides shared error types for the server.
//
// # Error Conventions
//
// This project follows a standardized error pattern across all packages:
//
//   - Sentinel errors (errors.New) for well-known, stable conditions
//     that callers check with errors.Is(). Example: ErrNotFound.
//   - Structured error types for context-rich errors that carry
//     additional fields (e.g., ParseError, BindingError). Each type
//     implements Error(), Unwrap() (if wrapping), and Is().
//   - fmt.Errorf with %w for ad-hoc wrapping that adds context to an
//     existing error without introducing a new type.
//
// All custom error types must implement:
//
//	Error() string           – human-readable message
//	Unwrap() error           – if the type wraps another error
//	Is(target error) bool    – for errors.Is() compatibility
package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Common sentinel errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrConfigInvalid = errors.New("invalid configuration")
)

// ParseError represents a malformed HTTP request. It covers a broken
// request line, a bad protocol version, and an unparsable declared
// body length. It maps to HTTP 400.
type ParseError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed request: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("malformed request: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ParseError) Is(target error) bool {
	if target == ErrInvalidInput {
		return true
	}
	_, ok := target.(*ParseError)
	return ok || errors.Is(e.Cause, target)
}

// NewParseError creates a new ParseError.
func NewParseError(message string) *ParseError {
	return &ParseError{Message: message}
}

// NewParseErrorWithCause creates a new ParseError with a cause.
func NewParseErrorWithCause(message string, cause error) *ParseError {
	return &ParseError{Message: message, Cause: cause}
}

// BindingError represents a handler parameter that could not be
// resolved from the path captures, the query string, or the body.
// It maps to HTTP 400 and names the missing parameter.
type BindingError struct {
	Param string
}

// Error implements the error interface.
func (e *BindingError) Error() string {
	return fmt.Sprintf("missing required parameter: %s", e.Param)
}

// Is checks if the error matches the target.
func (e *BindingError) Is(target error) bool {
	if target == ErrInvalidInput {
		return true
	}
	_, ok := target.(*BindingError)
	return ok
}

// NewBindingError creates a new BindingError.
func NewBindingError(param string) *BindingError {
	return &BindingError{Param: param}
}

// RouteNotFoundError represents a request that matched no registered
// route. A method mismatch on an otherwise-matching path produces the
// same error; allowed methods are not advertised. It maps to HTTP 404.
type RouteNotFoundError struct {
	Method string
	Path   string
}

// Error implements the error interface.
func (e *RouteNotFoundError) Error() string {
	return fmt.Sprintf("no route found for %s %s", e.Method, e.Path)
}

// Is checks if the error matches the target.
func (e *RouteNotFoundError) Is(target error) bool {
	if target == ErrNotFound {
		return true
	}
	_, ok := target.(*RouteNotFoundError)
	return ok
}

// NewRouteNotFoundError creates a new RouteNotFoundError.
func NewRouteNotFoundError(method, path string) *RouteNotFoundError {
	return &RouteNotFoundError{Method: method, Path: path}
}

// ConfigError represents a configuration or registration error.
// ConfigErrors are fatal at process start and never reached at
// request time.
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error at %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ConfigError) Is(target error) bool {
	if target == ErrConfigInvalid {
		return true
	}
	_, ok := target.(*ConfigError)
	return ok || errors.Is(e.Cause, target)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// NewConfigErrorWithCause creates a new ConfigError with a cause.
func NewConfigErrorWithCause(field, message string, cause error) *ConfigError {
	return &ConfigError{Field: field, Message: message, Cause: cause}
}

// HandlerError represents a failure reported by a handler through its
// error return. Handlers performing their own type conversion must
// return a HandlerError on conversion failure; it maps to HTTP 400.
// Unexpected handler panics are a separate fault mapped to HTTP 500 at
// the dispatch boundary.
type HandlerError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("handler error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("handler error: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *HandlerError) Is(target error) bool {
	if target == ErrInvalidInput {
		return true
	}
	_, ok := target.(*HandlerError)
	return ok || errors.Is(e.Cause, target)
}

// NewHandlerError creates a new HandlerError.
func NewHandlerError(message string) *HandlerError {
	return &HandlerError{Message: message}
}

// NewHandlerErrorWithCause creates a new HandlerError with a cause.
func NewHandlerErrorWithCause(message string, cause error) *HandlerError {
	return &HandlerError{Message: message, Cause: cause}
}

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// StatusFor maps a dispatch pipeline error to its HTTP status code.
// Any error outside the pipeline taxonomy is an unexpected fault and
// maps to 500.
func StatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}

	if errors.Is(err, ErrInvalidInput) {
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}
