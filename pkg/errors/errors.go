// Package errors provides structured error types for ratekit.
// Errors carry a code, a category, context, and actionable suggestions.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Category classifies errors for consistent handling and display.
type Category string

const (
	CategoryConfig   Category = "config"   // Contradictory or invalid configuration
	CategoryData     Category = "data"     // Degenerate or malformed ensemble data
	CategoryNumeric  Category = "numeric"  // Optimizer or integration failures
	CategoryIO       Category = "io"       // File reading/parsing errors
	CategoryInternal Category = "internal" // Internal/unexpected errors
)

// RateError is a structured error with context and suggestions.
// It implements the error interface and supports error wrapping.
type RateError struct {
	// Code is a unique identifier for this error type (e.g., "DATA_ZERO_TRANSITIONS")
	Code string

	// Category classifies this error for consistent handling
	Category Category

	// Message is the primary error message describing what went wrong
	Message string

	// Context provides additional key-value details about the error
	Context map[string]string

	// Cause is the underlying error that triggered this error (for wrapping)
	Cause error

	// Suggestions are actionable remediation steps for the user
	Suggestions []string
}

// Error implements the error interface.
func (e *RateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain inspection.
// This enables errors.Is() and errors.As() to work with RateError.
func (e *RateError) Unwrap() error {
	return e.Cause
}

// Is reports whether e matches target for errors.Is() checks.
// Two RateErrors match if they have the same Code.
func (e *RateError) Is(target error) bool {
	if t, ok := target.(*RateError); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new RateError with the given code, category, and message.
func New(code string, category Category, message string) *RateError {
	return &RateError{
		Code:     code,
		Category: category,
		Message:  message,
		Context:  make(map[string]string),
	}
}

// Wrap creates a RateError that wraps an underlying cause.
func Wrap(cause error, code string, category Category, message string) *RateError {
	e := New(code, category, message)
	e.Cause = cause
	return e
}

// WithContext adds a context key-value pair and returns the error for chaining.
func (e *RateError) WithContext(key, value string) *RateError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithCause wraps an underlying error and returns the error for chaining.
func (e *RateError) WithCause(cause error) *RateError {
	e.Cause = cause
	return e
}

// WithSuggestion adds a remediation suggestion and returns the error for chaining.
func (e *RateError) WithSuggestion(suggestion string) *RateError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple remediation suggestions.
func (e *RateError) WithSuggestions(suggestions ...string) *RateError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// HasContext returns true if the error has context information.
func (e *RateError) HasContext() bool {
	return len(e.Context) > 0
}

// HasSuggestions returns true if the error has remediation suggestions.
func (e *RateError) HasSuggestions() bool {
	return len(e.Suggestions) > 0
}

// Detail returns a multi-line description including context and suggestions.
// Intended for verbose CLI output; Error() stays single-line for logs.
func (e *RateError) Detail() string {
	var b strings.Builder
	b.WriteString(e.Error())
	for k, v := range e.Context {
		fmt.Fprintf(&b, "\n  %s: %s", k, v)
	}
	for _, s := range e.Suggestions {
		fmt.Fprintf(&b, "\n  hint: %s", s)
	}
	return b.String()
}

// IsCategory reports whether err is a RateError in the given category.
func IsCategory(err error, category Category) bool {
	if err == nil {
		return false
	}
	var re *RateError
	if stderrors.As(err, &re) {
		return re.Category == category
	}
	return false
}
