package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrDeviceNotFound    = errors.New("device not found")
	ErrDeviceUnreachable = errors.New("device unreachable")
	ErrNoMasterState     = errors.New("no master state set")
	ErrNotGrouped        = errors.New("device is not in a group")
	ErrAlreadyGrouped    = errors.New("device is already in a group")
	ErrTimeout           = errors.New("request timeout")
	ErrNetworkError      = errors.New("network error")
	ErrConfigNotFound    = errors.New("config file not found")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrUnknownCommand    = errors.New("unknown command response")
)

// CtlError wraps an error with a user-friendly suggestion.
type CtlError struct {
	Err        error
	Suggestion string
}

func (e *CtlError) Error() string {
	return e.Err.Error()
}

func (e *CtlError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &CtlError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	// Check if it's already a CtlError with suggestion
	var ctlErr *CtlError
	if errors.As(err, &ctlErr) && ctlErr.Suggestion != "" {
		return ctlErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	// Device errors
	if errors.Is(err, ErrDeviceNotFound) || strings.Contains(errStr, "device not found") {
		return "Run 'wiimctl devices' to discover speakers on your network"
	}

	if errors.Is(err, ErrDeviceUnreachable) || strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no route to host") {
		return "Check that the speaker is powered on and reachable"
	}

	// Group errors
	if errors.Is(err, ErrNoMasterState) {
		return "The group master has not reported state yet; try again in a moment"
	}

	if errors.Is(err, ErrNotGrouped) {
		return "Run 'wiimctl group join' to add this speaker to a group first"
	}

	// Network errors
	if errors.Is(err, ErrNetworkError) || errors.Is(err, ErrTimeout) ||
		strings.Contains(errStr, "network") || strings.Contains(errStr, "timeout") {
		return "Check your network connection and try again"
	}

	// Config errors
	if errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrInvalidConfig) ||
		strings.Contains(errStr, "config") {
		return "Check ~/.wiimctlrc or run with --config to point at a valid file"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}

// PartialResult represents a result that may have partial failures, such as
// a propagation fan-out where individual slaves fail independently.
type PartialResult[T any] struct {
	Data   T
	Errors []error
}

// HasErrors returns true if there were any errors.
func (p *PartialResult[T]) HasErrors() bool {
	return len(p.Errors) > 0
}

// AddError adds an error to the partial result.
func (p *PartialResult[T]) AddError(err error) {
	if err != nil {
		p.Errors = append(p.Errors, err)
	}
}

// ErrorSummary returns a summary of all errors.
func (p *PartialResult[T]) ErrorSummary() string {
	if len(p.Errors) == 0 {
		return ""
	}
	if len(p.Errors) == 1 {
		return p.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:\n", len(p.Errors)))
	for i, err := range p.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}
