package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents a failure after a message compiled cleanly:
// the executor or the configuration store could not complete it.
//
// Structural errors (bad command text) are not RuntimeErrors; they come
// from the compiler and are shown to the user as they are.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// RequestID identifies the handled message in logs.
	RequestID string

	// Command is the chat command being handled.
	Command string

	// Err is the underlying error.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeExecutionFailed indicates the event store rejected or failed a request.
	ErrCodeExecutionFailed RuntimeErrorCode = "EXECUTION_FAILED"

	// ErrCodeConfigFailed indicates user configuration could not be read or saved.
	ErrCodeConfigFailed RuntimeErrorCode = "CONFIG_FAILED"

	// ErrCodeNoExecutor indicates no event store is available for the user.
	ErrCodeNoExecutor RuntimeErrorCode = "NO_EXECUTOR"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.RequestID != "" {
		msg += fmt.Sprintf(" (request=%s)", e.RequestID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsRuntimeError returns true if err is or wraps a RuntimeError.
func IsRuntimeError(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re)
}

func newExecutionError(requestID, command string, err error) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeExecutionFailed,
		Message:   "request failed",
		RequestID: requestID,
		Command:   command,
		Err:       err,
	}
}

func newConfigError(requestID string, err error) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeConfigFailed,
		Message:   "configuration unavailable",
		RequestID: requestID,
		Command:   "config",
		Err:       err,
	}
}
