package compiler

import (
	"errors"
	"fmt"
)

// StructuralError reports a command that cannot produce a request.
//
// Structural errors are values returned by the dispatchers; the parser
// itself never fails. Callers present Message to the user.
type StructuralError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string
}

// ErrorCode categorizes structural errors.
type ErrorCode string

const (
	// ErrCodeMissingDelimiter indicates an update without the -to delimiter.
	ErrCodeMissingDelimiter ErrorCode = "MISSING_DELIMITER"

	// ErrCodeMultipleDelimiters indicates an update with more than one -to.
	ErrCodeMultipleDelimiters ErrorCode = "MULTIPLE_DELIMITERS"

	// ErrCodeSelectionRequired indicates an update or delete that selects nothing.
	ErrCodeSelectionRequired ErrorCode = "SELECTION_REQUIRED"

	// ErrCodeUpdatesRequired indicates an update that assigns nothing.
	ErrCodeUpdatesRequired ErrorCode = "UPDATES_REQUIRED"

	// ErrCodeInputTooLong indicates a command body over the size limit.
	ErrCodeInputTooLong ErrorCode = "INPUT_TOO_LONG"

	// ErrCodeUnknownCommand indicates text that names no known command.
	ErrCodeUnknownCommand ErrorCode = "UNKNOWN_COMMAND"

	// ErrCodeInvalidConfig indicates /config values that fail validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

// Error implements the error interface.
func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsStructuralError returns true if err is or wraps a StructuralError.
func IsStructuralError(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}

// Code returns the structural error code of err, or "" when err is not a
// structural error.
func Code(err error) ErrorCode {
	var se *StructuralError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

func newStructuralError(code ErrorCode, message string, details map[string]string) *StructuralError {
	return &StructuralError{Code: code, Message: message, Details: details}
}
