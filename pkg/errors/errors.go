package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown  ErrorCode = "UNKNOWN"
	ErrInternal ErrorCode = "INTERNAL"

	// Preset loading errors
	ErrConfigurationNotFound ErrorCode = "CONFIGURATION_NOT_FOUND"
	ErrExplicitFileMissing   ErrorCode = "EXPLICIT_FILE_MISSING"
	ErrEvaluation            ErrorCode = "EVALUATION"
	ErrResolve               ErrorCode = "RESOLVE"

	// Action errors
	ErrActionInvalid ErrorCode = "ACTION_INVALID"
	ErrActionExecute ErrorCode = "ACTION_EXECUTE"

	// FileSystem errors
	ErrFileAccess ErrorCode = "FILE_ACCESS"
	ErrFileWrite  ErrorCode = "FILE_WRITE"
)

// PresetError represents a structured error with code, an optional
// diagnostic trace, and halt classification
type PresetError struct {
	Code    ErrorCode
	Message string
	Trace   string
	Wrapped error
}

// Error implements the error interface
func (e *PresetError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *PresetError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *PresetError) Is(target error) bool {
	var targetErr *PresetError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// Halts reports whether this error aborts the whole run. Every fatal
// code halts; there is no retry anywhere in the pipeline.
func (e *PresetError) Halts() bool {
	return true
}

// WithTrace attaches a full diagnostic trace (e.g. a sandbox stack trace)
func (e *PresetError) WithTrace(trace string) *PresetError {
	e.Trace = trace
	return e
}

// New creates a new PresetError with the given code and message
func New(code ErrorCode, message string) *PresetError {
	return &PresetError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new PresetError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *PresetError {
	return &PresetError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with a PresetError
func Wrap(err error, code ErrorCode, message string) *PresetError {
	if err == nil {
		return nil
	}
	return &PresetError{
		Code:    code,
		Message: message,
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *PresetError {
	if err == nil {
		return nil
	}
	return &PresetError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Wrapped: err,
	}
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var presetErr *PresetError
	if errors.As(err, &presetErr) {
		return presetErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a PresetError
func GetErrorCode(err error) ErrorCode {
	var presetErr *PresetError
	if errors.As(err, &presetErr) {
		return presetErr.Code
	}
	return ErrUnknown
}

// GetTrace returns the diagnostic trace carried by an error, if any
func GetTrace(err error) string {
	var presetErr *PresetError
	if errors.As(err, &presetErr) {
		return presetErr.Trace
	}
	return ""
}
