// Package clierr defines structured error types for CLI commands.
// Errors carry a machine-readable code, a human-readable message,
// and optional details for scripts consuming --json output.
package clierr

import (
	"errors"
	"fmt"
	"strconv"
)

// Error code constants — uppercase, underscore-separated, stable across minor versions.
const (
	ConfigNotFound     = "CONFIG_NOT_FOUND"
	InvalidConfig      = "INVALID_CONFIG"
	MissingCredentials = "MISSING_CREDENTIALS"
	FetchFailed        = "FETCH_FAILED"
	InvalidInput       = "INVALID_INPUT"
	InvalidBucket      = "INVALID_BUCKET"
	InvalidSort        = "INVALID_SORT"
	ReportNotFound     = "REPORT_NOT_FOUND"
	AlreadyExists      = "ALREADY_EXISTS"
	RunInProgress      = "RUN_IN_PROGRESS"
	InternalError      = "INTERNAL_ERROR"
)

// Error represents a structured CLI error with a machine-readable code.
type Error struct {
	Code    string
	Message string
	Details map[string]any

	// cause is the wrapped error, if any (reachable via errors.Unwrap).
	cause error
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Message }

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.cause }

// New creates an Error with the given code and message.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error whose message is "msg: cause" and keeps cause
// available to errors.Is / errors.As.
func Wrap(code string, cause error, msg string) *Error {
	return &Error{Code: code, Message: msg + ": " + cause.Error(), cause: cause}
}

// WithDetails returns the error with the given details map attached.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// ExitCode returns 2 for InternalError, 1 for all others.
func (e *Error) ExitCode() int {
	if e.Code == InternalError {
		return 2 //nolint:mnd // exit code 2 for internal errors
	}
	return 1
}

// HasCode reports whether err is (or wraps) an *Error with the given code.
func HasCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// SilentError signals an exit code without additional output.
type SilentError struct {
	Code int
}

// Error implements the error interface.
func (e *SilentError) Error() string { return "exit " + strconv.Itoa(e.Code) }
