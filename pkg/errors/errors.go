// Package errors provides structured error types for the skramble engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and HTTP surfaces
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Each code corresponds to one failure class of a render run. Every code
// except INVALID_INPUT aborts the run and produces exactly one error
// notification to the postback target.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "missing skribble id")
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Rejected before any remote call
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeRemoteFetch, origErr, "failed to fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for the failure classes of a render run.
const (
	// ErrCodeInvalidInput marks missing or malformed run parameters.
	// Runs failing input validation make no remote calls and send no
	// notification.
	ErrCodeInvalidInput Code = "INVALID_INPUT"

	// ErrCodeRemoteFetch marks a failed specification, metadata, or media
	// request: transport error, non-success status, or empty body.
	ErrCodeRemoteFetch Code = "REMOTE_FETCH"

	// ErrCodeIntegrity marks media whose digest or content type does not
	// match the declared metadata. The data is untrusted and never rendered.
	ErrCodeIntegrity Code = "INTEGRITY"

	// ErrCodeProcessing marks an asset that reached the transform stage
	// without a decoded pixel buffer.
	ErrCodeProcessing Code = "PROCESSING"

	// ErrCodeCollision marks a layout where non-overlappable assets
	// intersect.
	ErrCodeCollision Code = "LAYOUT_COLLISION"

	// ErrCodeUpload marks a failed composite upload.
	ErrCodeUpload Code = "UPLOAD"

	// ErrCodeInternal marks unexpected internal failures.
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
