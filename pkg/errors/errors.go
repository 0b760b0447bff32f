// Package errors provides structured error types for git-graph.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the pipeline and the CLI
//   - Machine-readable error codes mapped to CLI exit codes
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Usage
//
//	err := errors.New(errors.ErrCodeBadArgument, "invalid style %q", name)
//	if errors.Is(err, errors.ErrCodeBadArgument) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeGitAccess, origErr, "read object %s", oid)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code, one per failure kind the
// pipeline can report.
type Code string

// Error codes, one per failure kind.
const (
	// ErrCodeInvalidModel covers regex compile failures and schema
	// violations when loading a branching model.
	ErrCodeInvalidModel Code = "INVALID_MODEL"

	// ErrCodeRepositoryNotFound means the given path has no enclosing
	// Git repository.
	ErrCodeRepositoryNotFound Code = "REPOSITORY_NOT_FOUND"

	// ErrCodeGitAccess covers underlying object-store failures: a corrupt
	// ref, a missing object, a malformed commit.
	ErrCodeGitAccess Code = "GIT_ACCESS"

	// ErrCodeBadFormatSpec covers unknown placeholders or unterminated
	// modifiers in a commit format spec.
	ErrCodeBadFormatSpec Code = "BAD_FORMAT_SPEC"

	// ErrCodeBadArgument covers CLI flag validation failures.
	ErrCodeBadArgument Code = "BAD_ARGUMENT"

	// ErrCodeRender covers output-stream failures during rendering.
	ErrCodeRender Code = "RENDER_ERROR"

	// ErrCodeInternal is for unexpected failures that don't fit any of
	// the above, e.g. cache corruption.
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// ExitCode maps an error code to the process exit code: 1 usage error,
// 2 repository not found, 3 model load failure, 4 other I/O error.
func ExitCode(code Code) int {
	switch code {
	case ErrCodeBadArgument, ErrCodeBadFormatSpec:
		return 1
	case ErrCodeRepositoryNotFound:
		return 2
	case ErrCodeInvalidModel:
		return 3
	default:
		return 4
	}
}

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
