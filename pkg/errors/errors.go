// Package errors provides structured error types for rewind.
//
// Every failure that crosses a package boundary carries a [Code] so the CLI
// can decide whether it is fatal for the whole run or only for one crate:
//   - GRAPH_READ: the lockfile could not be loaded or parsed (fatal)
//   - INVALID_*: bad user input such as an unparsable date (fatal)
//   - REGISTRY_FETCH: one crate's version list could not be fetched (per crate)
//   - NO_QUALIFYING_VERSION: nothing was published before the cutoff (per crate)
//   - APPLY_FAILED: cargo refused a pin (per crate)
//   - NOT_FOUND, NETWORK_ERROR, RATE_LIMITED, INTERNAL_ERROR: the cause
//     inside a REGISTRY_FETCH failure
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidDate, "unrecognised date %q", s)
//	if errors.Is(err, errors.ErrCodeInvalidDate) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeGraphRead, origErr, "read %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidPackage Code = "INVALID_PACKAGE"
	ErrCodeInvalidDate    Code = "INVALID_DATE"

	// Run-level failures
	ErrCodeGraphRead Code = "GRAPH_READ"
	ErrCodeGitDate   Code = "GIT_DATE"

	// Per-crate failures
	ErrCodeRegistryFetch       Code = "REGISTRY_FETCH"
	ErrCodeNoQualifyingVersion Code = "NO_QUALIFYING_VERSION"
	ErrCodeApply               Code = "APPLY_FAILED"

	// Network errors
	ErrCodeNotFound    Code = "NOT_FOUND"
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	// Internal errors
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

// Has reports whether any *Error in err's chain carries code. Unlike [Is],
// it looks past the outermost coded error, e.g. for the transport cause
// inside a REGISTRY_FETCH failure.
func Has(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
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
// For *Error types, returns the message (plus the cause, if any) without
// code prefixes. For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s", e.Message, UserMessage(e.Cause))
		}
		return e.Message
	}
	return err.Error()
}

// Fatal reports whether err should abort the whole run.
// Per-crate failures are not fatal; everything else is.
func Fatal(err error) bool {
	if err == nil {
		return false
	}
	switch GetCode(err) {
	case ErrCodeRegistryFetch, ErrCodeNoQualifyingVersion, ErrCodeApply:
		return false
	}
	return true
}

// RateLimitedError provides additional information for rate-limited responses.
type RateLimitedError struct {
	RetryAfter int // Seconds to wait before retrying
	Message    string
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
	}
	return "rate limited"
}
