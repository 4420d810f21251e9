// Package domainerrors provides coded domain errors.
//
// Services return these so transport layers can map failures to HTTP
// statuses without string matching, and so callers can tell recoverable
// input problems apart from retryable infrastructure failures.
// Conventionally imported as dErrors.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeInvalidInput marks malformed or missing request input.
	CodeInvalidInput Code = "invalid_input"

	// CodeMalformedValue marks an identifier value that fails its
	// type-specific syntactic pattern. Recoverable: caller resubmits.
	CodeMalformedValue Code = "malformed_value"

	// CodeLookupInProgress marks a rejected lookup because one is already
	// in flight for the same identifier. Recoverable: caller retries later.
	CodeLookupInProgress Code = "lookup_in_progress"

	// CodeNoScopes marks a client creation attempt with no usable scopes.
	CodeNoScopes Code = "no_scopes"

	// CodeNotFound marks a missing record.
	CodeNotFound Code = "not_found"

	// CodeConflict marks a state conflict (duplicate, wrong state).
	CodeConflict Code = "conflict"

	// CodeUnavailable marks a transport or availability failure against an
	// external collaborator. Retryable: no state was changed.
	CodeUnavailable Code = "unavailable"

	// CodeInvariantViolation marks a broken model invariant.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeInternal marks an unexpected internal failure.
	CodeInternal Code = "internal"
)

// Error is a coded domain error, optionally wrapping a cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a coded error around a cause.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// GetCode extracts the code from err, defaulting to CodeInternal.
func GetCode(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// IsRetryable reports whether the failure is transient and worth retrying.
// Only availability failures qualify; definitive outcomes (not found,
// malformed input, conflicts) are not retryable.
func IsRetryable(err error) bool {
	return HasCode(err, CodeUnavailable)
}
