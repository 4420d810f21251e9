package registry

import (
	"errors"
	"fmt"
)

// ErrorCategory is the normalized failure taxonomy for registry lookups.
type ErrorCategory string

const (
	// ErrorNotFound: the registry answered and the identifier does not
	// exist there. Definitive.
	ErrorNotFound ErrorCategory = "not_found"

	// ErrorTimeout: the registry took too long to respond.
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorOutage: the registry is unreachable or returned a 5xx.
	ErrorOutage ErrorCategory = "outage"

	// ErrorRateLimited: too many requests against the registry.
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorBadData: the registry returned a payload that failed to
	// normalize. Definitive until the adapter is fixed.
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorInternal: unexpected adapter failure.
	ErrorInternal ErrorCategory = "internal"
)

// LookupError wraps registry failures with normalized categorization so the
// verification engine can tell definitive outcomes from retryable ones.
type LookupError struct {
	Category   ErrorCategory
	Source     Source
	Message    string
	Underlying error
	Retryable  bool
}

func (e *LookupError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("registry %s [%s]: %s: %v", e.Source, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("registry %s [%s]: %s", e.Source, e.Category, e.Message)
}

func (e *LookupError) Unwrap() error { return e.Underlying }

// NewLookupError creates a categorized lookup error. The retryable flag is
// derived from the category: only transport-level failures qualify.
func NewLookupError(category ErrorCategory, source Source, message string, underlying error) *LookupError {
	retryable := category == ErrorTimeout ||
		category == ErrorOutage ||
		category == ErrorRateLimited

	return &LookupError{
		Category:   category,
		Source:     source,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// IsNotFound reports whether err is a definitive not-found answer.
func IsNotFound(err error) bool {
	var le *LookupError
	return errors.As(err, &le) && le.Category == ErrorNotFound
}

// IsRetryable reports whether err is a transient transport failure.
func IsRetryable(err error) bool {
	var le *LookupError
	return errors.As(err, &le) && le.Retryable
}

// Category extracts the category from err, defaulting to ErrorInternal.
func Category(err error) ErrorCategory {
	var le *LookupError
	if errors.As(err, &le) {
		return le.Category
	}
	return ErrorInternal
}
