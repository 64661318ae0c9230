// Package domainerrors provides coded domain errors shared across services.
//
// Stores return sentinel errors (pkg/platform/sentinel) for infrastructure
// facts; services translate those into coded errors from this package so
// transports can map them to a response without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	// CodeBadRequest covers malformed or unparsable caller input.
	CodeBadRequest Code = "bad_request"

	// CodeInvalidInput covers input that parses but violates a domain rule
	// (bad id format, out-of-range argument).
	CodeInvalidInput Code = "invalid_input"

	// CodeConfiguration marks a malformed schema or compliance configuration.
	// Fatal for the affected configuration; never retried. Surfaced to the
	// schema author, not the submitting actor.
	CodeConfiguration Code = "configuration_error"

	// CodeValidation carries a field-level validation failure list. It blocks
	// submission but is an expected outcome, not an exception.
	CodeValidation Code = "validation_error"

	// CodeGuardViolation names a failed precondition on a workflow
	// transition. The caller corrects the input and retries.
	CodeGuardViolation Code = "guard_violation"

	// CodeNotFound marks a missing assessment, indicator, or evidence record.
	CodeNotFound Code = "not_found"

	// CodeConflict marks a concurrent-modification or uniqueness conflict.
	CodeConflict Code = "conflict"

	// CodeInvariantViolation marks an illegal state mutation attempt caught
	// by a domain model.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeUnauthorized marks a missing or invalid actor identity.
	CodeUnauthorized Code = "unauthorized"

	// CodeForbidden marks an actor acting outside its scope.
	CodeForbidden Code = "forbidden"

	// CodeInternal is the fallback for unexpected failures.
	CodeInternal Code = "internal"
)

// Error is a coded domain error with an optional wrapped cause.
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

// New builds a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput, CodeValidation:
		return http.StatusBadRequest
	case CodeConfiguration:
		return http.StatusUnprocessableEntity
	case CodeGuardViolation, CodeConflict, CodeInvariantViolation:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
