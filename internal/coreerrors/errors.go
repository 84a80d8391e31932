// Package coreerrors defines the typed error taxonomy the core surfaces to
// its callers. The core never swallows an error: every failure path returns
// (or wraps) one of these kinds, and the HTTP layer maps Kind to a status
// code without needing to inspect error strings.
package coreerrors

import (
	"errors"
	"fmt"
)

// Kind is a closed set of error categories a caller can switch on.
type Kind string

const (
	NotFound       Kind = "not_found"
	Conflict       Kind = "conflict"
	Validation     Kind = "validation"
	Forbidden      Kind = "forbidden"
	BrokenContract Kind = "broken_contract"
	Internal       Kind = "internal"
)

// HTTPStatus maps a Kind to the status code named in the error taxonomy.
func (k Kind) HTTPStatus() int {
	switch k {
	case NotFound:
		return 404
	case Conflict:
		return 409
	case Validation, BrokenContract:
		return 400
	case Forbidden:
		return 403
	default:
		return 500
	}
}

// Code is the machine-readable error code used in the HTTP error envelope.
func (k Kind) Code() string {
	switch k {
	case NotFound:
		return "NOT_FOUND"
	case Conflict:
		return "CONFLICT"
	case Validation:
		return "VALIDATION_ERROR"
	case BrokenContract:
		return "VALIDATION_ERROR"
	case Forbidden:
		return "FORBIDDEN"
	default:
		return "INTERNAL_ERROR"
	}
}

// Error is the core's error type. Cause is preserved for logging and %w
// unwrapping; Message is safe to surface to a caller.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	details map[string]interface{}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// ValidationDetailer surfaces structured validation details for API error
// responses. Implemented by *Error so consumers extract details without
// type-asserting against a concrete struct.
type ValidationDetailer interface {
	Details() map[string]interface{}
}

// Details surfaces structured context for API error responses.
func (e *Error) Details() map[string]interface{} { return e.details }

// WithDetails attaches structured detail fields and returns the receiver.
func (e *Error) WithDetails(d map[string]interface{}) *Error {
	e.details = d
	return e
}

func newErr(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewNotFound builds a NotFound error: a referenced entity is absent or
// soft-deleted.
func NewNotFound(format string, args ...interface{}) *Error {
	return newErr(NotFound, format, args...)
}

// NewConflict builds a Conflict error: an invariant was violated by the
// request (duplicate fqn, pending proposal already exists, version not
// increasing, stale base contract on publish).
func NewConflict(format string, args ...interface{}) *Error {
	return newErr(Conflict, format, args...)
}

// NewValidation builds a Validation error: malformed schema, version,
// compatibility mode, or payload.
func NewValidation(format string, args ...interface{}) *Error {
	return newErr(Validation, format, args...)
}

// NewForbidden builds a Forbidden error: the actor lacks scope, or the
// consumer is not in the proposal's snapshot set.
func NewForbidden(format string, args ...interface{}) *Error {
	return newErr(Forbidden, format, args...)
}

// NewBrokenContract builds a BrokenContract error: the diff/classify input
// could not be parsed (schema parse error, unresolved $ref).
func NewBrokenContract(format string, args ...interface{}) *Error {
	return newErr(BrokenContract, format, args...)
}

// Wrap tags an arbitrary error (typically from a store or adapter) as
// Internal, preserving it for %w unwrapping.
func Wrap(cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: Internal, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
