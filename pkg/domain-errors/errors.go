// Package derrors provides coded domain errors. Services attach a Code when
// creating or wrapping errors; transports map codes to status codes and
// decide whether the message is safe to expose.
package derrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for propagation policy and transport mapping.
type Code string

const (
	// CodeValidation marks a missing or empty required field.
	CodeValidation Code = "validation"
	// CodeInvalidInput marks a present but malformed field.
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest marks a request the caller must fix before retrying.
	CodeBadRequest Code = "bad_request"
	// CodeNotFound marks a missing entity.
	CodeNotFound Code = "not_found"
	// CodeConflict marks an optimistic write that lost a race.
	CodeConflict Code = "conflict"
	// CodeUnavailable marks a transient infrastructure failure; the caller
	// may retry the whole operation.
	CodeUnavailable Code = "unavailable"
	// CodeInternal marks an unexpected failure; details stay server-side.
	CodeInternal Code = "internal_error"
	// CodeInvariantViolation marks a broken invariant that must never occur
	// in a healthy system. Never swallowed, never silently corrected.
	CodeInvariantViolation Code = "invariant_violation"
)

// Error is a coded domain error.
type Error struct {
	code    Code
	message string
	cause   error
}

// New creates a coded error with a message.
func New(code Code, message string) error {
	return &Error{code: code, message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. A nil err
// returns nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{code: code, message: message, cause: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

// Unwrap exposes the cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.cause }

// Code returns the error's classification.
func (e *Error) Code() Code { return e.code }

// Message returns the caller-facing message without the cause chain.
func (e *Error) Message() string { return e.message }

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.code == code {
			return true
		}
		err = de.cause
	}
	return false
}

// GetCode returns the outermost code in the chain, or CodeInternal when the
// error carries no classification.
func GetCode(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.code
	}
	return CodeInternal
}
