// Package apperr defines the error kinds surfaced to callers of the identity
// and report services.
package apperr

import "errors"

// Error kinds. Concrete errors unwrap to exactly one of these.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidReference = errors.New("invalid reference")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrValidation       = errors.New("validation failed")
)

// Error is a caller-visible failure with a textual reason.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Unwrap returns the error kind so errors.Is works against the sentinels.
func (e *Error) Unwrap() error { return e.kind }

func NotFound(msg string) error         { return &Error{kind: ErrNotFound, msg: msg} }
func Conflict(msg string) error         { return &Error{kind: ErrConflict, msg: msg} }
func InvalidReference(msg string) error { return &Error{kind: ErrInvalidReference, msg: msg} }
func Unauthorized(msg string) error     { return &Error{kind: ErrUnauthorized, msg: msg} }
func Validation(msg string) error       { return &Error{kind: ErrValidation, msg: msg} }

// Message returns the caller-facing reason carried by err, or "" when err is
// not an *Error.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.msg
	}
	return ""
}
