package service

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrValidation  = errors.New("validation error")
	ErrConflict    = errors.New("conflict")
	ErrAuth        = errors.New("authentication required")
	ErrForbidden   = errors.New("forbidden")
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence error")
)

// Error is a classified failure. Message is safe to show to clients; Err is
// the underlying cause, if any.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func validationError(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func conflictError(msg string) error {
	return &Error{Kind: ErrConflict, Message: msg}
}

func authError(msg string) error {
	return &Error{Kind: ErrAuth, Message: msg}
}

func notFoundError(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func forbiddenError(msg string) error {
	return &Error{Kind: ErrForbidden, Message: msg}
}

func persistenceError(msg string, err error) error {
	return &Error{Kind: ErrPersistence, Message: msg, Err: err}
}

// Message returns the client-facing message of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// classified passes through errors that already carry a kind and wraps
// everything else as a persistence failure.
func classified(msg string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return persistenceError(msg, err)
}
