package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an application error for propagation to callers.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindForbidden    ErrorKind = "forbidden"
	KindUnauthorized ErrorKind = "unauthorized"
	KindConflict     ErrorKind = "conflict"
	KindValidation   ErrorKind = "validation"
	// KindInvalidState covers operations attempted against a booking whose lifecycle
	// stage does not permit them (already finalized, not yet finalized, already completed).
	KindInvalidState ErrorKind = "invalid_state"
	KindUnavailable  ErrorKind = "unavailable"
)

// AppError is a typed failure returned across the workflow boundary.
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *AppError) Unwrap() error { return e.Err }

// Is reports whether target is an AppError carrying the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok || t.Code == "" {
		return false
	}
	return t.Code == e.Code
}

// New creates an AppError with an explicit code.
func New(kind ErrorKind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message}
}

// NewNotFoundError creates a not-found error for the given entity and identifier.
func NewNotFoundError(entity, id string) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Code:    "not_found",
		Message: fmt.Sprintf("%s not found: %s", entity, id),
	}
}

// NewValidationError creates an error for malformed or unsupported input.
func NewValidationError(message string) *AppError {
	return &AppError{Kind: KindValidation, Code: "validation", Message: message}
}

// NewForbiddenError creates an error for callers acting on resources they do not own.
func NewForbiddenError(message string) *AppError {
	return &AppError{Kind: KindForbidden, Code: "forbidden", Message: message}
}

// NewUnauthorizedError creates an error for missing or invalid credentials.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Code: "unauthorized", Message: message}
}

// NewConflictError creates an error for concurrent modification or state conflicts.
func NewConflictError(message string) *AppError {
	return &AppError{Kind: KindConflict, Code: "conflict", Message: message}
}

// NewInvalidStateError creates an error for a disallowed lifecycle transition.
func NewInvalidStateError(from, to string) *AppError {
	return &AppError{
		Kind:    KindInvalidState,
		Code:    "invalid_transition",
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

// NewUnavailableError wraps an unexpected store or broker failure.
func NewUnavailableError(message string, err error) *AppError {
	return &AppError{Kind: KindUnavailable, Code: "unavailable", Message: message, Err: err}
}

// KindOf returns the kind of err, or KindUnavailable for untyped errors.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnavailable
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}
