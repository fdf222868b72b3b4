package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrorKind classifies a service error so callers can map it to a response
type ErrorKind string

const (
	KindNotFound    ErrorKind = "not_found"
	KindUnsupported ErrorKind = "unsupported_operation"
	KindValidation  ErrorKind = "validation"
	KindConflict    ErrorKind = "conflict"
	KindDependency  ErrorKind = "dependency_failure"
	KindAuth        ErrorKind = "unauthorized"
	KindForbidden   ErrorKind = "forbidden"
)

// Sentinel errors, one per kind, usable with errors.Is
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrUnsupported       = &Error{Kind: KindUnsupported}
	ErrValidation        = &Error{Kind: KindValidation}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrDependencyFailure = &Error{Kind: KindDependency}
	ErrUnauthorized      = &Error{Kind: KindAuth}
	ErrForbidden         = &Error{Kind: KindForbidden}
)

// Error is the typed error returned by the service layer
type Error struct {
	Kind    ErrorKind
	Message string
	// Field names the offending input for validation errors
	Field string
	Err   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NotFound reports a missing resource
func NotFound(resource string) error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

// Unsupported reports an operation that cannot apply to the current state
func Unsupported(msg string) error {
	return &Error{Kind: KindUnsupported, Message: msg}
}

// Validation reports invalid input on a field
func Validation(field, msg string) error {
	return &Error{Kind: KindValidation, Field: field, Message: msg}
}

// Conflict reports a uniqueness violation or lost race
func Conflict(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

// DependencyFailure wraps an error from an external service
func DependencyFailure(dependency string, err error) error {
	return &Error{Kind: KindDependency, Message: dependency + " unavailable", Err: err}
}

// Unauthorized reports missing or invalid credentials
func Unauthorized(msg string) error {
	return &Error{Kind: KindAuth, Message: msg}
}

// Forbidden reports an authenticated caller lacking permission
func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// KindOf returns the kind of err, or "" when it is not a service error
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// translateDBError maps store errors to service errors
func translateDBError(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound(resource)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Kind: KindConflict, Message: resource + " already exists", Err: err}
	default:
		return err
	}
}
