package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// AuthorizationError is returned when an action is not permitted for the
// caller's role or the entity's current state. Reason is user-facing.
type AuthorizationError struct {
	Reason string
}

func NewAuthorizationError(reason string) error {
	return &AuthorizationError{Reason: reason}
}

func (err AuthorizationError) Error() string {
	if err.Reason == "" {
		return "action not permitted"
	}
	return err.Reason
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
