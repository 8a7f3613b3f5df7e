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

// NewFieldError is a shortcut for a ValidationError on a single field.
func NewFieldError(field, msg string) error {
	return &ValidationError{Err: errors.New(msg), Fields: []FieldError{{Field: field, Error: msg}}}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// NotFoundError is returned by repositories when a lookup matches nothing.
type NotFoundError struct {
	message string
}

func NewNotFoundError(msg string) error {
	return &NotFoundError{message: msg}
}

func (err NotFoundError) Error() string {
	return err.message
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
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
