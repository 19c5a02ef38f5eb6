package shop

import (
	"errors"
	"fmt"
)

// NotFoundError reports a referenced record that does not resolve.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Kind + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// Code classifies the error for handler logs.
func (e *NotFoundError) Code() string { return "NOT_FOUND" }

// ValidationError reports user input the bot refuses to act on.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Code classifies the error for handler logs.
func (e *ValidationError) Code() string { return "VALIDATION" }

type notFounder interface{ NotFound() bool }

// IsNotFound reports whether err is a NotFoundError or a transport error that
// identifies a missing remote record (HTTP 404).
func IsNotFound(err error) bool {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return true
	}
	var r notFounder
	return errors.As(err, &r) && r.NotFound()
}

// IsValidation reports whether err is a ValidationError, optionally for the given field.
func IsValidation(err error, field string) bool {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	return field == "" || ve.Field == field
}
