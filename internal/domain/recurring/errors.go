package recurring

import (
	"errors"
	"fmt"
)

// Code classifies a failure so callers can render it without inspecting messages.
type Code string

const (
	CodeNotAuthenticated Code = "not_authenticated"
	CodeNotFound         Code = "not_found"
	CodeValidation       Code = "validation_error"
	CodeDuplicateName    Code = "duplicate_name"
	CodeStorage          Code = "storage_error"
)

// Error is the single error type returned across the core boundary.
type Error struct {
	Code     Code
	Resource string // not_found: "transaction", "subscription", "category"
	Field    string // validation_error: offending input field
	Message  string
	Err      error
}

func (e *Error) Error() string {
	switch e.Code {
	case CodeNotFound:
		return fmt.Sprintf("%s not found", e.Resource)
	case CodeValidation:
		return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
	case CodeStorage:
		if e.Err != nil {
			return fmt.Sprintf("storage error: %s: %v", e.Message, e.Err)
		}
		return "storage error: " + e.Message
	}
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrNotAuthenticated is returned when the context carries no caller identity.
var ErrNotAuthenticated = &Error{Code: CodeNotAuthenticated, Message: "not authenticated"}

// NotFound builds a not_found error for resource.
func NotFound(resource string) *Error {
	return &Error{Code: CodeNotFound, Resource: resource}
}

// Invalid builds a validation_error for field.
func Invalid(field, message string) *Error {
	return &Error{Code: CodeValidation, Field: field, Message: message}
}

// DuplicateName reports an existing subscription with the same name.
func DuplicateName(name string) *Error {
	return &Error{Code: CodeDuplicateName, Message: fmt.Sprintf("a subscription named %q already exists", name)}
}

// StorageFailure wraps a persistence error that is not otherwise classified.
// Already-classified errors are returned unchanged.
func StorageFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	return &Error{Code: CodeStorage, Message: op, Err: err}
}

// CodeOf returns the classification of err, or CodeStorage for foreign errors.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeStorage
}
