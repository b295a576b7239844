package dto

import (
	"errors"
	"net/http"

	"github.com/eshaffer321/subtrack/internal/domain/recurring"
)

// APIError represents a structured error response.
// All error responses from the API use this format for consistency.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Error codes. The domain codes are rendered unchanged.
const (
	ErrCodeNotAuthenticated = string(recurring.CodeNotAuthenticated)
	ErrCodeNotFound         = string(recurring.CodeNotFound)
	ErrCodeValidation       = string(recurring.CodeValidation)
	ErrCodeDuplicateName    = string(recurring.CodeDuplicateName)
	ErrCodeStorage          = string(recurring.CodeStorage)
	ErrCodeBadRequest       = "bad_request"
)

// NewAPIError creates a new APIError with the given code and message.
func NewAPIError(code, message string) APIError {
	return APIError{
		Code:    code,
		Message: message,
	}
}

// BadRequestError is used for malformed bodies and parameters.
func BadRequestError(message string) APIError {
	return NewAPIError(ErrCodeBadRequest, message)
}

// FromError maps err onto an HTTP status and an APIError. Storage failures
// are reported without their cause.
func FromError(err error) (int, APIError) {
	var recErr *recurring.Error
	if !errors.As(err, &recErr) {
		return http.StatusInternalServerError, NewAPIError(ErrCodeStorage, "an internal error occurred")
	}

	switch recErr.Code {
	case recurring.CodeNotAuthenticated:
		return http.StatusUnauthorized, NewAPIError(ErrCodeNotAuthenticated, recErr.Error())
	case recurring.CodeNotFound:
		return http.StatusNotFound, NewAPIError(ErrCodeNotFound, recErr.Error())
	case recurring.CodeValidation:
		apiErr := NewAPIError(ErrCodeValidation, recErr.Message)
		apiErr.Field = recErr.Field
		return http.StatusBadRequest, apiErr
	case recurring.CodeDuplicateName:
		return http.StatusConflict, NewAPIError(ErrCodeDuplicateName, recErr.Error())
	default:
		return http.StatusInternalServerError, NewAPIError(ErrCodeStorage, "an internal error occurred")
	}
}
