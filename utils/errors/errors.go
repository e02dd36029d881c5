package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError represents a custom error type for API responses
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Details string `json:"details,omitempty"`
}

// Error returns the error message
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MarshalJSON writes the error in the {success:false, message} envelope the
// dashboard client reads.
func (e *APIError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details,omitempty"`
	}{
		Success: false,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}

func NewAPIError(code, message string, status int, details ...string) *APIError {
	err := &APIError{
		Code:    code,
		Message: message,
		Status:  status,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

var (
	ErrInvalidInput       = NewAPIError("INVALID_INPUT", "Invalid request data", http.StatusBadRequest)
	ErrInvalidCoordinates = NewAPIError("INVALID_COORDINATES", "Coordinates must be valid numbers", http.StatusBadRequest)
	ErrUnauthorized       = NewAPIError("UNAUTHORIZED", "Authentication required", http.StatusUnauthorized)
	ErrNotFound           = NewAPIError("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrInternal           = NewAPIError("INTERNAL_SERVER_ERROR", "Internal server error", http.StatusInternalServerError)
	ErrConflict           = NewAPIError("CONFLICT", "Resource conflict", http.StatusConflict)
	ErrExportInProgress   = NewAPIError("EXPORT_IN_PROGRESS", "An export is already in progress", http.StatusConflict)
)

func Wrap(err error, code, message string, status int) *APIError {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr
	}
	return NewAPIError(code, message, status, err.Error())
}
