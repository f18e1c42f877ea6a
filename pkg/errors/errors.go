package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors covering the engine failure taxonomy.
var (
	ErrUnauthorized      = New("UNAUTHORIZED", http.StatusUnauthorized, "not logged in")
	ErrForbidden         = New("FORBIDDEN", http.StatusForbidden, "access denied")
	ErrNotFound          = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrValidation        = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrCurrentVersion    = New("CURRENT_VERSION_PROTECTED", http.StatusConflict, "current version cannot be deleted")
	ErrConflict          = New("CONFLICT", http.StatusConflict, "conflict")
	ErrStorage           = New("STORAGE_ERROR", http.StatusInternalServerError, "storage failure")
	ErrInternal          = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss         = New("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrExportUnavailable = New("EXPORT_UNAVAILABLE", http.StatusServiceUnavailable, "export pipeline disabled")
)

// Storage wraps a store-level failure preserving the underlying cause text
// for diagnostics. The cause is kept in the message so the caller sees the
// constraint/transport detail without unwrapping.
func Storage(err error) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err, ErrStorage.Code, ErrStorage.Status, fmt.Sprintf("storage failure: %v", err))
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
