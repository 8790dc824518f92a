// Package errors defines the structured errors shown to dashboard users.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeValidation indicates invalid form input caught before any backend call.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeBackend indicates the backend refused or failed an action.
	ErrCodeBackend ErrorCode = "backend"
	// ErrCodeUnavailable indicates the action needs data the account does not have,
	// such as an employee link.
	ErrCodeUnavailable ErrorCode = "unavailable"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is safe to show to the user
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the form field that caused the error (optional, for validation errors)
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Validation creates a validation error for field.
func Validation(field, message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Field: field}
}

// Backend wraps a failed backend call with a user-facing message.
func Backend(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeBackend, Message: message, Cause: cause}
}

// Unavailable reports an action the current account cannot perform.
func Unavailable(message string) *AppError {
	return &AppError{Code: ErrCodeUnavailable, Message: message}
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeValidation
}

// Message returns the user-facing message of the outermost AppError in err,
// or fallback when there is none.
func Message(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
