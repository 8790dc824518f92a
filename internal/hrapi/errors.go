package hrapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error classes for failed backend calls. Match them with errors.Is.
var (
	// ErrAuthRejected matches 401 and 403 responses.
	ErrAuthRejected = errors.New("hrapi: authentication rejected")
	// ErrRequestFailed matches any other non-2xx response.
	ErrRequestFailed = errors.New("hrapi: request failed")
	// ErrDecodeFailed matches a 2xx response whose body is not the expected JSON.
	ErrDecodeFailed = errors.New("hrapi: decode failed")
)

// APIError is a non-2xx response. RawBody is the response text as received.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	RawBody    string
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.RawBody)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Method == "" {
		return fmt.Sprintf("hrapi: status %d: %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("hrapi: %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, msg)
}

// Is maps the status code onto ErrAuthRejected or ErrRequestFailed.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrAuthRejected:
		return e.AuthRejected()
	case ErrRequestFailed:
		return !e.AuthRejected()
	default:
		return false
	}
}

// AuthRejected reports whether the backend refused the credentials.
func (e *APIError) AuthRejected() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// Detail extracts the FastAPI-style {"detail": "..."} message when present and
// otherwise returns the raw body.
func (e *APIError) Detail() string {
	if d := detailFromBody(e.RawBody); d != "" {
		return d
	}
	return strings.TrimSpace(e.RawBody)
}

// DecodeError is a successful response whose body could not be decoded.
type DecodeError struct {
	Method     string
	Path       string
	StatusCode int
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("hrapi: %s %s: decode %d response: %v", e.Method, e.Path, e.StatusCode, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is matches ErrDecodeFailed.
func (e *DecodeError) Is(target error) bool { return target == ErrDecodeFailed }

// IsAuthRejected is a shorthand for errors.Is(err, ErrAuthRejected).
func IsAuthRejected(err error) bool { return errors.Is(err, ErrAuthRejected) }

// StatusCode returns the backend status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
