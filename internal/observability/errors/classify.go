// Package errors normalizes errors into short class names for metric labels
// and log attributes.
package errors

import (
	"context"
	goerrors "errors"
	"net"
	"reflect"
	"strings"

	apperrors "github.com/target/hr-dashboard/internal/errors"
	"github.com/target/hr-dashboard/internal/guard"
	"github.com/target/hr-dashboard/internal/hrapi"
)

// Class names for the dashboard error taxonomy.
const (
	ClassAuthMissing   = "auth_missing"
	ClassAuthRejected  = "auth_rejected"
	ClassRoleMismatch  = "role_mismatch"
	ClassRequestFailed = "request_failed"
	ClassDecodeFailed  = "decode_failed"
	ClassValidation    = "validation"
	ClassCanceled      = "canceled"
	ClassTimeout       = "timeout"
	ClassNetwork       = "network"
)

// Classify returns a normalized error class suitable for tagging metrics/logs.
// Known taxonomy errors map to fixed names; anything else falls back to the
// innermost concrete type in snake_case-ish form.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case goerrors.Is(err, guard.ErrAuthMissing):
		return ClassAuthMissing
	case goerrors.Is(err, guard.ErrRoleMismatch):
		return ClassRoleMismatch
	case goerrors.Is(err, hrapi.ErrAuthRejected):
		return ClassAuthRejected
	case goerrors.Is(err, hrapi.ErrDecodeFailed):
		return ClassDecodeFailed
	case goerrors.Is(err, hrapi.ErrRequestFailed):
		return ClassRequestFailed
	case apperrors.IsValidation(err):
		return ClassValidation
	case goerrors.Is(err, context.Canceled):
		return ClassCanceled
	case goerrors.Is(err, context.DeadlineExceeded):
		return ClassTimeout
	}

	var netErr net.Error
	if goerrors.As(err, &netErr) {
		if netErr.Timeout() {
			return ClassTimeout
		}
		return ClassNetwork
	}

	return typeName(err)
}

func typeName(err error) string {
	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(strings.ReplaceAll(t.String(), "*", ""))
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}
