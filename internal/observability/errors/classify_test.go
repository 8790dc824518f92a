package errors

import (
	"context"
	goerrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/target/hr-dashboard/internal/errors"
	"github.com/target/hr-dashboard/internal/guard"
	"github.com/target/hr-dashboard/internal/hrapi"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"auth missing", guard.ErrAuthMissing, ClassAuthMissing},
		{"role mismatch", fmt.Errorf("page: %w", guard.ErrRoleMismatch), ClassRoleMismatch},
		{"401", &hrapi.APIError{StatusCode: 401}, ClassAuthRejected},
		{"500", fmt.Errorf("load: %w", &hrapi.APIError{StatusCode: 500}), ClassRequestFailed},
		{"decode", &hrapi.DecodeError{Err: goerrors.New("bad")}, ClassDecodeFailed},
		{"validation", apperrors.Validation("end_date", "End date must not be before start date"), ClassValidation},
		{"canceled", context.Canceled, ClassCanceled},
		{"deadline", fmt.Errorf("x: %w", context.DeadlineExceeded), ClassTimeout},
		{"other", goerrors.New("boom"), "errors_errorstring"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
