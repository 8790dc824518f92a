package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	cause := errors.New("status 500")
	err := Backend("Could not save the employee", cause)

	assert.Equal(t, "Could not save the employee: status 500", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsValidation(err))

	v := Validation("end_date", "End date must not be before start date")
	assert.True(t, IsValidation(fmt.Errorf("submit: %w", v)))
	assert.Equal(t, "end_date", v.Field)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Nope", Message(fmt.Errorf("x: %w", Unavailable("Nope")), "fallback"))
	assert.Equal(t, "fallback", Message(errors.New("raw"), "fallback"))
	assert.Equal(t, "fallback", Message(nil, "fallback"))
}
