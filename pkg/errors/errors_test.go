package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsIdentity(t *testing.T) {
	err := Clone(ErrValidation, "ageMin must be an integer")
	assert.Equal(t, "ageMin must be an integer", err.Message)
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.True(t, stdErrors.Is(err, ErrValidation))
	assert.False(t, stdErrors.Is(err, ErrConflict))
	assert.Equal(t, "validation failed", ErrValidation.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	cause := fmt.Errorf("boom")
	appErr := FromError(cause)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.ErrorIs(t, appErr, cause)

	wrapped := fmt.Errorf("outer: %w", Clone(ErrNotFound, "student not found"))
	assert.Equal(t, "student not found", FromError(wrapped).Message)
	assert.Nil(t, FromError(nil))
}
