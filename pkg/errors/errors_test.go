package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOfWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("loading inquiry: %w", NotFound("inquiry"))

	assert.Equal(t, ErrCodeNotFound, CodeOf(wrapped))
	assert.False(t, IsValidation(wrapped))
	assert.Equal(t, ErrCodeInternalError, CodeOf(fmt.Errorf("plain")))
}

func TestValidationCarriesDetails(t *testing.T) {
	err := Validation("invalid inquiry", FieldError{Field: "email", Message: "bad"})

	appErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeValidation, appErr.Code)
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, "email", appErr.Details[0].Field)
}

func TestInternalUnwraps(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Internal("failed to save", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
}
