package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("load student: %w", ErrNotFound)

	got := FromError(wrapped)

	assert.Equal(t, ErrNotFound, got)
	assert.Equal(t, http.StatusNotFound, got.Status)
}

func TestFromErrorWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("boom")

	got := FromError(cause)

	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.ErrorIs(t, got, cause)
	assert.Nil(t, FromError(nil))
}

func TestCloneOverridesMessage(t *testing.T) {
	clone := Clone(ErrValidation, "month must be between 1 and 12")

	assert.Equal(t, "month must be between 1 and 12", clone.Message)
	assert.Equal(t, "validation failed", ErrValidation.Message)
	assert.Equal(t, ErrValidation.Code, clone.Code)
}

func TestWrapError(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(cause, ErrUpstreamUnavailable.Code, ErrUpstreamUnavailable.Status, ErrUpstreamUnavailable.Message)

	assert.Equal(t, "student data source unavailable: dial tcp: refused", err.Error())
	assert.ErrorIs(t, err, cause)
}
