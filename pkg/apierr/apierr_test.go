package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromStatusClassification(t *testing.T) {
	cases := []struct {
		status int
		kind   Kind
	}{
		{http.StatusUnauthorized, KindUnauthorized},
		{http.StatusForbidden, KindForbidden},
		{http.StatusNotFound, KindNotFound},
		{http.StatusConflict, KindConflict},
		{http.StatusBadRequest, KindValidation},
		{http.StatusUnprocessableEntity, KindValidation},
		{http.StatusInternalServerError, KindServer},
		{http.StatusBadGateway, KindServer},
		{http.StatusTeapot, KindUnknown},
	}
	for _, tc := range cases {
		err := FromStatus(tc.status, "boom")
		assert.Equal(t, tc.kind, err.Kind, "status %d", tc.status)
		assert.Equal(t, tc.status, err.Status)
		assert.Equal(t, "boom", err.Message)
	}
}

func TestFromStatusFallsBackToStatusText(t *testing.T) {
	err := FromStatus(http.StatusNotFound, "")
	assert.Equal(t, http.StatusText(http.StatusNotFound), err.Message)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, KindNetwork, 0, "cannot reach server")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "cannot reach server")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestKindOfThroughWrapping(t *testing.T) {
	inner := New(KindConflict, http.StatusConflict, "already resolved")
	wrapped := fmt.Errorf("validate stage: %w", inner)
	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindConflict))
	assert.False(t, Is(wrapped, KindServer))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("whatever")))
}

func TestCloneOverridesMessageOnly(t *testing.T) {
	clone := Clone(ErrValidation, "end date must be after start date")
	require.NotNil(t, clone)
	assert.Equal(t, KindValidation, clone.Kind)
	assert.Equal(t, "end date must be after start date", clone.Message)
	assert.Equal(t, "validation failed", ErrValidation.Message)
}

func TestFromErrorNormalises(t *testing.T) {
	assert.Nil(t, FromError(nil))

	typed := New(KindNotFound, http.StatusNotFound, "missing")
	assert.Same(t, typed, FromError(typed))

	plain := FromError(errors.New("oops"))
	assert.Equal(t, KindUnknown, plain.Kind)
	assert.Equal(t, "oops", plain.Message)
}
