package derrors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "acredita/pkg/domain-errors"
)

func TestNewAndNewf(t *testing.T) {
	err := dErrors.New(dErrors.CodeNotFound, "attendee not found")
	assert.Equal(t, "attendee not found", err.Error())
	assert.Equal(t, dErrors.CodeNotFound, dErrors.GetCode(err))

	err = dErrors.Newf(dErrors.CodeInvalidInput, "bad value %d", 42)
	assert.Equal(t, "bad value 42", err.Error())
	assert.Equal(t, dErrors.CodeInvalidInput, dErrors.GetCode(err))
}

func TestWrap(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		assert.NoError(t, dErrors.Wrap(nil, dErrors.CodeUnavailable, "store call failed"))
	})

	t.Run("preserves the cause chain", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := dErrors.Wrap(cause, dErrors.CodeUnavailable, "store call failed")

		require.Error(t, err)
		assert.Equal(t, "store call failed: connection refused", err.Error())
		assert.ErrorIs(t, err, cause)
	})

	t.Run("message excludes the cause", func(t *testing.T) {
		err := dErrors.Wrap(errors.New("secret detail"), dErrors.CodeUnavailable, "store call failed")

		var de *dErrors.Error
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "store call failed", de.Message())
	})
}

func TestHasCode(t *testing.T) {
	t.Run("finds the outermost code", func(t *testing.T) {
		err := dErrors.New(dErrors.CodeConflict, "write lost a race")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
		assert.False(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("walks nested coded errors", func(t *testing.T) {
		inner := dErrors.New(dErrors.CodeNotFound, "row missing")
		outer := dErrors.Wrap(inner, dErrors.CodeUnavailable, "store call failed")

		assert.True(t, dErrors.HasCode(outer, dErrors.CodeUnavailable))
		assert.True(t, dErrors.HasCode(outer, dErrors.CodeNotFound))
		assert.False(t, dErrors.HasCode(outer, dErrors.CodeConflict))
	})

	t.Run("walks through fmt wrapping", func(t *testing.T) {
		inner := dErrors.New(dErrors.CodeInvariantViolation, "counter out of range")
		wrapped := fmt.Errorf("reserve: %w", inner)

		assert.True(t, dErrors.HasCode(wrapped, dErrors.CodeInvariantViolation))
	})

	t.Run("uncoded errors match nothing", func(t *testing.T) {
		assert.False(t, dErrors.HasCode(errors.New("plain"), dErrors.CodeInternal))
		assert.False(t, dErrors.HasCode(nil, dErrors.CodeInternal))
	})
}

func TestGetCode(t *testing.T) {
	t.Run("returns the outermost code", func(t *testing.T) {
		inner := dErrors.New(dErrors.CodeNotFound, "row missing")
		outer := dErrors.Wrap(inner, dErrors.CodeUnavailable, "store call failed")
		assert.Equal(t, dErrors.CodeUnavailable, dErrors.GetCode(outer))
	})

	t.Run("defaults to internal for uncoded errors", func(t *testing.T) {
		assert.Equal(t, dErrors.CodeInternal, dErrors.GetCode(errors.New("plain")))
	})
}
