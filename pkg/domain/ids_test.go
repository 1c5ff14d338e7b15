package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "acredita/pkg/domain"
	dErrors "acredita/pkg/domain-errors"
)

func TestParseDNI(t *testing.T) {
	t.Run("accepts eight digits", func(t *testing.T) {
		dni, err := id.ParseDNI("60214180")
		require.NoError(t, err)
		assert.Equal(t, "60214180", dni.String())
		assert.False(t, dni.IsZero())
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		dni, err := id.ParseDNI("  60214180 ")
		require.NoError(t, err)
		assert.Equal(t, "60214180", dni.String())
	})

	t.Run("rejects empty input with validation code", func(t *testing.T) {
		_, err := id.ParseDNI("   ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		for _, raw := range []string{"1234567", "123456789"} {
			_, err := id.ParseDNI(raw)
			require.Error(t, err, raw)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), raw)
		}
	})

	t.Run("rejects non-digit characters", func(t *testing.T) {
		for _, raw := range []string{"6021418a", "60-21418", "6021418 "} {
			_, err := id.ParseDNI(raw)
			require.Error(t, err, raw)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), raw)
		}
	})
}

func TestParseSessionID(t *testing.T) {
	t.Run("accepts a plain identifier", func(t *testing.T) {
		sid, err := id.ParseSessionID("sesion_1")
		require.NoError(t, err)
		assert.Equal(t, "sesion_1", sid.String())
		assert.False(t, sid.IsZero())
	})

	t.Run("rejects empty input with validation code", func(t *testing.T) {
		_, err := id.ParseSessionID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects identifiers over 64 characters", func(t *testing.T) {
		long := make([]byte, 65)
		for i := range long {
			long[i] = 'a'
		}
		_, err := id.ParseSessionID(string(long))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
