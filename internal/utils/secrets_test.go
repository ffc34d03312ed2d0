package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecret(t *testing.T) {
	secret, err := GenerateSecret(32)
	require.NoError(t, err)
	assert.Len(t, secret, 64)

	other, err := GenerateSecret(32)
	require.NoError(t, err)
	assert.NotEqual(t, secret, other)
}

func TestGenerateJWTSecrets(t *testing.T) {
	access, refresh, err := GenerateJWTSecrets()
	require.NoError(t, err)
	assert.NotEqual(t, access, refresh)
}

func TestGenerateUnlockCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateUnlockCode()
		require.NoError(t, err)
		assert.NotContains(t, code, "=")
		assert.NotContains(t, code, "+")
		assert.NotContains(t, code, "/")
		assert.LessOrEqual(t, len(code), 22)
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}
