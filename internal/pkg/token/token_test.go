package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVerificationToken(t *testing.T) {
	a, err := NewVerificationToken()
	require.NoError(t, err)
	b, err := NewVerificationToken()
	require.NoError(t, err)

	assert.Len(t, a, 32) // 24 bytes, base64url without padding
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "+")
	assert.NotContains(t, a, "/")
	assert.NotContains(t, a, "=")
}

func TestNewCode(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := NewCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, c := range code {
			assert.True(t, c >= '0' && c <= '9')
		}
	}
}

func TestNewRefreshToken(t *testing.T) {
	a, err := NewRefreshToken()
	require.NoError(t, err)
	b, err := NewRefreshToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
