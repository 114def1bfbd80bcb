// pkg/crypto/password_test.go

package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePasswordRejectsWeakStrength(t *testing.T) {
	for _, strength := range []int{0, 1, 8, 16, MinPasswordBytes - 1} {
		_, err := GeneratePassword(strength)
		assert.Error(t, err, "strength %d must be rejected", strength)
	}
}

func TestGeneratePasswordLength(t *testing.T) {
	pw, err := GeneratePassword(DefaultPasswordBytes)
	require.NoError(t, err)
	// Base64 without padding: ceil(32*8/6) characters.
	assert.Len(t, pw, 43)
}

func TestGeneratePasswordIsUnique(t *testing.T) {
	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		pw, err := GeneratePassword(MinPasswordBytes)
		require.NoError(t, err)
		require.False(t, seen[pw], "duplicate password generated")
		seen[pw] = true
	}
}

func TestSecureZero(t *testing.T) {
	b := []byte("sensitive")
	SecureZero(b)
	for i, v := range b {
		assert.Zero(t, v, "byte %d not cleared", i)
	}
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "(empty)", Redact(""))
	assert.Equal(t, "******", Redact("secret"))
	assert.NotContains(t, Redact("hunter2"), "hunter")
}
