// pkg/secrets/secret_test.go

package secrets

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretStringRedacts(t *testing.T) {
	s := NewSecret(KindPassword, Source{Kind: SourceProvided}, []byte("hunter2"))
	rendered := fmt.Sprintf("%v %s", s, s)
	assert.NotContains(t, rendered, "hunter2")
	assert.Contains(t, rendered, "password:")
}

func TestSecretZero(t *testing.T) {
	s := NewSecret(KindPassword, Source{Kind: SourceProvided}, []byte("hunter2"))
	require.False(t, s.IsEmpty())
	s.Zero()
	assert.True(t, s.IsEmpty())
	assert.Empty(t, s.Reveal())
}

func TestGeneratePasswordSecret(t *testing.T) {
	s, err := GeneratePassword(0)
	require.NoError(t, err)
	assert.Equal(t, KindPassword, s.Kind)
	assert.Equal(t, SourceGenerated, s.Source.Kind)
	assert.False(t, s.IsEmpty())
	assert.NotContains(t, s.String(), s.Reveal())
}
