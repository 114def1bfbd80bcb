// pkg/sshkey/keygen_test.go

package sshkey

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/probitlabs/hostprep/pkg/hostprep_err"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func TestKeypairOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    KeypairOptions
		wantErr bool
	}{
		{"ed25519", KeypairOptions{Algorithm: AlgorithmEd25519, PrivatePath: "/tmp/k"}, false},
		{"rsa default bits", KeypairOptions{Algorithm: AlgorithmRSA, PrivatePath: "/tmp/k"}, false},
		{"rsa 2048", KeypairOptions{Algorithm: AlgorithmRSA, Bits: 2048, PrivatePath: "/tmp/k"}, false},
		{"rsa too small", KeypairOptions{Algorithm: AlgorithmRSA, Bits: 1024, PrivatePath: "/tmp/k"}, true},
		{"no algorithm", KeypairOptions{PrivatePath: "/tmp/k"}, true},
		{"unknown algorithm", KeypairOptions{Algorithm: "dsa", PrivatePath: "/tmp/k"}, true},
		{"no path", KeypairOptions{Algorithm: AlgorithmEd25519}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultKeyPath(t *testing.T) {
	assert.Equal(t, "/home/semaphore/.ssh/id_ed25519",
		DefaultKeyPath("/home/semaphore", AlgorithmEd25519))
	assert.Equal(t, "/home/semaphore/.ssh/id_rsa",
		DefaultKeyPath("/home/semaphore", AlgorithmRSA))
}

func TestGenerateKeypairEd25519(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id_ed25519")
	opts := KeypairOptions{
		Algorithm:   AlgorithmEd25519,
		Comment:     "semaphore@host",
		PrivatePath: path,
	}
	require.NoError(t, GenerateKeypair(context.Background(), opts))

	privInfo, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), privInfo.Mode().Perm())

	pubInfo, err := os.Stat(path + ".pub")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), pubInfo.Mode().Perm())

	priv, err := os.ReadFile(path)
	require.NoError(t, err)
	signer, err := ssh.ParsePrivateKey(priv)
	require.NoError(t, err)
	assert.Equal(t, "ssh-ed25519", signer.PublicKey().Type())

	pubLine, err := os.ReadFile(path + ".pub")
	require.NoError(t, err)
	pub, comment, _, _, err := ssh.ParseAuthorizedKey(pubLine)
	require.NoError(t, err)
	assert.Equal(t, "ssh-ed25519", pub.Type())
	assert.Equal(t, "semaphore@host", comment)
	assert.True(t, strings.HasSuffix(string(pubLine), "\n"))
}

func TestGenerateKeypairRefusesToOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id_ed25519")
	opts := KeypairOptions{Algorithm: AlgorithmEd25519, PrivatePath: path}
	require.NoError(t, GenerateKeypair(context.Background(), opts))

	original, err := os.ReadFile(path)
	require.NoError(t, err)

	err = GenerateKeypair(context.Background(), opts)
	require.Error(t, err)
	assert.Equal(t, 2, hostprep_err.GetExitCode(err))
	assert.Contains(t, err.Error(), "--force")

	after, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, original, after, "existing key must be untouched")
}

func TestGenerateKeypairForceOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id_ed25519")
	opts := KeypairOptions{Algorithm: AlgorithmEd25519, PrivatePath: path}
	require.NoError(t, GenerateKeypair(context.Background(), opts))

	original, err := os.ReadFile(path)
	require.NoError(t, err)

	opts.Force = true
	require.NoError(t, GenerateKeypair(context.Background(), opts))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, original, after, "force must generate a fresh key")
}

func TestGenerateKeypairDetectsOrphanPublicKey(t *testing.T) {
	// A leftover .pub with no private half still blocks generation, the pair
	// is treated as existing.
	path := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(path+".pub", []byte("ssh-ed25519 AAAA old\n"), 0644))

	err := GenerateKeypair(context.Background(), KeypairOptions{
		Algorithm:   AlgorithmEd25519,
		PrivatePath: path,
	})
	require.Error(t, err)
	assert.Equal(t, 2, hostprep_err.GetExitCode(err))
}
