// pkg/system/user_test.go

package system

import (
	"os/user"
	"testing"

	"github.com/probitlabs/hostprep/pkg/hostprep_err"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"simple", "semaphore", false},
		{"underscore prefix", "_svc", false},
		{"digits and hyphens", "deploy-2", false},
		{"empty", "", true},
		{"uppercase", "Admin", true},
		{"leading digit", "1user", true},
		{"shell metacharacters", "user;rm", true},
		{"space", "a user", true},
		{"argument smuggling", "-oProxyCommand", true},
		{"too long", "abcdefghijklmnopqrstuvwxyzabcdefg", true},
		{"max length", "abcdefghijklmnopqrstuvwxyzabcdef", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, 2, hostprep_err.GetExitCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUserExists(t *testing.T) {
	current, err := user.Current()
	require.NoError(t, err)
	assert.True(t, UserExists(current.Username))
	assert.False(t, UserExists("no-such-user-hostprep-test"))
}

func TestLookupUser(t *testing.T) {
	current, err := user.Current()
	require.NoError(t, err)

	id, err := LookupUser(current.Username)
	require.NoError(t, err)
	assert.Equal(t, current.Username, id.Name)
	assert.Equal(t, current.Uid, id.UID)
	assert.Equal(t, current.HomeDir, id.Home)
}
