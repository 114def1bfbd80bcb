// pkg/hostprep_err/classification_test.go

package hostprep_err

import (
	"context"
	"errors"
	"testing"

	cerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"unclassified", errors.New("boom"), 1},
		{"action", NewActionError(errors.New("useradd exited 1"), "creating user"), 1},
		{"download", NewDownloadError(errors.New("status 404"), "fetching key"), 1},
		{"validation", NewValidationError("bad username"), 2},
		{"config", NewConfigError(errors.New("syntax error"), "visudo rejected drop-in"), 2},
		{"verification", NewVerificationError("user missing after useradd"), 4},
		{"service", NewServiceError("maas", "status output"), 4},
		{"permission", NewPermissionError("must run as root"), 5},
		{"expected user error", NewExpectedError(context.Background(), errors.New("already installed")), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestGetExitCodeSurvivesWrapping(t *testing.T) {
	err := cerr.Wrap(NewValidationError("bad input"), "step \"user-present\"")
	assert.Equal(t, 2, GetExitCode(err))

	err = cerr.WithStack(NewPermissionError("must run as root"))
	assert.Equal(t, 5, GetExitCode(err))
}

func TestClassifiedErrorMessage(t *testing.T) {
	err := NewValidationError("key already exists at /home/u/.ssh/id_ed25519",
		"pass --force to overwrite")
	msg := err.Error()
	assert.Contains(t, msg, "key already exists")
	assert.Contains(t, msg, "How to fix:")
	assert.Contains(t, msg, "1. pass --force to overwrite")
}

func TestClassifiedErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewDownloadError(cause, "fetching key")
	assert.True(t, errors.Is(err, cause))
}

func TestServiceErrorCarriesDiagnostics(t *testing.T) {
	err := NewServiceError("maas", "Status:\ndead\nRecent logs:\noom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service maas is not active")
	assert.Contains(t, err.Error(), "systemctl status maas")
	assert.Contains(t, err.Error(), "oom")
}

func TestIsExpectedUserError(t *testing.T) {
	base := errors.New("nothing to do")
	assert.False(t, IsExpectedUserError(base))
	wrapped := NewExpectedError(context.Background(), base)
	assert.True(t, IsExpectedUserError(wrapped))
	assert.True(t, IsExpectedUserError(cerr.Wrap(wrapped, "run")))
	assert.Nil(t, NewExpectedError(context.Background(), nil))
}
