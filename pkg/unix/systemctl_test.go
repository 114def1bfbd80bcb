// pkg/unix/systemctl_test.go

package unix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpretIsActiveExit(t *testing.T) {
	tests := []struct {
		code int
		want ServiceState
	}{
		{ExitSuccess, StateActive},
		{ExitInactive, StateInactive},
		{ExitNotLoaded, StateInactive},
		{ExitGenericFail, StateUnknown},
		{ExitUnknown, StateUnknown},
		{42, StateUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InterpretIsActiveExit(tt.code), "exit code %d", tt.code)
	}
}

func TestDiagnosticsString(t *testing.T) {
	d := Diagnostics{
		StatusOutput:  "maas.service - down",
		JournalOutput: "oom-killed",
	}
	s := d.String()
	assert.Contains(t, s, "maas.service - down")
	assert.Contains(t, s, "oom-killed")
}
