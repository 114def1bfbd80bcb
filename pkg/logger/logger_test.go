// pkg/logger/logger_test.go

package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"bogus", zapcore.InfoLevel},
		{"DEBUG", zapcore.DebugLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLogLevel(tt.in), "input %q", tt.in)
	}
}

func TestFindWritableLogPath(t *testing.T) {
	dir := t.TempDir()
	path, err := findWritablePathIn([]string{
		filepath.Join("/proc/hostprep-denied", "hostprep.log"),
		filepath.Join(dir, "hostprep.log"),
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "hostprep.log"), path)
}
