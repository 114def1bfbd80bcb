// pkg/logger/logger.go

package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.Logger

// PlatformLogPaths lists candidate log file locations in order of preference.
// The first writable one wins; running unprivileged falls through to the
// user's state directory and finally /tmp.
func PlatformLogPaths() []string {
	paths := []string{"/var/log/hostprep/hostprep.log"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".local", "state", "hostprep", "hostprep.log"))
	}
	return append(paths, filepath.Join(os.TempDir(), "hostprep.log"))
}

// FindWritableLogPath returns the first candidate path whose directory can be
// created with owner-only permissions and whose file can be opened for append.
func FindWritableLogPath() (string, error) {
	return findWritablePathIn(PlatformLogPaths())
}

func findWritablePathIn(candidates []string) (string, error) {
	var lastErr error
	for _, path := range candidates {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0700); err != nil {
			lastErr = err
			continue
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			lastErr = err
			continue
		}
		if err := f.Close(); err != nil {
			lastErr = err
			continue
		}
		return path, nil
	}
	return "", lastErr
}

// ParseLogLevel maps a LOG_LEVEL environment value to a zap level, defaulting
// to info.
func ParseLogLevel(s string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// L returns the process logger, initializing a fallback if needed.
func L() *zap.Logger {
	if log == nil {
		InitializeWithFallback()
	}
	return log
}

// Sync flushes buffered log entries. Errors from syncing terminal streams are
// expected on some platforms and can be ignored by callers.
func Sync() error {
	if log == nil {
		return nil
	}
	return log.Sync()
}
