// pkg/system/sudoers.go

package system

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/probitlabs/hostprep/pkg/execute"
	"github.com/probitlabs/hostprep/pkg/hostprep_err"
	"github.com/probitlabs/hostprep/pkg/telemetry"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// SudoersDropinPath returns the conventional drop-in path for a user.
func SudoersDropinPath(username string) string {
	return fmt.Sprintf("/etc/sudoers.d/99-%s-nopasswd", username)
}

// SudoersEntry renders the passwordless rule for a user.
func SudoersEntry(username string) string {
	return fmt.Sprintf("%s ALL=(ALL) NOPASSWD:ALL\n", username)
}

// EnsureSudoersDropin writes a NOPASSWD rule for the user at path with mode
// 0440 and validates it with visudo before accepting it. A drop-in that
// visudo rejects is removed again, so a syntax error can never leave a
// partial privilege grant behind. No-op when the file already carries the
// exact rule.
func EnsureSudoersDropin(ctx context.Context, username, path string) error {
	logger := otelzap.Ctx(ctx)

	ctx, span := telemetry.Start(ctx, "system.EnsureSudoersDropin")
	defer span.End()

	if err := ValidateUsername(username); err != nil {
		return err
	}
	if path == "" {
		path = SudoersDropinPath(username)
	}
	entry := SudoersEntry(username)

	if existing, err := os.ReadFile(path); err == nil && string(existing) == entry {
		logger.Info("Sudoers drop-in already present", zap.String("path", path))
		if err := os.Chmod(path, 0440); err != nil {
			return hostprep_err.NewActionError(err, "enforcing sudoers drop-in mode")
		}
		return nil
	}

	logger.Info("Writing sudoers drop-in",
		zap.String("username", username),
		zap.String("path", path))
	if err := os.WriteFile(path, []byte(entry), 0440); err != nil {
		return hostprep_err.NewActionError(err, "writing sudoers drop-in "+path)
	}
	if err := os.Chmod(path, 0440); err != nil {
		return hostprep_err.NewActionError(err, "setting sudoers drop-in mode")
	}

	out, err := execute.Run(ctx, execute.Options{
		Command: "visudo",
		Args:    []string{"-c", "-f", path},
		Capture: true,
	})
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			logger.Error("Failed to remove rejected sudoers drop-in",
				zap.String("path", path),
				zap.Error(rmErr))
		}
		return hostprep_err.NewConfigError(err,
			"visudo rejected drop-in for "+username+": "+strings.TrimSpace(out),
			"the rejected file has been removed")
	}

	logger.Info("Sudoers drop-in validated", zap.String("path", path))
	return nil
}

// SudoersDropinValid reports whether path exists, holds the exact expected
// rule, and has mode 0440.
func SudoersDropinValid(username, path string) bool {
	if path == "" {
		path = SudoersDropinPath(username)
	}
	info, err := os.Stat(path)
	if err != nil || info.Mode().Perm() != 0440 {
		return false
	}
	content, err := os.ReadFile(path)
	return err == nil && string(content) == SudoersEntry(username)
}
