// pkg/system/packages.go

package system

import (
	"context"
	"strings"
	"time"

	"github.com/probitlabs/hostprep/pkg/execute"
	"github.com/probitlabs/hostprep/pkg/hostprep_err"
	"github.com/probitlabs/hostprep/pkg/platform"
	"github.com/probitlabs/hostprep/pkg/telemetry"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// packageInstallTimeout bounds a package manager invocation. Lock contention
// and slow mirrors make the default 30s far too tight.
const packageInstallTimeout = 10 * time.Minute

// EnsurePackages installs any missing packages with the host's package
// manager. "Already installed" is simply success; the package manager's own
// idempotency is trusted.
func EnsurePackages(ctx context.Context, facts platform.Facts, names ...string) error {
	logger := otelzap.Ctx(ctx)

	ctx, span := telemetry.Start(ctx, "system.EnsurePackages")
	defer span.End()

	if len(names) == 0 {
		return nil
	}

	var opts execute.Options
	switch {
	case facts.HasAPT:
		opts = execute.Options{
			Command: "apt-get",
			Args:    append([]string{"install", "-y"}, names...),
			Env:     []string{"DEBIAN_FRONTEND=noninteractive"},
			Capture: true,
			Timeout: packageInstallTimeout,
		}
	case facts.HasDNF:
		opts = execute.Options{
			Command: "dnf",
			Args:    append([]string{"install", "-y"}, names...),
			Capture: true,
			Timeout: packageInstallTimeout,
		}
	default:
		return hostprep_err.NewValidationError("no supported package manager found (apt-get or dnf)")
	}

	logger.Info("Installing packages",
		zap.Strings("packages", names),
		zap.String("manager", opts.Command))
	if out, err := execute.Run(ctx, opts); err != nil {
		return hostprep_err.NewActionError(err,
			"installing "+strings.Join(names, " ")+" failed: "+tailLines(out, 5))
	}
	return nil
}

// SnapInstalled checks the snap catalog for an installed snap.
func SnapInstalled(ctx context.Context, name string) bool {
	_, err := execute.Run(ctx, execute.Options{
		Command: "snap",
		Args:    []string{"list", name},
		Capture: true,
	})
	return err == nil
}

// EnsureSnap installs a snap from the given channel unless already present.
func EnsureSnap(ctx context.Context, name, channel string) error {
	logger := otelzap.Ctx(ctx)

	ctx, span := telemetry.Start(ctx, "system.EnsureSnap")
	defer span.End()

	if SnapInstalled(ctx, name) {
		logger.Info("Snap already installed", zap.String("snap", name))
		return nil
	}

	args := []string{"install", name}
	if channel != "" {
		args = append(args, "--channel="+channel)
	}

	logger.Info("Installing snap", zap.String("snap", name), zap.String("channel", channel))
	if out, err := execute.Run(ctx, execute.Options{
		Command: "snap",
		Args:    args,
		Capture: true,
		Timeout: packageInstallTimeout,
	}); err != nil {
		return hostprep_err.NewActionError(err, "installing snap "+name+" failed: "+tailLines(out, 5))
	}
	return nil
}

func tailLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
