// pkg/unix/systemctl.go

// Package unix wraps systemctl with exit-code interpretation, active-state
// polling, and diagnostic collection for units that fail to come up.
package unix

import (
	"context"
	"time"

	"github.com/probitlabs/hostprep/pkg/execute"
	"github.com/probitlabs/hostprep/pkg/hostprep_err"
	"github.com/probitlabs/hostprep/pkg/telemetry"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// systemctl exit codes, per systemctl(1). is-active and friends use distinct
// codes from the mutating subcommands.
const (
	ExitSuccess     = 0
	ExitGenericFail = 1
	ExitInactive    = 3
	ExitUnknown     = 4
	ExitNotLoaded   = 5
)

// ServiceState is the observed active-state of a unit.
type ServiceState string

const (
	StateActive   ServiceState = "active"
	StateInactive ServiceState = "inactive"
	StateUnknown  ServiceState = "unknown"
)

// InterpretIsActiveExit maps an `systemctl is-active` exit code to a state.
func InterpretIsActiveExit(code int) ServiceState {
	switch code {
	case ExitSuccess:
		return StateActive
	case ExitInactive, ExitNotLoaded:
		return StateInactive
	default:
		return StateUnknown
	}
}

// IsActive reports whether the unit is currently active.
func IsActive(ctx context.Context, unit string) bool {
	err := execute.RunSimple(ctx, "systemctl", "is-active", "--quiet", unit)
	return err == nil
}

// IsEnabled reports whether the unit is enabled at boot.
func IsEnabled(ctx context.Context, unit string) bool {
	err := execute.RunSimple(ctx, "systemctl", "is-enabled", "--quiet", unit)
	return err == nil
}

// Diagnostics holds the output collected when a unit misbehaves.
type Diagnostics struct {
	StatusOutput  string
	JournalOutput string
}

// CollectDiagnostics gathers `systemctl status` and a journal tail for a
// unit. Collection failures are tolerated (status exits non-zero for dead
// units) and must never mask the failure being diagnosed.
func CollectDiagnostics(ctx context.Context, unit string) Diagnostics {
	var d Diagnostics
	// status exits non-zero when the unit is down; the output is still useful
	d.StatusOutput, _ = execute.Run(ctx, execute.Options{
		Command: "systemctl",
		Args:    []string{"status", unit, "--no-pager", "--lines", "10"},
		Capture: true,
	})
	d.JournalOutput, _ = execute.Run(ctx, execute.Options{
		Command: "journalctl",
		Args:    []string{"-u", unit, "-n", "30", "--no-pager"},
		Capture: true,
	})
	return d
}

// String renders the diagnostics for embedding in an error message.
func (d Diagnostics) String() string {
	return "Status:\n" + d.StatusOutput + "\nRecent logs:\n" + d.JournalOutput
}

// WaitActive polls the unit's active-state until it is active or the timeout
// elapses. The timeout keeps a wedged unit from hanging the run forever.
func WaitActive(ctx context.Context, unit string, timeout, poll time.Duration) error {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if poll <= 0 {
		poll = time.Second
	}

	deadline := time.Now().Add(timeout)
	for {
		if IsActive(ctx, unit) {
			return nil
		}
		if time.Now().After(deadline) {
			return cerr.Newf("unit %s did not become active within %s", unit, timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(poll):
		}
	}
}

// EnsureServiceEnabledAndRunning enables the unit at boot, restarts it, and
// polls until it reports active. On failure the status output and a journal
// tail are collected into the returned error.
func EnsureServiceEnabledAndRunning(ctx context.Context, unit string) error {
	logger := otelzap.Ctx(ctx)

	ctx, span := telemetry.Start(ctx, "unix.EnsureServiceEnabledAndRunning")
	defer span.End()

	if !execute.LookPath("systemctl") {
		return hostprep_err.NewValidationError("systemctl not found; hostprep requires systemd")
	}

	logger.Info("Enabling and restarting unit", zap.String("unit", unit))
	if out, err := execute.Run(ctx, execute.Options{
		Command: "systemctl",
		Args:    []string{"enable", unit},
		Capture: true,
	}); err != nil {
		return hostprep_err.NewActionError(err, "enabling "+unit+" failed: "+out)
	}
	if out, err := execute.Run(ctx, execute.Options{
		Command: "systemctl",
		Args:    []string{"restart", unit},
		Capture: true,
		Timeout: 2 * time.Minute,
	}); err != nil {
		d := CollectDiagnostics(ctx, unit)
		logger.Error("Unit restart failed",
			zap.String("unit", unit),
			zap.String("output", out),
			zap.Error(err))
		return hostprep_err.NewServiceError(unit, d.String())
	}

	if err := WaitActive(ctx, unit, 30*time.Second, time.Second); err != nil {
		d := CollectDiagnostics(ctx, unit)
		logger.Error("Unit did not reach active state",
			zap.String("unit", unit),
			zap.Error(err))
		return hostprep_err.NewServiceError(unit, d.String())
	}

	logger.Info("Unit enabled and active", zap.String("unit", unit))
	return nil
}

// ReloadService asks the unit to reload its configuration.
func ReloadService(ctx context.Context, unit string) error {
	if out, err := execute.Run(ctx, execute.Options{
		Command: "systemctl",
		Args:    []string{"reload", unit},
		Capture: true,
	}); err != nil {
		return hostprep_err.NewActionError(err, "reloading "+unit+" failed: "+out)
	}
	return nil
}
