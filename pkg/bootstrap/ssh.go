// pkg/bootstrap/ssh.go

package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/probitlabs/hostprep/pkg/config"
	"github.com/probitlabs/hostprep/pkg/execute"
	"github.com/probitlabs/hostprep/pkg/hostprep_err"
	"github.com/probitlabs/hostprep/pkg/platform"
	"github.com/probitlabs/hostprep/pkg/secrets"
	"github.com/probitlabs/hostprep/pkg/step"
	"github.com/probitlabs/hostprep/pkg/system"
	"github.com/probitlabs/hostprep/pkg/unix"
	cerr "github.com/cockroachdb/errors"
)

// SSHFlow ensures the SSH service is installed, enabled, and verified
// active, optionally installing a downloaded public key for the management
// user.
type SSHFlow struct {
	cfg   *config.Config
	facts platform.Facts

	keyLine string // cached so precondition and action share one download
}

// NewSSHFlow discovers host facts for the flow.
func NewSSHFlow(ctx context.Context, cfg *config.Config) *SSHFlow {
	return &SSHFlow{cfg: cfg, facts: platform.Discover(ctx)}
}

// Run executes the SSH bootstrap steps.
func (f *SSHFlow) Run(ctx context.Context) (*step.Report, error) {
	if os.Geteuid() != 0 {
		return nil, hostprep_err.NewPermissionError("managing the SSH service requires root privileges")
	}
	if f.cfg.RemoteKeyURL != "" {
		// Fail on a malformed URL before mutating anything.
		if err := secrets.ValidateKeyURL(f.cfg.RemoteKeyURL); err != nil {
			return nil, err
		}
	}
	return step.NewRunner().Run(ctx, f.Steps())
}

// unitName returns the sshd unit for the host's OS family. Debian ships the
// unit as "ssh", RHEL as "sshd".
func (f *SSHFlow) unitName() string {
	if f.facts.OSFamily == "rhel" {
		return "sshd"
	}
	return "ssh"
}

// Steps returns the ordered SSH bootstrap step list.
func (f *SSHFlow) Steps() []step.Step {
	steps := []step.Step{
		{
			Name: "openssh-installed",
			Precondition: func(ctx context.Context) (bool, error) {
				return execute.LookPath("sshd"), nil
			},
			Action: func(ctx context.Context) error {
				pkg := "openssh-server"
				return system.EnsurePackages(ctx, f.facts, pkg)
			},
		},
		{
			Name: "sshd-enabled-and-active",
			Precondition: func(ctx context.Context) (bool, error) {
				unit := f.unitName()
				return unix.IsEnabled(ctx, unit) && unix.IsActive(ctx, unit), nil
			},
			Action: func(ctx context.Context) error {
				return unix.EnsureServiceEnabledAndRunning(ctx, f.unitName())
			},
			Postcondition: func(ctx context.Context) error {
				if !unix.IsActive(ctx, f.unitName()) {
					return cerr.Newf("unit %s is not active", f.unitName())
				}
				return nil
			},
		},
	}

	if f.cfg.RemoteKeyURL != "" {
		steps = append(steps, step.Step{
			Name: "authorized-key-installed",
			Precondition: func(ctx context.Context) (bool, error) {
				path, key, err := f.fetchKey(ctx)
				if err != nil {
					return false, err
				}
				return system.ContainsConfigLine(path, key)
			},
			Action: func(ctx context.Context) error {
				path, key, err := f.fetchKey(ctx)
				if err != nil {
					return err
				}
				if err := system.EnsureDirectory(ctx, filepath.Dir(path), 0700, f.cfg.Username); err != nil {
					return err
				}
				if err := system.AppendConfigLineIfAbsent(ctx, path, key); err != nil {
					return err
				}
				return system.EnsureFileMode(ctx, path, 0600, f.cfg.Username)
			},
		})
	}
	return steps
}

// fetchKey downloads the remote public key (once per run) and returns the
// authorized_keys path plus the trimmed key line.
func (f *SSHFlow) fetchKey(ctx context.Context) (path, key string, err error) {
	id, err := system.LookupUser(f.cfg.Username)
	if err != nil {
		return "", "", err
	}
	if f.keyLine == "" {
		secret, err := secrets.FetchRemoteKey(ctx, f.cfg.RemoteKeyURL)
		if err != nil {
			return "", "", err
		}
		f.keyLine = strings.TrimSpace(secret.Reveal())
		secret.Zero()
	}
	return filepath.Join(id.Home, ".ssh", "authorized_keys"), f.keyLine, nil
}
