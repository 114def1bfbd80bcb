// pkg/bootstrap/user.go

// Package bootstrap builds the step lists for preparing a host for remote
// management: the management user with passwordless sudo, and a healthy,
// key-accessible SSH service.
package bootstrap

import (
	"context"
	"os"
	"path/filepath"

	"github.com/probitlabs/hostprep/pkg/config"
	"github.com/probitlabs/hostprep/pkg/hostprep_err"
	"github.com/probitlabs/hostprep/pkg/platform"
	"github.com/probitlabs/hostprep/pkg/step"
	"github.com/probitlabs/hostprep/pkg/system"
	cerr "github.com/cockroachdb/errors"
)

// UserFlow provisions the management user: account, admin group membership,
// validated sudoers drop-in, and a locked-down ~/.ssh.
type UserFlow struct {
	cfg   *config.Config
	facts platform.Facts
}

// NewUserFlow discovers host facts for the flow.
func NewUserFlow(ctx context.Context, cfg *config.Config) *UserFlow {
	return &UserFlow{cfg: cfg, facts: platform.Discover(ctx)}
}

// Run executes the user bootstrap steps.
func (f *UserFlow) Run(ctx context.Context) (*step.Report, error) {
	if os.Geteuid() != 0 {
		return nil, hostprep_err.NewPermissionError("creating a management user requires root privileges")
	}
	return step.NewRunner().Run(ctx, f.Steps())
}

// Steps returns the ordered user bootstrap step list.
func (f *UserFlow) Steps() []step.Step {
	username := f.cfg.Username

	return []step.Step{
		{
			Name: "user-present",
			Precondition: func(ctx context.Context) (bool, error) {
				return system.UserExists(username), nil
			},
			Action: func(ctx context.Context) error {
				_, err := system.EnsureUser(ctx, username, f.cfg.Shell)
				return err
			},
		},
		{
			Name: "admin-group-membership",
			Precondition: func(ctx context.Context) (bool, error) {
				return system.IsGroupMember(username, f.facts.AdminGroup)
			},
			Action: func(ctx context.Context) error {
				return system.EnsureGroupMembership(ctx, username, f.facts.AdminGroup)
			},
		},
		{
			Name: "sudoers-dropin",
			Precondition: func(ctx context.Context) (bool, error) {
				return system.SudoersDropinValid(username, ""), nil
			},
			Action: func(ctx context.Context) error {
				return system.EnsureSudoersDropin(ctx, username, "")
			},
			Postcondition: func(ctx context.Context) error {
				if !system.SudoersDropinValid(username, "") {
					return cerr.Newf("sudoers drop-in for %s missing or wrong mode", username)
				}
				return nil
			},
		},
		{
			Name: "ssh-directory",
			Precondition: func(ctx context.Context) (bool, error) {
				home, err := userHome(username)
				if err != nil {
					return false, err
				}
				return system.PathMatches(filepath.Join(home, ".ssh"), 0700, username), nil
			},
			Action: func(ctx context.Context) error {
				home, err := userHome(username)
				if err != nil {
					return err
				}
				return system.EnsureDirectory(ctx, filepath.Join(home, ".ssh"), 0700, username)
			},
		},
	}
}

func userHome(username string) (string, error) {
	id, err := system.LookupUser(username)
	if err != nil {
		return "", err
	}
	return id.Home, nil
}
