// cmd/root.go

package cmd

import (
	"fmt"
	"os"

	"github.com/probitlabs/hostprep/cmd/create"
	"github.com/probitlabs/hostprep/cmd/secure"
	"github.com/probitlabs/hostprep/pkg/hostprep_err"
	"github.com/probitlabs/hostprep/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd is the base command for hostprep.
var RootCmd = &cobra.Command{
	Use:   "hostprep",
	Short: "Bootstrap a Linux host for remote management",
	Long: `hostprep provisions a single Linux host: a management user with
passwordless sudo, SSH key material and service health, and a MAAS
region+rack controller with a co-located PostgreSQL database.

Every operation is an ordered list of idempotent steps. A failed run can be
re-run safely; completed steps report themselves as already satisfied.

Two concurrent invocations against the same host are unsafe; serialize runs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// RegisterCommands adds all subcommands to the root command.
func RegisterCommands() {
	for _, subCmd := range []*cobra.Command{
		create.CreateCmd,
		secure.SecureCmd,
	} {
		RootCmd.AddCommand(subCmd)
	}
}

// Execute runs the CLI and maps the resulting error category to the process
// exit code.
func Execute() {
	defer func() {
		if err := logger.Sync(); err != nil {
			_ = err // syncing a terminal stream fails on some platforms
		}
	}()

	RegisterCommands()

	if err := RootCmd.Execute(); err != nil {
		if hostprep_err.IsExpectedUserError(err) {
			logger.L().Warn("Run ended with a user-correctable error", zap.Error(err))
		} else {
			logger.L().Error("Run failed", zap.Error(err))
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(hostprep_err.GetExitCode(err))
	}
}
