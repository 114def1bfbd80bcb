// cmd/create/user.go

package create

import (
	"github.com/probitlabs/hostprep/pkg/bootstrap"
	"github.com/probitlabs/hostprep/pkg/config"
	"github.com/probitlabs/hostprep/pkg/hostprep_cli"
	"github.com/probitlabs/hostprep/pkg/hostprep_io"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var CreateUserCmd = &cobra.Command{
	Use:   "user",
	Short: "Create the management user with passwordless sudo",
	Long: `Creates the management user (no password, key-based access only), adds it
to the host's admin group, installs a visudo-validated NOPASSWD drop-in, and
prepares a locked-down ~/.ssh. Safe to re-run; satisfied steps are skipped.`,
	RunE: hostprep_cli.Wrap(runCreateUser),
}

func init() {
	CreateCmd.AddCommand(CreateUserCmd)
	d := config.Defaults()
	CreateUserCmd.Flags().String("username", d.Username, "Name of the management user")
	CreateUserCmd.Flags().String("shell", d.Shell, "Login shell for the management user")
}

func runCreateUser(rc *hostprep_io.RuntimeContext, cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}

	flow := bootstrap.NewUserFlow(rc.Ctx, cfg)
	report, err := flow.Run(rc.Ctx)
	if err != nil {
		return err
	}

	rc.Log.Info("Management user ready",
		zap.String("username", cfg.Username),
		zap.Int("steps_applied", report.Applied()),
		zap.Bool("already_provisioned", report.AllSatisfied()))
	return nil
}
