// cmd/secure/ssh.go

package secure

import (
	"github.com/probitlabs/hostprep/pkg/bootstrap"
	"github.com/probitlabs/hostprep/pkg/config"
	"github.com/probitlabs/hostprep/pkg/hostprep_cli"
	"github.com/probitlabs/hostprep/pkg/hostprep_io"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var SecureSSHCmd = &cobra.Command{
	Use:   "ssh",
	Short: "Enable and verify the SSH service",
	Long: `Installs the OpenSSH server if missing, enables the unit at boot,
restarts it, and verifies it reaches active state (collecting status and
journal output when it does not). With --remote-key-url, downloads a public
key over http(s) and installs it into the management user's authorized_keys,
without duplicating on re-run.`,
	RunE: hostprep_cli.Wrap(runSecureSSH),
}

func init() {
	SecureCmd.AddCommand(SecureSSHCmd)
	d := config.Defaults()
	SecureSSHCmd.Flags().String("username", d.Username, "Management user receiving the authorized key")
	SecureSSHCmd.Flags().String("remote-key-url", "", "http(s) URL of a public key to authorize")
}

func runSecureSSH(rc *hostprep_io.RuntimeContext, cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}

	flow := bootstrap.NewSSHFlow(rc.Ctx, cfg)
	report, err := flow.Run(rc.Ctx)
	if err != nil {
		return err
	}

	rc.Log.Info("SSH service verified",
		zap.Int("steps_applied", report.Applied()),
		zap.Bool("already_provisioned", report.AllSatisfied()))
	return nil
}
