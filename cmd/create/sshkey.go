// cmd/create/sshkey.go

package create

import (
	"os"

	"github.com/probitlabs/hostprep/pkg/config"
	"github.com/probitlabs/hostprep/pkg/hostprep_cli"
	"github.com/probitlabs/hostprep/pkg/hostprep_io"
	"github.com/probitlabs/hostprep/pkg/sshkey"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var CreateSSHKeyCmd = &cobra.Command{
	Use:   "ssh-key",
	Short: "Generate an SSH keypair",
	Long: `Generates an SSH keypair (private 0600, public 0644). Refuses to overwrite
an existing key: regenerating invalidates every copy of the public key
already distributed to remote hosts. Pass --force to overwrite anyway.`,
	RunE: hostprep_cli.Wrap(runCreateSSHKey),
}

var forceOverwrite bool

func init() {
	CreateCmd.AddCommand(CreateSSHKeyCmd)
	d := config.Defaults()
	CreateSSHKeyCmd.Flags().String("key-algorithm", d.KeyAlgorithm, "Key algorithm (ed25519 or rsa)")
	CreateSSHKeyCmd.Flags().Int("key-bits", d.KeyBits, "Key size in bits (RSA only)")
	CreateSSHKeyCmd.Flags().String("key-comment", "", "Comment for the public key")
	CreateSSHKeyCmd.Flags().String("key-path", "", "Private key path (default ~/.ssh/id_<algorithm>)")
	CreateSSHKeyCmd.Flags().BoolVar(&forceOverwrite, "force", false, "Overwrite an existing keypair")
}

func runCreateSSHKey(rc *hostprep_io.RuntimeContext, cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}

	keyPath := cfg.KeyPath
	if keyPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		keyPath = sshkey.DefaultKeyPath(home, sshkey.Algorithm(cfg.KeyAlgorithm))
	}

	opts := sshkey.KeypairOptions{
		Algorithm:   sshkey.Algorithm(cfg.KeyAlgorithm),
		Bits:        cfg.KeyBits,
		Comment:     cfg.KeyComment,
		PrivatePath: keyPath,
		Force:       forceOverwrite,
	}
	if err := sshkey.GenerateKeypair(rc.Ctx, opts); err != nil {
		return err
	}

	rc.Log.Info("Keypair written",
		zap.String("private_key", keyPath),
		zap.String("public_key", keyPath+".pub"))
	return nil
}
