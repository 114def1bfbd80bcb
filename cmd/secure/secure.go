// cmd/secure/secure.go

package secure

import (
	"github.com/spf13/cobra"
)

// SecureCmd groups the hardening and verification subcommands.
var SecureCmd = &cobra.Command{
	Use:   "secure",
	Short: "Harden and verify host services",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}
