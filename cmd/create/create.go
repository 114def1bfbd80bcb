// cmd/create/create.go

package create

import (
	"github.com/spf13/cobra"
)

// CreateCmd groups the provisioning subcommands.
var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Provision users, keys, and services on this host",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}
