// cmd/create/maas.go

package create

import (
	"github.com/probitlabs/hostprep/pkg/config"
	"github.com/probitlabs/hostprep/pkg/hostprep_cli"
	"github.com/probitlabs/hostprep/pkg/hostprep_io"
	"github.com/probitlabs/hostprep/pkg/maas"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var CreateMAASCmd = &cobra.Command{
	Use:   "maas",
	Short: "Install a MAAS region+rack controller with PostgreSQL",
	Long: `Installs PostgreSQL and the MAAS snap, provisions the MAAS database role
and database, appends a host-based auth rule, initializes the region+rack
controller, creates the admin account, and persists credentials to
~/maas/maas.creds (0600, owned by the invoking user).

Passwords come from --db-password / --admin-password or the matching
HOSTPREP_* environment variables; absent values are generated, never
prompted.`,
	RunE: hostprep_cli.Wrap(runCreateMAAS),
}

func init() {
	CreateCmd.AddCommand(CreateMAASCmd)
	d := config.Defaults()
	CreateMAASCmd.Flags().String("db-name", d.DBName, "MAAS database name")
	CreateMAASCmd.Flags().String("db-user", d.DBUser, "MAAS database role")
	CreateMAASCmd.Flags().String("db-password", "", "MAAS database password (generated when empty)")
	CreateMAASCmd.Flags().String("admin-user", d.AdminUser, "MAAS admin username")
	CreateMAASCmd.Flags().String("admin-email", d.AdminEmail, "MAAS admin email")
	CreateMAASCmd.Flags().String("admin-password", "", "MAAS admin password (generated when empty)")
	CreateMAASCmd.Flags().String("maas-channel", d.MAASChannel, "Snap channel for the maas snap")
	CreateMAASCmd.Flags().String("maas-url", "", "MAAS URL (default http://<hostname>:5240/MAAS)")
}

func runCreateMAAS(rc *hostprep_io.RuntimeContext, cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}

	installer, err := maas.NewInstaller(rc.Ctx, cfg)
	if err != nil {
		return err
	}

	report, err := installer.Run(rc.Ctx)
	if err != nil {
		return err
	}

	rc.Log.Info("MAAS controller ready",
		zap.String("maas_url", cfg.MAASURL),
		zap.Int("steps_applied", report.Applied()))
	return nil
}
