// pkg/maas/install.go

// Package maas installs and initializes a MAAS region+rack controller with a
// co-located PostgreSQL database. The flow is a fixed step list mirroring the
// install state machine:
//
//	Start -> PackagesInstalled -> DatabaseProvisioned -> DatabaseHardened
//	      -> ServiceInstalled -> ServiceInitialized -> AdminCreated
//	      -> CredentialsPersisted -> Done
//
// Failure at any node aborts the run with the node name as context; every
// node is idempotent, so a re-run resumes from where it stopped.
package maas

import (
	"context"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/probitlabs/hostprep/pkg/config"
	"github.com/probitlabs/hostprep/pkg/execute"
	"github.com/probitlabs/hostprep/pkg/hostprep_err"
	"github.com/probitlabs/hostprep/pkg/platform"
	"github.com/probitlabs/hostprep/pkg/postgres"
	"github.com/probitlabs/hostprep/pkg/secrets"
	"github.com/probitlabs/hostprep/pkg/step"
	"github.com/probitlabs/hostprep/pkg/system"
	"github.com/probitlabs/hostprep/pkg/unix"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Node names, used as step names so failures carry the state machine node.
const (
	NodePackagesInstalled    = "packages-installed"
	NodeDatabaseProvisioned  = "database-provisioned"
	NodeDatabaseHardened     = "database-hardened"
	NodeServiceInstalled     = "service-installed"
	NodeServiceInitialized   = "service-initialized"
	NodeAdminCreated         = "admin-created"
	NodeCredentialsPersisted = "credentials-persisted"
)

// Installer drives the MAAS install flow for one host.
type Installer struct {
	cfg   *config.Config
	facts platform.Facts

	dbPassword    *secrets.Secret
	adminPassword *secrets.Secret
	credsOwner    string
	credsPath     string
}

// NewInstaller resolves secrets and the credentials destination up front, so
// the step list itself has no interactive or generative surprises. Passwords
// come from configuration when provided, otherwise they are generated,
// never prompted.
func NewInstaller(ctx context.Context, cfg *config.Config) (*Installer, error) {
	facts := platform.Discover(ctx)

	inst := &Installer{cfg: cfg, facts: facts}

	var err error
	inst.dbPassword, err = resolvePassword(cfg.DBPassword)
	if err != nil {
		return nil, err
	}
	inst.adminPassword, err = resolvePassword(cfg.AdminPassword)
	if err != nil {
		return nil, err
	}

	owner, home, err := invokingUser()
	if err != nil {
		return nil, err
	}
	inst.credsOwner = owner
	inst.credsPath = filepath.Join(home, "maas", "maas.creds")
	return inst, nil
}

func resolvePassword(provided string) (*secrets.Secret, error) {
	if provided != "" {
		return secrets.NewSecret(secrets.KindPassword,
			secrets.Source{Kind: secrets.SourceProvided}, []byte(provided)), nil
	}
	return secrets.GeneratePassword(0)
}

// invokingUser resolves the non-root user who launched the run: the
// SUDO_USER when escalated, the current user otherwise. Credentials are never
// owned by root when a real user is identifiable behind sudo.
func invokingUser() (name, home string, err error) {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" && sudoUser != "root" {
		u, lookupErr := user.Lookup(sudoUser)
		if lookupErr != nil {
			return "", "", cerr.Wrapf(lookupErr, "look up invoking user %s", sudoUser)
		}
		return u.Username, u.HomeDir, nil
	}
	u, err := user.Current()
	if err != nil {
		return "", "", cerr.Wrap(err, "resolve current user")
	}
	return u.Username, u.HomeDir, nil
}

// Run executes the full install flow.
func (inst *Installer) Run(ctx context.Context) (*step.Report, error) {
	if os.Geteuid() != 0 {
		return nil, hostprep_err.NewPermissionError("installing MAAS requires root privileges")
	}
	defer inst.dbPassword.Zero()
	defer inst.adminPassword.Zero()
	return step.NewRunner().Run(ctx, inst.Steps())
}

// Steps returns the ordered step list for the state machine.
func (inst *Installer) Steps() []step.Step {
	return []step.Step{
		{
			Name: NodePackagesInstalled,
			Precondition: func(ctx context.Context) (bool, error) {
				return execute.LookPath("psql") && unix.IsActive(ctx, "postgresql"), nil
			},
			Action: func(ctx context.Context) error {
				if err := system.EnsurePackages(ctx, inst.facts, "postgresql", "postgresql-contrib"); err != nil {
					return err
				}
				return unix.EnsureServiceEnabledAndRunning(ctx, "postgresql")
			},
			Postcondition: func(ctx context.Context) error {
				if !unix.IsActive(ctx, "postgresql") {
					return cerr.New("postgresql is not active")
				}
				return nil
			},
		},
		{
			Name: NodeDatabaseProvisioned,
			Precondition: func(ctx context.Context) (bool, error) {
				// A provided password lets us trust an existing role; a
				// generated one must be (re)applied so the persisted
				// credentials match the live role.
				if inst.dbPassword.Source.Kind != secrets.SourceProvided {
					return false, nil
				}
				return inst.databaseReady(ctx)
			},
			Action: func(ctx context.Context) error {
				db, err := postgres.Open(ctx, postgres.AdminDSN)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := postgres.EnsureRole(ctx, db, inst.cfg.DBUser, inst.dbPassword); err != nil {
					return err
				}
				return postgres.EnsureDatabase(ctx, db, inst.cfg.DBName, inst.cfg.DBUser)
			},
			Postcondition: func(ctx context.Context) error {
				ready, err := inst.databaseReady(ctx)
				if err != nil {
					return err
				}
				if !ready {
					return cerr.New("database role or database missing after provisioning")
				}
				return nil
			},
		},
		{
			Name: NodeDatabaseHardened,
			Precondition: func(ctx context.Context) (bool, error) {
				path, rule, err := inst.hbaRule(ctx)
				if err != nil {
					return false, err
				}
				return system.ContainsConfigLine(path, rule)
			},
			Action: func(ctx context.Context) error {
				path, rule, err := inst.hbaRule(ctx)
				if err != nil {
					return err
				}
				if err := system.AppendConfigLineIfAbsent(ctx, path, rule); err != nil {
					return err
				}
				return unix.ReloadService(ctx, "postgresql")
			},
		},
		{
			Name: NodeServiceInstalled,
			Precondition: func(ctx context.Context) (bool, error) {
				return system.SnapInstalled(ctx, "maas"), nil
			},
			Action: func(ctx context.Context) error {
				return system.EnsureSnap(ctx, "maas", inst.cfg.MAASChannel)
			},
		},
		{
			Name: NodeServiceInitialized,
			Precondition: func(ctx context.Context) (bool, error) {
				return inst.initialized(ctx), nil
			},
			Action:        inst.initRegionRack,
			Postcondition: func(ctx context.Context) error {
				if !inst.initialized(ctx) {
					return cerr.New("maas reports uninitialized after init")
				}
				return nil
			},
		},
		{
			Name: NodeAdminCreated,
			Precondition: func(ctx context.Context) (bool, error) {
				return inst.adminExists(ctx), nil
			},
			Action: inst.createAdmin,
			Postcondition: func(ctx context.Context) error {
				if !inst.adminExists(ctx) {
					return cerr.Newf("admin %s missing after createadmin", inst.cfg.AdminUser)
				}
				return nil
			},
		},
		{
			Name:   NodeCredentialsPersisted,
			Action: inst.persistCredentials,
			Postcondition: func(ctx context.Context) error {
				info, err := os.Stat(inst.credsPath)
				if err != nil {
					return cerr.Wrap(err, "stat credentials file")
				}
				if info.Mode().Perm() != 0600 {
					return cerr.Newf("credentials file has mode %o, want 0600", info.Mode().Perm())
				}
				return nil
			},
		},
	}
}

func (inst *Installer) databaseReady(ctx context.Context) (bool, error) {
	db, err := postgres.Open(ctx, postgres.AdminDSN)
	if err != nil {
		return false, err
	}
	defer db.Close()

	roleOK, err := postgres.RoleExists(ctx, db, inst.cfg.DBUser)
	if err != nil || !roleOK {
		return false, err
	}
	return postgres.DatabaseExists(ctx, db, inst.cfg.DBName)
}

func (inst *Installer) hbaRule(ctx context.Context) (path, rule string, err error) {
	major, err := platform.PostgresMajorVersion(ctx)
	if err != nil {
		return "", "", err
	}
	return postgres.HBAPath(major), postgres.HBARule(inst.cfg.DBName, inst.cfg.DBUser), nil
}

// initialized probes the snap's configured mode: an uninitialized install
// reports "none", an initialized one its mode (e.g. "region+rack"). The mode
// setting does not depend on the snap's services being up.
func (inst *Installer) initialized(ctx context.Context) bool {
	out, err := execute.Run(ctx, execute.Options{
		Command: "snap",
		Args:    []string{"get", "maas", "mode"},
		Capture: true,
	})
	if err != nil {
		return false
	}
	return snapModeInitialized(out)
}

func snapModeInitialized(out string) bool {
	mode := strings.TrimSpace(out)
	return mode != "" && mode != "none"
}

func (inst *Installer) initRegionRack(ctx context.Context) error {
	logger := otelzap.Ctx(ctx)
	logger.Info("Initializing MAAS region+rack",
		zap.String("maas_url", inst.cfg.MAASURL),
		zap.String("database", inst.cfg.DBName))

	uri := postgres.ConnectionURI(inst.cfg.DBUser, inst.dbPassword, "localhost", inst.cfg.DBName)
	_, err := execute.Run(ctx, execute.Options{
		Command:   "maas",
		Args:      []string{"init", "region+rack", "--database-uri", uri, "--maas-url", inst.cfg.MAASURL},
		Capture:   true,
		Sensitive: true,
		Timeout:   packageTimeout,
	})
	if err != nil {
		return hostprep_err.NewActionError(err, "maas init failed; see 'journalctl -u snap.maas.supervisor' for details")
	}
	return nil
}

// adminExists probes the admin account via its API key.
func (inst *Installer) adminExists(ctx context.Context) bool {
	_, err := execute.Run(ctx, execute.Options{
		Command: "maas",
		Args:    []string{"apikey", "--username", inst.cfg.AdminUser},
		Capture: true,
	})
	return err == nil
}

func (inst *Installer) createAdmin(ctx context.Context) error {
	logger := otelzap.Ctx(ctx)
	logger.Info("Creating MAAS admin",
		zap.String("username", inst.cfg.AdminUser),
		zap.String("email", inst.cfg.AdminEmail))

	_, err := execute.Run(ctx, execute.Options{
		Command: "maas",
		Args: []string{"createadmin",
			"--username", inst.cfg.AdminUser,
			"--password", inst.adminPassword.Reveal(),
			"--email", inst.cfg.AdminEmail},
		Capture:   true,
		Sensitive: true,
	})
	if err != nil {
		return hostprep_err.NewActionError(err, "maas createadmin failed")
	}
	return nil
}

func (inst *Installer) persistCredentials(ctx context.Context) error {
	rec := secrets.CredentialRecord{
		Path:  inst.credsPath,
		Owner: inst.credsOwner,
		Mode:  0600,
	}
	rec.AddField("MAAS_URL", inst.cfg.MAASURL)
	rec.AddField("MAAS_ADMIN_USER", inst.cfg.AdminUser)
	rec.AddField("MAAS_ADMIN_EMAIL", inst.cfg.AdminEmail)
	rec.AddSecret("MAAS_ADMIN_PASSWORD", inst.adminPassword)
	rec.AddField("MAAS_DB_NAME", inst.cfg.DBName)
	rec.AddField("MAAS_DB_USER", inst.cfg.DBUser)
	rec.AddSecret("MAAS_DB_PASSWORD", inst.dbPassword)

	_, err := secrets.Persist(ctx, rec)
	return err
}
