// pkg/config/config.go

// Package config builds the single immutable configuration value for a run
// from flags and HOSTPREP_* environment variables. Components receive it
// explicitly; nothing reads the environment after startup.
package config

import (
	"fmt"
	"os"

	cerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/probitlabs/hostprep/pkg/hostprep_err"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the full recognized option surface. Secrets (DBPassword,
// AdminPassword) are optional: absent values are generated, never prompted.
type Config struct {
	Username string `mapstructure:"username" validate:"required,max=32"`
	Shell    string `mapstructure:"shell" validate:"required"`

	KeyAlgorithm string `mapstructure:"key-algorithm" validate:"oneof=ed25519 rsa"`
	KeyBits      int    `mapstructure:"key-bits" validate:"omitempty,min=2048"`
	KeyComment   string `mapstructure:"key-comment"`
	KeyPath      string `mapstructure:"key-path"`
	RemoteKeyURL string `mapstructure:"remote-key-url" validate:"omitempty,url"`

	DBName     string `mapstructure:"db-name" validate:"required"`
	DBUser     string `mapstructure:"db-user" validate:"required"`
	DBPassword string `mapstructure:"db-password"`

	AdminUser     string `mapstructure:"admin-user" validate:"required"`
	AdminEmail    string `mapstructure:"admin-email" validate:"required,email"`
	AdminPassword string `mapstructure:"admin-password"`

	MAASChannel string `mapstructure:"maas-channel" validate:"required"`
	MAASURL     string `mapstructure:"maas-url" validate:"omitempty,url"`
}

// Defaults mirror the documented bootstrap conventions.
func Defaults() Config {
	return Config{
		Username:     "semaphore",
		Shell:        "/bin/bash",
		KeyAlgorithm: "ed25519",
		KeyBits:      4096,
		DBName:       "maasdb",
		DBUser:       "maas",
		AdminUser:    "admin",
		AdminEmail:   "admin@example.com",
		MAASChannel:  "3.5/stable",
	}
}

// Load binds the command's flags plus HOSTPREP_* environment variables into
// a validated Config. Flag names map to env names with dashes as underscores,
// e.g. --admin-password / HOSTPREP_ADMIN_PASSWORD.
func Load(cmd *cobra.Command) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HOSTPREP")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, cerr.Wrap(err, "bind flags")
	}

	cfg := Defaults()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, cerr.Wrap(err, "unmarshal configuration")
	}

	if cfg.MAASURL == "" {
		cfg.MAASURL = defaultMAASURL()
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate applies the struct tags and rejects the first violation as a
// validation error.
func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		var invalid *validator.InvalidValidationError
		if cerr.As(err, &invalid) {
			return cerr.Wrap(err, "validate configuration")
		}
		for _, fe := range err.(validator.ValidationErrors) {
			return hostprep_err.NewValidationError(
				fmt.Sprintf("configuration field %s failed %s validation (value %q)",
					fe.Field(), fe.Tag(), fe.Value()))
		}
	}
	return nil
}

func defaultMAASURL() string {
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:5240/MAAS", host)
}
