// pkg/postgres/provision.go

// Package postgres provisions the co-located database for MAAS: role,
// database, and host-based auth rule, each idempotent via catalog checks.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/probitlabs/hostprep/pkg/secrets"
	"github.com/probitlabs/hostprep/pkg/telemetry"
	cerr "github.com/cockroachdb/errors"
	"github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// AdminDSN is the superuser connection string for a freshly installed Debian
// PostgreSQL, reachable over the local socket as the postgres OS user.
const AdminDSN = "host=/var/run/postgresql dbname=postgres sslmode=disable"

// Open connects with the given DSN and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, cerr.Wrap(err, "open postgres connection")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, cerr.Wrap(err, "ping postgres")
	}
	return db, nil
}

// RoleExists checks pg_roles for the role.
func RoleExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_roles WHERE rolname = $1)", name).Scan(&exists)
	if err != nil {
		return false, cerr.Wrapf(err, "check role %s", name)
	}
	return exists, nil
}

// DatabaseExists checks pg_database for the database.
func DatabaseExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", name).Scan(&exists)
	if err != nil {
		return false, cerr.Wrapf(err, "check database %s", name)
	}
	return exists, nil
}

// EnsureRole creates a login role with the given password, or resets the
// password when the role already exists so the persisted credentials always
// match the live role.
func EnsureRole(ctx context.Context, db *sql.DB, name string, password *secrets.Secret) error {
	logger := otelzap.Ctx(ctx)

	ctx, span := telemetry.Start(ctx, "postgres.EnsureRole")
	defer span.End()

	exists, err := RoleExists(ctx, db, name)
	if err != nil {
		return err
	}

	// Identifiers cannot be bound as parameters; quote them instead.
	stmt := fmt.Sprintf("CREATE ROLE %s WITH LOGIN PASSWORD %s",
		pq.QuoteIdentifier(name), pq.QuoteLiteral(password.Reveal()))
	if exists {
		logger.Info("Role already exists, resetting password", zap.String("role", name))
		stmt = fmt.Sprintf("ALTER ROLE %s WITH LOGIN PASSWORD %s",
			pq.QuoteIdentifier(name), pq.QuoteLiteral(password.Reveal()))
	} else {
		logger.Info("Creating role", zap.String("role", name))
	}

	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return cerr.Wrapf(err, "ensure role %s", name)
	}
	return nil
}

// EnsureDatabase creates the database owned by owner; no-op when present.
func EnsureDatabase(ctx context.Context, db *sql.DB, name, owner string) error {
	logger := otelzap.Ctx(ctx)

	ctx, span := telemetry.Start(ctx, "postgres.EnsureDatabase")
	defer span.End()

	exists, err := DatabaseExists(ctx, db, name)
	if err != nil {
		return err
	}
	if exists {
		logger.Info("Database already exists", zap.String("database", name))
		return nil
	}

	logger.Info("Creating database", zap.String("database", name), zap.String("owner", owner))
	stmt := fmt.Sprintf("CREATE DATABASE %s OWNER %s",
		pq.QuoteIdentifier(name), pq.QuoteIdentifier(owner))
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return cerr.Wrapf(err, "create database %s", name)
	}
	return nil
}

// HBARule renders the pg_hba.conf line granting the role md5 access to its
// database from any address.
func HBARule(database, role string) string {
	return fmt.Sprintf("host    %s    %s    0/0     md5", database, role)
}

// HBAPath returns the Debian-layout pg_hba.conf path for a major version.
func HBAPath(major int) string {
	return fmt.Sprintf("/etc/postgresql/%d/main/pg_hba.conf", major)
}

// ConnectionURI builds the database URI handed to the MAAS initializer. The
// password is escaped, never logged.
func ConnectionURI(user string, password *secrets.Secret, host, database string) string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s",
		url.QueryEscape(user), url.QueryEscape(password.Reveal()), host, database)
}
