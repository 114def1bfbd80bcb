// pkg/system/user.go

// Package system holds the privileged host mutations: users, groups, sudoers
// drop-ins, packages, files. Every function is idempotent; calling it twice
// on the same starting state yields the same end state, with the second call
// reporting the state as already present rather than erroring.
package system

import (
	"context"
	"os/user"
	"regexp"
	"strings"

	"github.com/probitlabs/hostprep/pkg/execute"
	"github.com/probitlabs/hostprep/pkg/hostprep_err"
	"github.com/probitlabs/hostprep/pkg/telemetry"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// UserIdentity is the resolved identity of an ensured system user.
type UserIdentity struct {
	Name string
	UID  string
	GID  string
	Home string
}

var validUsername = regexp.MustCompile(`^[a-z_][a-z0-9_-]*$`)

// ValidateUsername rejects names useradd would refuse or that could smuggle
// arguments.
func ValidateUsername(name string) error {
	if name == "" {
		return hostprep_err.NewValidationError("username cannot be empty")
	}
	if len(name) > 32 {
		return hostprep_err.NewValidationError("username cannot be longer than 32 characters")
	}
	if !validUsername.MatchString(name) {
		return hostprep_err.NewValidationError(
			"username must start with a letter or underscore and contain only lowercase letters, digits, underscores, and hyphens")
	}
	return nil
}

// UserExists checks for the user in the system database.
func UserExists(name string) bool {
	_, err := user.Lookup(name)
	return err == nil
}

// LookupUser resolves an existing user's identity.
func LookupUser(name string) (UserIdentity, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return UserIdentity{}, cerr.Wrapf(err, "look up user %s", name)
	}
	return UserIdentity{Name: u.Username, UID: u.Uid, GID: u.Gid, Home: u.HomeDir}, nil
}

// EnsureUser creates the user with a home directory and the given shell if it
// does not exist. The account gets no password; access is key-based. No-op
// when the user already exists.
func EnsureUser(ctx context.Context, name, shell string) (UserIdentity, error) {
	logger := otelzap.Ctx(ctx)

	ctx, span := telemetry.Start(ctx, "system.EnsureUser")
	defer span.End()

	if err := ValidateUsername(name); err != nil {
		return UserIdentity{}, err
	}
	if shell == "" {
		shell = "/bin/bash"
	}

	if UserExists(name) {
		logger.Info("User already exists", zap.String("username", name))
		return LookupUser(name)
	}

	logger.Info("Creating user", zap.String("username", name), zap.String("shell", shell))
	if out, err := execute.Run(ctx, execute.Options{
		Command: "useradd",
		Args:    []string{"-m", "-s", shell, name},
		Capture: true,
	}); err != nil {
		return UserIdentity{}, hostprep_err.NewActionError(err, "useradd "+name+" failed: "+strings.TrimSpace(out))
	}

	return LookupUser(name)
}

// EnsureGroupMembership adds the user to the group unless already a member.
func EnsureGroupMembership(ctx context.Context, username, group string) error {
	logger := otelzap.Ctx(ctx)

	ctx, span := telemetry.Start(ctx, "system.EnsureGroupMembership")
	defer span.End()

	member, err := isGroupMember(username, group)
	if err != nil {
		return err
	}
	if member {
		logger.Info("User already in group",
			zap.String("username", username),
			zap.String("group", group))
		return nil
	}

	logger.Info("Adding user to group",
		zap.String("username", username),
		zap.String("group", group))
	if out, err := execute.Run(ctx, execute.Options{
		Command: "usermod",
		Args:    []string{"-a", "-G", group, username},
		Capture: true,
	}); err != nil {
		return hostprep_err.NewActionError(err,
			"adding "+username+" to "+group+" failed: "+strings.TrimSpace(out))
	}
	return nil
}

// IsGroupMember reports whether the user currently belongs to the group.
func IsGroupMember(username, group string) (bool, error) {
	return isGroupMember(username, group)
}

func isGroupMember(username, group string) (bool, error) {
	u, err := user.Lookup(username)
	if err != nil {
		return false, cerr.Wrapf(err, "look up user %s", username)
	}
	g, err := user.LookupGroup(group)
	if err != nil {
		return false, cerr.Wrapf(err, "look up group %s", group)
	}
	gids, err := u.GroupIds()
	if err != nil {
		return false, cerr.Wrapf(err, "list groups for %s", username)
	}
	for _, gid := range gids {
		if gid == g.Gid {
			return true, nil
		}
	}
	return false, nil
}
