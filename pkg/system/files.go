// pkg/system/files.go

package system

import (
	"bufio"
	"context"
	"os"
	"os/user"
	"strconv"
	"strings"
	"syscall"

	"github.com/probitlabs/hostprep/pkg/hostprep_err"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// EnsureDirectory creates path with the given mode and owner, mkdir -p
// semantics. Existing directories get their mode and owner corrected.
func EnsureDirectory(ctx context.Context, path string, mode os.FileMode, owner string) error {
	logger := otelzap.Ctx(ctx)

	if info, err := os.Stat(path); err == nil {
		if !info.IsDir() {
			return hostprep_err.NewValidationError(path + " exists but is not a directory")
		}
		logger.Debug("Directory already exists", zap.String("path", path))
	} else if err := os.MkdirAll(path, mode); err != nil {
		return hostprep_err.NewActionError(err, "creating directory "+path)
	}

	return EnsureFileMode(ctx, path, mode, owner)
}

// EnsureFileMode sets mode and ownership on an existing path, chmod/chown
// semantics. Owner may be empty to leave ownership alone.
func EnsureFileMode(ctx context.Context, path string, mode os.FileMode, owner string) error {
	if err := os.Chmod(path, mode); err != nil {
		return hostprep_err.NewActionError(err, "setting mode on "+path)
	}
	if owner == "" {
		return nil
	}
	u, err := user.Lookup(owner)
	if err != nil {
		return cerr.Wrapf(err, "look up owner %s", owner)
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return cerr.Wrapf(err, "parse uid for %s", owner)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return cerr.Wrapf(err, "parse gid for %s", owner)
	}
	if err := os.Chown(path, uid, gid); err != nil {
		return hostprep_err.NewActionError(err, "setting owner on "+path)
	}
	return nil
}

// PathMatches reports whether path exists with exactly the given mode and,
// when owner is non-empty, the given owner.
func PathMatches(path string, mode os.FileMode, owner string) bool {
	info, err := os.Stat(path)
	if err != nil || info.Mode().Perm() != mode.Perm() {
		return false
	}
	if owner == "" {
		return true
	}
	u, err := user.Lookup(owner)
	if err != nil {
		return false
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return false
	}
	return strconv.FormatUint(uint64(stat.Uid), 10) == u.Uid
}

// ContainsConfigLine reports whether file holds line exactly (whitespace
// trimmed), ignoring commented-out occurrences.
func ContainsConfigLine(file, line string) (bool, error) {
	f, err := os.Open(file)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, cerr.Wrapf(err, "open %s", file)
	}
	defer f.Close()

	want := strings.TrimSpace(line)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == want {
			return true, nil
		}
	}
	return false, scanner.Err()
}

// AppendConfigLineIfAbsent appends line to file unless an identical line is
// already present, so a re-run never duplicates configuration.
func AppendConfigLineIfAbsent(ctx context.Context, file, line string) error {
	logger := otelzap.Ctx(ctx)

	present, err := ContainsConfigLine(file, line)
	if err != nil {
		return err
	}
	if present {
		logger.Info("Config line already present", zap.String("file", file))
		return nil
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return hostprep_err.NewActionError(err, "opening "+file+" for append")
	}
	defer f.Close()

	if _, err := f.WriteString(strings.TrimRight(line, "\n") + "\n"); err != nil {
		return hostprep_err.NewActionError(err, "appending to "+file)
	}
	logger.Info("Config line appended", zap.String("file", file))
	return nil
}
