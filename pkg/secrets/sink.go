// pkg/secrets/sink.go

package secrets

import (
	"context"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/probitlabs/hostprep/pkg/telemetry"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Field is one KEY=VALUE entry of a credential record. Order is preserved.
type Field struct {
	Key    string
	Value  string
	Secret bool
}

// CredentialRecord describes a credentials file to persist: owner-only mode,
// owned by the invoking non-root user, never root.
type CredentialRecord struct {
	Path   string
	Owner  string
	Mode   os.FileMode
	Fields []Field
}

// AddField appends a plain field.
func (r *CredentialRecord) AddField(key, value string) {
	r.Fields = append(r.Fields, Field{Key: key, Value: value})
}

// AddSecret appends a field whose value must never be logged.
func (r *CredentialRecord) AddSecret(key string, s *Secret) {
	r.Fields = append(r.Fields, Field{Key: key, Value: s.Reveal(), Secret: true})
}

// Persist writes the record as KEY=VALUE lines. The content goes to a
// temporary file in the destination directory with the restrictive mode set
// before any byte is written, then an atomic rename puts it in place. A crash
// mid-write leaves at most a temp file, never a partial credentials file at
// the canonical path, and the file is never readable by other users at any
// point.
func Persist(ctx context.Context, rec CredentialRecord) (string, error) {
	logger := otelzap.Ctx(ctx)

	_, span := telemetry.Start(ctx, "secrets.Persist")
	defer span.End()

	if rec.Path == "" {
		return "", cerr.New("credential record has no path")
	}
	mode := rec.Mode
	if mode == 0 {
		mode = 0600
	}

	dir := filepath.Dir(rec.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", cerr.Wrapf(err, "create credentials directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".creds-*")
	if err != nil {
		return "", cerr.Wrapf(err, "create temporary file in %s", dir)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	// Mode first, content second.
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return "", cerr.Wrap(err, "set credentials file mode")
	}

	var sb strings.Builder
	for _, f := range rec.Fields {
		sb.WriteString(f.Key)
		sb.WriteString("=")
		sb.WriteString(f.Value)
		sb.WriteString("\n")
	}
	if _, err := tmp.WriteString(sb.String()); err != nil {
		tmp.Close()
		return "", cerr.Wrap(err, "write credentials")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", cerr.Wrap(err, "sync credentials")
	}
	if err := tmp.Close(); err != nil {
		return "", cerr.Wrap(err, "close credentials file")
	}

	if err := os.Rename(tmpName, rec.Path); err != nil {
		return "", cerr.Wrapf(err, "move credentials into place at %s", rec.Path)
	}

	if rec.Owner != "" {
		if err := chownToUser(rec.Path, rec.Owner); err != nil {
			return "", err
		}
		if err := chownToUser(dir, rec.Owner); err != nil {
			return "", err
		}
	}

	logger.Info("Credentials persisted",
		zap.String("path", rec.Path),
		zap.String("owner", rec.Owner),
		zap.Int("fields", len(rec.Fields)))
	return rec.Path, nil
}

func chownToUser(path, username string) error {
	u, err := user.Lookup(username)
	if err != nil {
		return cerr.Wrapf(err, "look up owner %s", username)
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return cerr.Wrapf(err, "parse uid for %s", username)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return cerr.Wrapf(err, "parse gid for %s", username)
	}
	if err := os.Chown(path, uid, gid); err != nil {
		return cerr.Wrapf(err, "chown %s to %s", path, username)
	}
	return nil
}
