// pkg/secrets/provider.go

package secrets

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/probitlabs/hostprep/pkg/crypto"
	"github.com/probitlabs/hostprep/pkg/hostprep_err"
	"github.com/probitlabs/hostprep/pkg/httpclient"
	"github.com/probitlabs/hostprep/pkg/telemetry"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// GeneratePassword returns a generated password secret built from
// byteStrength random bytes (crypto.DefaultPasswordBytes when zero).
func GeneratePassword(byteStrength int) (*Secret, error) {
	if byteStrength == 0 {
		byteStrength = crypto.DefaultPasswordBytes
	}
	pw, err := crypto.GeneratePassword(byteStrength)
	if err != nil {
		return nil, err
	}
	return &Secret{
		Kind:   KindPassword,
		Source: Source{Kind: SourceGenerated},
		value:  []byte(pw),
	}, nil
}

// ValidateKeyURL checks a remote key URL before any network activity: it must
// be non-empty, parseable, and use the http or https scheme.
func ValidateKeyURL(raw string) error {
	if raw == "" {
		return hostprep_err.NewValidationError("remote key URL is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return hostprep_err.NewValidationError("remote key URL is malformed: " + err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return hostprep_err.NewValidationError(
			"remote key URL scheme must be http or https, got " + u.Scheme)
	}
	if u.Host == "" {
		return hostprep_err.NewValidationError("remote key URL has no host")
	}
	return nil
}

// FetchRemoteKey downloads SSH key material from a validated http(s) URL.
// The URL is checked before any dial; transport failures, non-2xx responses,
// and empty bodies all fail without returning partial material.
func FetchRemoteKey(ctx context.Context, rawURL string) (*Secret, error) {
	logger := otelzap.Ctx(ctx)

	ctx, span := telemetry.Start(ctx, "secrets.FetchRemoteKey")
	defer span.End()

	if err := ValidateKeyURL(rawURL); err != nil {
		return nil, err
	}

	logger.Info("Fetching remote key", zap.String("url", rawURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, hostprep_err.NewValidationError("building request for " + rawURL + ": " + err.Error())
	}

	resp, err := httpclient.DefaultClient().Do(req)
	if err != nil {
		return nil, hostprep_err.NewDownloadError(err, "fetching "+rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, hostprep_err.NewDownloadError(
			cerr.Newf("unexpected status %s", resp.Status), "fetching "+rawURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, hostprep_err.NewDownloadError(err, "reading response from "+rawURL)
	}
	if len(body) == 0 {
		return nil, hostprep_err.NewDownloadError(cerr.New("empty response body"), "fetching "+rawURL)
	}

	logger.Info("Remote key fetched", zap.Int("bytes", len(body)))
	return &Secret{
		Kind:   KindSSHKey,
		Source: Source{Kind: SourceDownloaded, URL: rawURL},
		value:  body,
	}, nil
}

// FetchRemoteKeyToFile downloads key material and installs it at dest with
// the given mode. The body lands in a temporary file in dest's directory and
// is renamed into place only after a complete, non-empty download, so a
// failed fetch never leaves a file at dest.
func FetchRemoteKeyToFile(ctx context.Context, rawURL, dest string, mode os.FileMode) error {
	secret, err := FetchRemoteKey(ctx, rawURL)
	if err != nil {
		return err
	}
	defer secret.Zero()

	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".key-*")
	if err != nil {
		return cerr.Wrapf(err, "create temporary file in %s", dir)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return cerr.Wrap(err, "set key file mode")
	}
	if _, err := tmp.Write(secret.Bytes()); err != nil {
		tmp.Close()
		return cerr.Wrap(err, "write key material")
	}
	if err := tmp.Close(); err != nil {
		return cerr.Wrap(err, "close key file")
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return cerr.Wrapf(err, "move key into place at %s", dest)
	}
	return nil
}
