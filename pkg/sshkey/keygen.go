// pkg/sshkey/keygen.go

// Package sshkey generates SSH key material natively. Generation refuses to
// touch an existing key unless explicitly forced: silently regenerating would
// strand every host that already trusts the distributed public key.
package sshkey

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/probitlabs/hostprep/pkg/hostprep_err"
	"github.com/probitlabs/hostprep/pkg/telemetry"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
)

// Algorithm selects the key type.
type Algorithm string

const (
	AlgorithmEd25519 Algorithm = "ed25519"
	AlgorithmRSA     Algorithm = "rsa"
)

// KeypairOptions configures GenerateKeypair.
type KeypairOptions struct {
	Algorithm   Algorithm
	Bits        int    // RSA only; minimum 2048, default 4096
	Comment     string // appended to the public key line
	PrivatePath string // public key lands at PrivatePath + ".pub"
	Force       bool   // overwrite an existing keypair
}

// DefaultKeyPath returns ~/.ssh/id_<algorithm> for the given home.
func DefaultKeyPath(home string, alg Algorithm) string {
	return filepath.Join(home, ".ssh", "id_"+string(alg))
}

// Validate checks the options before any filesystem or crypto work.
func (o *KeypairOptions) Validate() error {
	switch o.Algorithm {
	case AlgorithmEd25519:
	case AlgorithmRSA:
		if o.Bits != 0 && o.Bits < 2048 {
			return hostprep_err.NewValidationError(fmt.Sprintf("RSA key size %d below minimum of 2048 bits", o.Bits))
		}
	case "":
		return hostprep_err.NewValidationError("key algorithm is required")
	default:
		return hostprep_err.NewValidationError("unsupported key algorithm " + string(o.Algorithm))
	}
	if o.PrivatePath == "" {
		return hostprep_err.NewValidationError("private key path is required")
	}
	return nil
}

// Exists reports whether either half of the keypair is already on disk.
func Exists(privatePath string) bool {
	if _, err := os.Stat(privatePath); err == nil {
		return true
	}
	_, err := os.Stat(privatePath + ".pub")
	return err == nil
}

// GenerateKeypair writes a new private/public keypair (0600/0644). It fails
// when a key already exists at the destination unless Force is set.
func GenerateKeypair(ctx context.Context, opts KeypairOptions) error {
	logger := otelzap.Ctx(ctx)

	_, span := telemetry.Start(ctx, "sshkey.GenerateKeypair")
	defer span.End()

	if err := opts.Validate(); err != nil {
		return err
	}

	if Exists(opts.PrivatePath) && !opts.Force {
		return hostprep_err.NewValidationError(
			"key already exists at "+opts.PrivatePath,
			"pass --force to overwrite; distributed copies of the old public key stop working")
	}

	if err := os.MkdirAll(filepath.Dir(opts.PrivatePath), 0700); err != nil {
		return hostprep_err.NewActionError(err, "creating key directory")
	}

	privPEM, pubLine, err := newKeypair(opts)
	if err != nil {
		return err
	}

	logger.Info("Writing keypair",
		zap.String("algorithm", string(opts.Algorithm)),
		zap.String("path", opts.PrivatePath))

	if err := writeKeyFile(opts.PrivatePath, privPEM, 0600); err != nil {
		return err
	}
	if err := writeKeyFile(opts.PrivatePath+".pub", []byte(pubLine), 0644); err != nil {
		return err
	}
	return nil
}

func newKeypair(opts KeypairOptions) (privPEM []byte, pubLine string, err error) {
	var signerPub ssh.PublicKey
	var block *pem.Block

	switch opts.Algorithm {
	case AlgorithmEd25519:
		pub, priv, genErr := ed25519.GenerateKey(rand.Reader)
		if genErr != nil {
			return nil, "", cerr.Wrap(genErr, "generate ed25519 key")
		}
		block, err = ssh.MarshalPrivateKey(priv, opts.Comment)
		if err != nil {
			return nil, "", cerr.Wrap(err, "marshal private key")
		}
		signerPub, err = ssh.NewPublicKey(pub)
	case AlgorithmRSA:
		bits := opts.Bits
		if bits == 0 {
			bits = 4096
		}
		priv, genErr := rsa.GenerateKey(rand.Reader, bits)
		if genErr != nil {
			return nil, "", cerr.Wrap(genErr, "generate RSA key")
		}
		block, err = ssh.MarshalPrivateKey(priv, opts.Comment)
		if err != nil {
			return nil, "", cerr.Wrap(err, "marshal private key")
		}
		signerPub, err = ssh.NewPublicKey(&priv.PublicKey)
	default:
		return nil, "", hostprep_err.NewValidationError("unsupported key algorithm " + string(opts.Algorithm))
	}
	if err != nil {
		return nil, "", cerr.Wrap(err, "derive public key")
	}

	pubLine = strings.TrimRight(string(ssh.MarshalAuthorizedKey(signerPub)), "\n")
	if opts.Comment != "" {
		pubLine += " " + opts.Comment
	}
	return pem.EncodeToMemory(block), pubLine + "\n", nil
}

// writeKeyFile creates the file with its final mode before any content is
// written, so key material is never world-readable even briefly.
func writeKeyFile(path string, data []byte, mode os.FileMode) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return hostprep_err.NewActionError(err, "removing old key at "+path)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, mode)
	if err != nil {
		return hostprep_err.NewActionError(err, "creating "+path)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return hostprep_err.NewActionError(err, "writing "+path)
	}
	if err := f.Close(); err != nil {
		return hostprep_err.NewActionError(err, "closing "+path)
	}
	return nil
}
