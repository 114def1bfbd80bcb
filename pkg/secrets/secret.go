// pkg/secrets/secret.go

// Package secrets generates, fetches, and persists secret material. Secret
// values never appear in logs or error messages; the type stringifies to a
// redacted form so even accidental %v formatting stays safe.
package secrets

import (
	"github.com/probitlabs/hostprep/pkg/crypto"
)

// Kind identifies what a secret is used for.
type Kind string

const (
	KindPassword Kind = "password"
	KindSSHKey   Kind = "ssh-key"
)

// SourceKind identifies where a secret came from.
type SourceKind string

const (
	SourceGenerated  SourceKind = "generated"
	SourceDownloaded SourceKind = "downloaded"
	SourceProvided   SourceKind = "provided"
)

// Source records a secret's provenance. URL is set only for downloads.
type Source struct {
	Kind SourceKind
	URL  string
}

// Secret holds sensitive material. The value is unexported; use Reveal at the
// single point where the plaintext is consumed, and Zero afterward.
type Secret struct {
	Kind   Kind
	Source Source
	value  []byte
}

// NewSecret wraps already-obtained material, e.g. a flag or environment value.
func NewSecret(kind Kind, source Source, value []byte) *Secret {
	return &Secret{Kind: kind, Source: source, value: value}
}

// Reveal returns the plaintext value.
func (s *Secret) Reveal() string {
	return string(s.value)
}

// Bytes returns the raw value.
func (s *Secret) Bytes() []byte {
	return s.value
}

// IsEmpty reports whether the secret carries no material.
func (s *Secret) IsEmpty() bool {
	return s == nil || len(s.value) == 0
}

// Zero overwrites the value in place. Best effort, same caveats as
// crypto.SecureZero.
func (s *Secret) Zero() {
	crypto.SecureZero(s.value)
	s.value = nil
}

// String implements fmt.Stringer with a redacted rendering.
func (s *Secret) String() string {
	if s == nil {
		return "(nil)"
	}
	return string(s.Kind) + ":" + crypto.Redact(string(s.value))
}
