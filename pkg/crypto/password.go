// pkg/crypto/password.go

package crypto

import (
	"crypto/rand"
	"encoding/base64"

	cerr "github.com/cockroachdb/errors"
)

// MinPasswordBytes is the smallest amount of random material accepted for a
// generated password. 24 bytes gives 192 bits of entropy.
const MinPasswordBytes = 24

// DefaultPasswordBytes is used when the caller does not specify a strength.
const DefaultPasswordBytes = 32

// GeneratePassword returns a base64-encoded password built from byteStrength
// cryptographically random bytes. It never derives from predictable inputs
// such as hostname or time.
func GeneratePassword(byteStrength int) (string, error) {
	if byteStrength < MinPasswordBytes {
		return "", cerr.Newf("password strength %d below minimum of %d random bytes", byteStrength, MinPasswordBytes)
	}
	raw := make([]byte, byteStrength)
	if _, err := rand.Read(raw); err != nil {
		return "", cerr.Wrap(err, "read random bytes")
	}
	pw := base64.RawURLEncoding.EncodeToString(raw)
	SecureZero(raw)
	return pw, nil
}

// SecureZero overwrites b in place. Best effort only: Go gives no guarantee
// the compiler keeps the writes, and copies may already exist.
func SecureZero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
