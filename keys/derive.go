package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
)

// SeedSize is the length of every root and role seed.
const SeedSize = ed25519.SeedSize

// DeriveRoleSeed deterministically derives a role-specific seed from a root
// seed, so one backed-up root can regenerate every role key.
func DeriveRoleSeed(rootSeed []byte, role string) ([]byte, error) {
	if len(rootSeed) != SeedSize {
		return nil, fmt.Errorf("root seed must be %d bytes", SeedSize)
	}
	if err := CheckRole(role); err != nil {
		return nil, err
	}

	h := sha256.New()
	_, _ = h.Write(rootSeed)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("cryptomoji-keys-v1"))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("role:"))
	_, _ = h.Write([]byte(role))
	return h.Sum(nil)[:SeedSize], nil
}

// PublicKeyHexFromSeed returns the hex public key alg derives from seed.
func PublicKeyHexFromSeed(alg Algorithm, seed []byte) (string, error) {
	s, err := NewSigner(alg, seed)
	if err != nil {
		return "", err
	}
	return s.PublicKeyHex(), nil
}
