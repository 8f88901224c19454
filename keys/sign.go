package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/sha3"
)

// Algorithm names a signature scheme.
type Algorithm string

const (
	Ed25519    Algorithm = "ed25519"
	Dilithium3 Algorithm = "dilithium3"
)

var (
	ErrUnknownKey       = errors.New("keys: unrecognized public key")
	ErrInvalidSignature = errors.New("keys: signature does not verify")
)

// ParseAlgorithm accepts the names used by the CLI and configuration.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case Ed25519, "":
		return Ed25519, nil
	case Dilithium3:
		return Dilithium3, nil
	default:
		return "", fmt.Errorf("unsupported key algorithm: %q", s)
	}
}

// Signer produces hex signatures attributable to PublicKeyHex.
type Signer interface {
	Algorithm() Algorithm
	PublicKeyHex() string
	Sign(message []byte) (string, error)
}

// NewSigner builds a deterministic signer of the given algorithm from a
// 32-byte seed.
func NewSigner(alg Algorithm, seed []byte) (Signer, error) {
	switch alg {
	case Ed25519:
		s, err := NewEd25519Signer(seed)
		if err != nil {
			return nil, err
		}
		return s, nil
	case Dilithium3:
		s, err := NewDilithium3Signer(seed)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported key algorithm: %q", alg)
	}
}

// Ed25519Signer signs sha256(message) with an Ed25519 key.
type Ed25519Signer struct {
	priv ed25519.PrivateKey
}

func NewEd25519Signer(seed []byte) (*Ed25519Signer, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("ed25519 seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	return &Ed25519Signer{priv: ed25519.NewKeyFromSeed(seed)}, nil
}

func (s *Ed25519Signer) Algorithm() Algorithm { return Ed25519 }

func (s *Ed25519Signer) PublicKeyHex() string {
	return hex.EncodeToString(s.priv.Public().(ed25519.PublicKey))
}

func (s *Ed25519Signer) Sign(message []byte) (string, error) {
	digest := sha256.Sum256(message)
	return hex.EncodeToString(ed25519.Sign(s.priv, digest[:])), nil
}

// Dilithium3Signer signs sha3-256(message) with a Dilithium3 key.
type Dilithium3Signer struct {
	pub  *mode3.PublicKey
	priv *mode3.PrivateKey
}

func NewDilithium3Signer(seed []byte) (*Dilithium3Signer, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("dilithium3 seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	var s [SeedSize]byte
	copy(s[:], seed)
	pub, priv := mode3.NewKeyFromSeed(&s)
	return &Dilithium3Signer{pub: pub, priv: priv}, nil
}

func (s *Dilithium3Signer) Algorithm() Algorithm { return Dilithium3 }

func (s *Dilithium3Signer) PublicKeyHex() string { return hex.EncodeToString(s.pub.Bytes()) }

func (s *Dilithium3Signer) Sign(message []byte) (string, error) {
	digest := sha3.Sum256(message)
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(s.priv, digest[:], sig)
	return hex.EncodeToString(sig), nil
}

// Verify checks sigHex over message against publicKeyHex. The algorithm is
// inferred from the decoded key length.
func Verify(publicKeyHex string, message []byte, sigHex string) error {
	pub, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownKey, err)
	}
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	switch len(pub) {
	case ed25519.PublicKeySize:
		digest := sha256.Sum256(message)
		if !ed25519.Verify(ed25519.PublicKey(pub), digest[:], sig) {
			return ErrInvalidSignature
		}
		return nil
	case mode3.PublicKeySize:
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return fmt.Errorf("%w: %v", ErrUnknownKey, err)
		}
		digest := sha3.Sum256(message)
		if !mode3.Verify(&pk, digest[:], sig) {
			return ErrInvalidSignature
		}
		return nil
	default:
		return fmt.Errorf("%w: %d-byte key", ErrUnknownKey, len(pub))
	}
}

// AlgorithmOf reports the scheme of a hex public key.
func AlgorithmOf(publicKeyHex string) (Algorithm, error) {
	pub, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnknownKey, err)
	}
	switch len(pub) {
	case ed25519.PublicKeySize:
		return Ed25519, nil
	case mode3.PublicKeySize:
		return Dilithium3, nil
	default:
		return "", fmt.Errorf("%w: %d-byte key", ErrUnknownKey, len(pub))
	}
}
