package keys

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// KeyStore keeps seeds on the local filesystem:
//
//	<Directory>/<identifier>/root.key
//	<Directory>/<identifier>/roles/<role>.key
//
// Each file holds one hex seed. Role seeds are derived from the root, so
// only root.key needs backing up.
type KeyStore struct {
	Directory string
}

type KeyEntry struct {
	Identifier string
	Roles      []string
}

func DefaultDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".moji", "keys"), nil
}

// Open returns a KeyStore rooted at directory, or at DefaultDirectory when
// directory is empty.
func Open(directory string) (*KeyStore, error) {
	if directory == "" {
		var err error
		directory, err = DefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &KeyStore{Directory: directory}, nil
}

func (ks *KeyStore) rootPath(identifier string) string {
	return filepath.Join(ks.Directory, identifier, "root.key")
}

func (ks *KeyStore) rolePath(identifier, role string) string {
	return filepath.Join(ks.Directory, identifier, "roles", role+".key")
}

func checkName(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%s cannot be empty", kind)
	}
	for _, c := range name {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in %s", c, kind)
	}
	return nil
}

func CheckKeyName(identifier string) error { return checkName("identifier", identifier) }
func CheckRole(role string) error          { return checkName("role", role) }

func ParseSeedHex(seedHex string) ([]byte, error) {
	seedHex = strings.TrimPrefix(strings.TrimSpace(seedHex), "0x")
	data, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, err
	}
	if len(data) != SeedSize {
		return nil, fmt.Errorf("expected seed length of %d bytes, got %d", SeedSize, len(data))
	}
	return data, nil
}

func saveSeed(path string, seed []byte, overwrite bool) error {
	if len(seed) != SeedSize {
		return fmt.Errorf("expected seed length of %d bytes", SeedSize)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(hex.EncodeToString(seed) + "\n"); err != nil {
		return err
	}
	return f.Close()
}

func loadSeed(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSeedHex(string(data))
}

// InitializeRootKey stores seed as identifier's root and returns its signer.
func (ks *KeyStore) InitializeRootKey(identifier string, alg Algorithm, seed []byte, overwrite bool) (Signer, string, error) {
	if err := CheckKeyName(identifier); err != nil {
		return nil, "", err
	}
	signer, err := NewSigner(alg, seed)
	if err != nil {
		return nil, "", err
	}
	path := ks.rootPath(identifier)
	if err := saveSeed(path, seed, overwrite); err != nil {
		return nil, "", err
	}
	return signer, path, nil
}

// DeriveKeyFromRole derives and stores a role seed under from's root.
func (ks *KeyStore) DeriveKeyFromRole(from, role string, alg Algorithm, overwrite bool) (Signer, string, error) {
	if err := CheckKeyName(from); err != nil {
		return nil, "", err
	}
	if err := CheckRole(role); err != nil {
		return nil, "", err
	}
	root, err := loadSeed(ks.rootPath(from))
	if err != nil {
		return nil, "", err
	}
	seed, err := DeriveRoleSeed(root, role)
	if err != nil {
		return nil, "", err
	}
	signer, err := NewSigner(alg, seed)
	if err != nil {
		return nil, "", err
	}
	path := ks.rolePath(from, role)
	if err := saveSeed(path, seed, overwrite); err != nil {
		return nil, "", err
	}
	return signer, path, nil
}

// LoadSeed resolves a seed from, in order: an explicit hex seed, a key file,
// or a named identity (and optional role) in the store.
func (ks *KeyStore) LoadSeed(seedHex, identifier, role, keyFile string) ([]byte, error) {
	if seedHex != "" {
		return ParseSeedHex(seedHex)
	}
	if keyFile != "" {
		return loadSeed(keyFile)
	}
	if identifier != "" {
		if err := CheckKeyName(identifier); err != nil {
			return nil, err
		}
		if role == "" {
			return loadSeed(ks.rootPath(identifier))
		}
		if err := CheckRole(role); err != nil {
			return nil, err
		}
		return loadSeed(ks.rolePath(identifier, role))
	}
	return nil, errors.New("no signer provided")
}

// Signer loads identifier's root (role == "") or role key as a signer.
func (ks *KeyStore) Signer(identifier, role string, alg Algorithm) (Signer, error) {
	seed, err := ks.LoadSeed("", identifier, role, "")
	if err != nil {
		return nil, err
	}
	return NewSigner(alg, seed)
}

func (ks *KeyStore) ListKeys() ([]KeyEntry, error) {
	entries, err := os.ReadDir(ks.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var identifiers []string
	for _, entry := range entries {
		if entry.IsDir() {
			identifiers = append(identifiers, entry.Name())
		}
	}
	sort.Strings(identifiers)

	var result []KeyEntry
	for _, identifier := range identifiers {
		roleEntries, rerr := os.ReadDir(filepath.Join(ks.Directory, identifier, "roles"))
		var roles []string
		if rerr == nil {
			for _, re := range roleEntries {
				if !re.IsDir() && strings.HasSuffix(re.Name(), ".key") {
					roles = append(roles, strings.TrimSuffix(re.Name(), ".key"))
				}
			}
			sort.Strings(roles)
		}
		result = append(result, KeyEntry{Identifier: identifier, Roles: roles})
	}
	return result, nil
}
