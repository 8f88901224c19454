// Package state defines the key-value world state consumed by the cryptomoji
// processor and provides adapters for it.
//
// Keys are fixed-width ledger addresses (70 lowercase hex characters). Values
// are opaque bytes; an empty value means the address holds no record.
package state

import (
	"context"
	"sort"
)

// KeyLength is the width of every state key.
const KeyLength = 70

// Store is the host-supplied world state.
//
// Contract:
//   - Get MUST return an entry for every requested key; absent keys map to an
//     empty value.
//   - Set MUST apply all updates or none, and returns the keys written, sorted.
//   - Delete returns the keys that held a value and were removed, sorted.
//   - Keys MUST satisfy ValidKey; otherwise ErrInvalidKey is returned.
//   - Set MUST reject empty values with ErrEmptyValue; use Delete instead.
type Store interface {
	Get(ctx context.Context, keys []string) (map[string][]byte, error)
	Set(ctx context.Context, updates map[string][]byte) ([]string, error)
	Delete(ctx context.Context, keys []string) ([]string, error)
}

// Lister is implemented by stores that support prefix range scans.
type Lister interface {
	// List returns every key starting with prefix, sorted ascending.
	List(ctx context.Context, prefix string) ([]string, error)
}

// ValidKey reports whether key is 70 lowercase hex characters.
func ValidKey(key string) bool {
	if len(key) != KeyLength {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// ValidPrefix reports whether prefix can select keys: lowercase hex, no
// longer than KeyLength.
func ValidPrefix(prefix string) bool {
	if len(prefix) > KeyLength {
		return false
	}
	for i := 0; i < len(prefix); i++ {
		c := prefix[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func checkKeys(keys []string) error {
	for _, k := range keys {
		if !ValidKey(k) {
			return ErrInvalidKey
		}
	}
	return nil
}

func checkUpdates(updates map[string][]byte) error {
	for k, v := range updates {
		if !ValidKey(k) {
			return ErrInvalidKey
		}
		if len(v) == 0 {
			return ErrEmptyValue
		}
	}
	return nil
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Exists reports whether key holds a non-empty value in a Get result.
func Exists(got map[string][]byte, key string) bool {
	return len(got[key]) > 0
}

// List scans store for keys under prefix. It returns ErrListUnsupported when
// store does not implement Lister.
func List(ctx context.Context, store Store, prefix string) ([]string, error) {
	if !ValidPrefix(prefix) {
		return nil, ErrInvalidKey
	}
	l, ok := store.(Lister)
	if !ok {
		return nil, ErrListUnsupported
	}
	return l.List(ctx, prefix)
}

// Validate checks keys and updates against the Store contract. Adapters call
// it before touching their backend.
func Validate(keys []string, updates map[string][]byte) error {
	if err := checkKeys(keys); err != nil {
		return err
	}
	return checkUpdates(updates)
}
