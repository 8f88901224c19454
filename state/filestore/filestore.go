// Package filestore keeps ledger state on the local filesystem, one file per
// address.
package filestore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"cryptomoji.dev/moji/state"
)

// Store is a filesystem-backed state.Store.
//
// Values live at <root>/<kind>/<xx>/<address>, where kind is the two
// characters after the namespace and xx the next two. Set stages every value
// in a temporary file before renaming any into place, so a failed write
// leaves no partial update behind. A Store assumes it is the only writer of
// its directory.
type Store struct {
	root string
	mu   sync.RWMutex
}

var (
	_ state.Store  = (*Store)(nil)
	_ state.Lister = (*Store)(nil)
)

// New constructs a filesystem store rooted at root, creating it if needed.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("filestore: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root}, nil
}

func (s *Store) pathFor(key string) string {
	return filepath.Join(s.root, key[6:8], key[8:10], key)
}

func (s *Store) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := state.Validate(keys, nil); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		b, err := os.ReadFile(s.pathFor(k))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				out[k] = nil
				continue
			}
			return nil, err
		}
		out[k] = b
	}
	return out, nil
}

func (s *Store) Set(ctx context.Context, updates map[string][]byte) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := state.Validate(nil, updates); err != nil {
		return nil, err
	}
	keys := state.SortedKeys(updates)

	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make(map[string]string, len(keys))
	cleanup := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}
	for _, k := range keys {
		tmp, err := stage(filepath.Dir(s.pathFor(k)), updates[k])
		if err != nil {
			cleanup()
			return nil, err
		}
		staged[k] = tmp
	}
	for _, k := range keys {
		if err := os.Rename(staged[k], s.pathFor(k)); err != nil {
			cleanup()
			return nil, err
		}
		delete(staged, k)
	}
	return keys, nil
}

func stage(dir string, value []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	f, err := os.CreateTemp(dir, ".stage-*")
	if err != nil {
		return "", err
	}
	name := f.Name()
	if _, err := f.Write(value); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return "", err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}

func (s *Store) Delete(ctx context.Context, keys []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := state.Validate(keys, nil); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := map[string]struct{}{}
	for _, k := range keys {
		err := os.Remove(s.pathFor(k))
		if err == nil {
			removed[k] = struct{}{}
			continue
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return state.SortedKeys(removed), err
		}
	}
	return state.SortedKeys(removed), nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !state.ValidPrefix(prefix) {
		return nil, state.ErrInvalidKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if state.ValidKey(name) && strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}
