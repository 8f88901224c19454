package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cryptomoji.dev/moji/processor"
	"cryptomoji.dev/moji/state"
)

// ErrOutsideScope reports a read or write outside what the transaction
// header and the handler's registration allow.
var ErrOutsideScope = errors.New("ledger: address outside transaction scope")

// scopedStore restricts a handler to its header inputs and outputs and to
// the namespaces it registered.
type scopedStore struct {
	inner   state.Store
	inputs  []string
	outputs []string
	reg     processor.Registration
}

func hasAnyPrefix(key string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

func (s scopedStore) readable(keys []string) error {
	for _, k := range keys {
		if !hasAnyPrefix(k, s.inputs) {
			return fmt.Errorf("%w: read %s", ErrOutsideScope, k)
		}
	}
	return nil
}

func (s scopedStore) writable(keys []string) error {
	for _, k := range keys {
		if !hasAnyPrefix(k, s.outputs) || !s.reg.Owns(k) {
			return fmt.Errorf("%w: write %s", ErrOutsideScope, k)
		}
	}
	return nil
}

func (s scopedStore) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	if err := s.readable(keys); err != nil {
		return nil, err
	}
	return s.inner.Get(ctx, keys)
}

func (s scopedStore) Set(ctx context.Context, updates map[string][]byte) ([]string, error) {
	if err := s.writable(state.SortedKeys(updates)); err != nil {
		return nil, err
	}
	return s.inner.Set(ctx, updates)
}

func (s scopedStore) Delete(ctx context.Context, keys []string) ([]string, error) {
	if err := s.writable(keys); err != nil {
		return nil, err
	}
	return s.inner.Delete(ctx, keys)
}
