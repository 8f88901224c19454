package state

import (
	"context"
	"fmt"
	"slices"
)

// NamedStore associates a Store with a stable backend name.
type NamedStore struct {
	Name  string
	Store Store
}

// Replicating writes to all configured backends.
//
// Reads fall back in order. Writes go to every backend and require all of
// them to acknowledge the same keys (otherwise ErrAckMismatch is returned).
type Replicating struct {
	Backends []NamedStore
}

var _ Store = Replicating{}

func (r Replicating) stores() ([]Store, error) {
	if len(r.Backends) == 0 {
		return nil, fmt.Errorf("state: Replicating has no backends")
	}
	out := make([]Store, 0, len(r.Backends))
	for _, b := range r.Backends {
		if b.Store == nil {
			return nil, fmt.Errorf("state: nil store for backend %q", b.Name)
		}
		out = append(out, b.Store)
	}
	return out, nil
}

func (r Replicating) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	stores, err := r.stores()
	if err != nil {
		return nil, err
	}
	return fallbackGet(ctx, stores, keys)
}

// SetAll writes updates to every backend and returns the per-backend
// acknowledgements keyed by backend name.
func (r Replicating) SetAll(ctx context.Context, updates map[string][]byte) ([]string, map[string][]string, error) {
	if _, err := r.stores(); err != nil {
		return nil, nil, err
	}
	want := SortedKeys(updates)
	acks := make(map[string][]string, len(r.Backends))
	for _, b := range r.Backends {
		got, err := b.Store.Set(ctx, updates)
		if err != nil {
			return nil, acks, fmt.Errorf("state: backend %q: %w", b.Name, err)
		}
		acks[b.Name] = got
		if !slices.Equal(got, want) {
			return nil, acks, ErrAckMismatch
		}
	}
	return want, acks, nil
}

func (r Replicating) Set(ctx context.Context, updates map[string][]byte) ([]string, error) {
	written, _, err := r.SetAll(ctx, updates)
	return written, err
}

// Delete removes keys from every backend and returns the union of removed keys.
func (r Replicating) Delete(ctx context.Context, keys []string) ([]string, error) {
	if _, err := r.stores(); err != nil {
		return nil, err
	}
	removed := map[string]struct{}{}
	for _, b := range r.Backends {
		got, err := b.Store.Delete(ctx, keys)
		if err != nil {
			return nil, fmt.Errorf("state: backend %q: %w", b.Name, err)
		}
		for _, k := range got {
			removed[k] = struct{}{}
		}
	}
	return SortedKeys(removed), nil
}

func (r Replicating) List(ctx context.Context, prefix string) ([]string, error) {
	stores, err := r.stores()
	if err != nil {
		return nil, err
	}
	return unionList(ctx, stores, prefix)
}
