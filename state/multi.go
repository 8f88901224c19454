package state

import (
	"context"
	"errors"
	"strings"
)

// Multi provides deterministic, ordered read fallback across several stores.
//
// Reads consult Stores in slice order; callers MUST supply a fixed order.
// Set and Delete go to the first store only.
type Multi struct {
	Stores []Store
}

var _ Store = Multi{}

var errNoStores = errors.New("state: no stores configured")

func (m Multi) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	if len(m.Stores) == 0 {
		return nil, errNoStores
	}
	return fallbackGet(ctx, m.Stores, keys)
}

func (m Multi) Set(ctx context.Context, updates map[string][]byte) ([]string, error) {
	if len(m.Stores) == 0 {
		return nil, errNoStores
	}
	return m.Stores[0].Set(ctx, updates)
}

func (m Multi) Delete(ctx context.Context, keys []string) ([]string, error) {
	if len(m.Stores) == 0 {
		return nil, errNoStores
	}
	return m.Stores[0].Delete(ctx, keys)
}

// List unions the listings of every store that supports it.
func (m Multi) List(ctx context.Context, prefix string) ([]string, error) {
	return unionList(ctx, m.Stores, prefix)
}

func fallbackGet(ctx context.Context, stores []Store, keys []string) (map[string][]byte, error) {
	if err := checkKeys(keys); err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(keys))
	missing := append([]string(nil), keys...)
	for _, s := range stores {
		if len(missing) == 0 {
			break
		}
		got, err := s.Get(ctx, missing)
		if err != nil {
			return nil, err
		}
		next := missing[:0:0]
		for _, k := range missing {
			if Exists(got, k) {
				out[k] = got[k]
				continue
			}
			next = append(next, k)
		}
		missing = next
	}
	for _, k := range missing {
		out[k] = nil
	}
	return out, nil
}

func unionList(ctx context.Context, stores []Store, prefix string) ([]string, error) {
	set := map[string]struct{}{}
	listed := false
	for _, s := range stores {
		keys, err := List(ctx, s, prefix)
		if errors.Is(err, ErrListUnsupported) {
			continue
		}
		if err != nil {
			return nil, err
		}
		listed = true
		for _, k := range keys {
			if strings.HasPrefix(k, prefix) {
				set[k] = struct{}{}
			}
		}
	}
	if !listed {
		return nil, ErrListUnsupported
	}
	return SortedKeys(set), nil
}
