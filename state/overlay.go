package state

import (
	"bytes"
	"context"
	"sort"
	"strings"
)

// Overlay buffers writes on top of a base Store.
//
// Reads see buffered writes first. Nothing reaches the base until Commit,
// which lets a host apply several transactions and keep all of their writes
// or none. An Overlay is not safe for concurrent use.
type Overlay struct {
	base    Store
	pending map[string][]byte
	deleted map[string]struct{}
}

var _ Store = (*Overlay)(nil)

func NewOverlay(base Store) *Overlay {
	return &Overlay{
		base:    base,
		pending: map[string][]byte{},
		deleted: map[string]struct{}{},
	}
}

func (o *Overlay) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	if err := checkKeys(keys); err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(keys))
	var miss []string
	for _, k := range keys {
		if v, ok := o.pending[k]; ok {
			out[k] = bytes.Clone(v)
			continue
		}
		if _, ok := o.deleted[k]; ok {
			out[k] = nil
			continue
		}
		miss = append(miss, k)
	}
	if len(miss) == 0 {
		return out, nil
	}
	got, err := o.base.Get(ctx, miss)
	if err != nil {
		return nil, err
	}
	for _, k := range miss {
		out[k] = got[k]
	}
	return out, nil
}

func (o *Overlay) Set(ctx context.Context, updates map[string][]byte) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkUpdates(updates); err != nil {
		return nil, err
	}
	for k, v := range updates {
		o.pending[k] = bytes.Clone(v)
		delete(o.deleted, k)
	}
	return SortedKeys(updates), nil
}

func (o *Overlay) Delete(ctx context.Context, keys []string) ([]string, error) {
	got, err := o.Get(ctx, keys)
	if err != nil {
		return nil, err
	}
	removed := map[string]struct{}{}
	for _, k := range keys {
		if !Exists(got, k) {
			continue
		}
		delete(o.pending, k)
		o.deleted[k] = struct{}{}
		removed[k] = struct{}{}
	}
	return SortedKeys(removed), nil
}

// List merges buffered writes and deletions with the base listing. It
// returns ErrListUnsupported when the base cannot list.
func (o *Overlay) List(ctx context.Context, prefix string) ([]string, error) {
	baseKeys, err := List(ctx, o.base, prefix)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(baseKeys)+len(o.pending))
	for _, k := range baseKeys {
		if _, gone := o.deleted[k]; !gone {
			set[k] = struct{}{}
		}
	}
	for k := range o.pending {
		if strings.HasPrefix(k, prefix) {
			set[k] = struct{}{}
		}
	}
	return SortedKeys(set), nil
}

// Writes returns a copy of the buffered updates.
func (o *Overlay) Writes() map[string][]byte {
	out := make(map[string][]byte, len(o.pending))
	for k, v := range o.pending {
		out[k] = bytes.Clone(v)
	}
	return out
}

// Deletions returns the buffered deletions, sorted.
func (o *Overlay) Deletions() []string { return SortedKeys(o.deleted) }

// Dirty reports whether anything is buffered.
func (o *Overlay) Dirty() bool { return len(o.pending) > 0 || len(o.deleted) > 0 }

// Commit flushes buffered updates to the base in a single Set, then buffered
// deletions in a single Delete, and clears the buffer on success.
func (o *Overlay) Commit(ctx context.Context) ([]string, error) {
	var written []string
	if len(o.pending) > 0 {
		w, err := o.base.Set(ctx, o.pending)
		if err != nil {
			return nil, err
		}
		written = w
	}
	if len(o.deleted) > 0 {
		if _, err := o.base.Delete(ctx, SortedKeys(o.deleted)); err != nil {
			return written, err
		}
	}
	o.Discard()
	sort.Strings(written)
	return written, nil
}

// Discard drops everything buffered.
func (o *Overlay) Discard() {
	o.pending = map[string][]byte{}
	o.deleted = map[string]struct{}{}
}
