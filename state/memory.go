package state

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-process Store. It is safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var (
	_ Store  = (*Memory)(nil)
	_ Lister = (*Memory)(nil)
)

func NewMemory() *Memory {
	return &Memory{data: map[string][]byte{}}
}

func (m *Memory) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkKeys(keys); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		out[k] = bytes.Clone(m.data[k])
	}
	return out, nil
}

func (m *Memory) Set(ctx context.Context, updates map[string][]byte) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkUpdates(updates); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range updates {
		m.data[k] = bytes.Clone(v)
	}
	return SortedKeys(updates), nil
}

func (m *Memory) Delete(ctx context.Context, keys []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkKeys(keys); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			removed[k] = struct{}{}
		}
	}
	return SortedKeys(removed), nil
}

func (m *Memory) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
