// Package stateregistry lets binaries choose a state.Store backend by name.
package stateregistry

import (
	"flag"
	"fmt"
	"sort"
	"sync"

	"cryptomoji.dev/moji/state"
)

// Option is one backend setting. It is accepted both as a config key and,
// prefixed with the backend name, as a command-line flag
// (e.g. "dir" of backend "file" becomes --file-dir).
type Option struct {
	Key     string
	Default string
	Help    string
}

// Backend can open a state.Store from string settings.
//
// Backends typically register themselves in init():
//
//	stateregistry.MustRegister(stateregistry.Backend{ ... })
type Backend struct {
	Name        string
	Description string
	Usage       Usage
	Options     []Option

	// Open constructs the store. Settings missing from cfg take the option
	// defaults. It returns an optional close function.
	Open func(cfg map[string]string) (state.Store, func() error, error)
}

var (
	mu       sync.RWMutex
	backends = map[string]Backend{}
)

func Register(b Backend) error {
	if b.Name == "" {
		return fmt.Errorf("stateregistry: backend name is required")
	}
	if b.Open == nil {
		return fmt.Errorf("stateregistry: backend %q missing Open", b.Name)
	}
	if b.Usage == 0 {
		return fmt.Errorf("stateregistry: backend %q missing Usage", b.Name)
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := backends[b.Name]; exists {
		return fmt.Errorf("stateregistry: backend %q already registered", b.Name)
	}
	backends[b.Name] = b
	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister(b Backend) {
	if err := Register(b); err != nil {
		panic(err)
	}
}

// List returns backends matching usage, sorted by name.
func List(usage Usage) []Backend {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Backend, 0, len(backends))
	for _, b := range backends {
		if b.Usage.allows(usage) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func Names(usage Usage) []string {
	bs := List(usage)
	n := make([]string, 0, len(bs))
	for _, b := range bs {
		n = append(n, b.Name)
	}
	return n
}

// FlagValues holds the flag-bound settings of every registered backend.
type FlagValues map[string]map[string]*string

// RegisterFlags binds one flag per backend option for all backends matching
// usage, so a single flag.Parse covers every backend.
func RegisterFlags(fs *flag.FlagSet, usage Usage) FlagValues {
	out := FlagValues{}
	for _, b := range List(usage) {
		vals := map[string]*string{}
		for _, o := range b.Options {
			vals[o.Key] = fs.String(b.Name+"-"+o.Key, o.Default, o.Help+" (for --backend="+b.Name+")")
		}
		out[b.Name] = vals
	}
	return out
}

// Config returns the parsed flag settings for backend name.
func (f FlagValues) Config(name string) map[string]string {
	cfg := map[string]string{}
	for k, v := range f[name] {
		if v != nil {
			cfg[k] = *v
		}
	}
	return cfg
}

// Open opens the named backend if it exists and matches usage. Unknown
// settings are rejected.
func Open(name string, usage Usage, cfg map[string]string) (state.Store, func() error, error) {
	mu.RLock()
	b, ok := backends[name]
	mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("unknown backend %q", name)
	}
	if !b.Usage.allows(usage) {
		return nil, nil, fmt.Errorf("backend %q not supported in this binary", name)
	}
	merged := make(map[string]string, len(b.Options))
	for _, o := range b.Options {
		merged[o.Key] = o.Default
	}
	for k, v := range cfg {
		if !b.hasOption(k) {
			return nil, nil, fmt.Errorf("backend %q: unknown setting %q", name, k)
		}
		merged[k] = v
	}
	store, closeFn, err := b.Open(merged)
	if err != nil {
		return nil, nil, fmt.Errorf("backend %q: %w", name, err)
	}
	if closeFn == nil {
		closeFn = func() error { return nil }
	}
	return store, closeFn, nil
}

func (b Backend) hasOption(key string) bool {
	for _, o := range b.Options {
		if o.Key == key {
			return true
		}
	}
	return false
}

func init() {
	MustRegister(Backend{
		Name:        "memory",
		Description: "In-process map; contents are lost on exit",
		Usage:       UsageCLI | UsageDaemon,
		Open: func(map[string]string) (state.Store, func() error, error) {
			return state.NewMemory(), nil, nil
		},
	})
}
