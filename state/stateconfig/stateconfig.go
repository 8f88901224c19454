// Package stateconfig opens one or more state backends from configuration.
//
// Callers still need to link desired backends via blank imports.
//
// WritePolicy values:
//   - "first" (default): write only to the first backend; reads fall back in order
//   - "all": write to every backend and require identical acknowledgements
//     (see state.Replicating)
//
// Example (TOML, as embedded under [state] in the moji config file):
//
//	write_policy = "all"
//
//	[[backends]]
//	name = "sqlite"
//	config = { path = "/var/lib/moji/state.db" }
//
//	[[backends]]
//	name = "file"
//	id = "mirror"
//	config = { dir = "/var/lib/moji/state" }
package stateconfig

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"

	"cryptomoji.dev/moji/state"
	"cryptomoji.dev/moji/state/stateregistry"
)

const (
	WriteFirst = "first"
	WriteAll   = "all"
)

type Config struct {
	WritePolicy string          `toml:"write_policy"`
	Backends    []BackendConfig `toml:"backends"`
}

type BackendConfig struct {
	// Name is the stateregistry backend to open.
	Name string `toml:"name"`
	// ID is an optional stable alias used in logs and acknowledgement maps.
	// If empty, Name is used.
	ID     string            `toml:"id"`
	Config map[string]string `toml:"config"`
}

func (b BackendConfig) id() string {
	if b.ID != "" {
		return b.ID
	}
	return b.Name
}

// LoadFile reads a standalone TOML state config. Unknown keys are rejected.
func LoadFile(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, errors.New("stateconfig: empty config path")
	}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("stateconfig: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("stateconfig: unknown key %q", undecoded[0].String())
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if len(c.Backends) == 0 {
		return errors.New("stateconfig: at least one backend is required")
	}
	seen := make(map[string]struct{}, len(c.Backends))
	for _, b := range c.Backends {
		if b.Name == "" {
			return errors.New("stateconfig: backend name is required")
		}
		if _, ok := seen[b.id()]; ok {
			return fmt.Errorf("stateconfig: duplicate backend id %q", b.id())
		}
		seen[b.id()] = struct{}{}
	}
	switch c.WritePolicy {
	case "", WriteFirst, WriteAll:
		return nil
	default:
		return fmt.Errorf("stateconfig: invalid write_policy %q", c.WritePolicy)
	}
}

// Open opens the configured backends and combines them per WritePolicy.
//
// If preferred is non-empty, the backend with that name or id is moved to
// the front (and thus receives writes under the "first" policy).
func (c Config) Open(usage stateregistry.Usage, preferred string) (state.Store, func() error, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	ordered, err := reorder(c.Backends, preferred)
	if err != nil {
		return nil, nil, err
	}

	named := make([]state.NamedStore, 0, len(ordered))
	closers := make([]func() error, 0, len(ordered))
	closeAll := func() error {
		var firstErr error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}
	for _, b := range ordered {
		s, closeFn, err := stateregistry.Open(b.Name, usage, b.Config)
		if err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("stateconfig: %s: %w", b.id(), err)
		}
		named = append(named, state.NamedStore{Name: b.id(), Store: s})
		closers = append(closers, closeFn)
	}

	if len(named) == 1 {
		return named[0].Store, closeAll, nil
	}
	if c.WritePolicy == WriteAll {
		return state.Replicating{Backends: named}, closeAll, nil
	}
	stores := make([]state.Store, 0, len(named))
	for _, n := range named {
		stores = append(stores, n.Store)
	}
	return state.Multi{Stores: stores}, closeAll, nil
}

func reorder(in []BackendConfig, preferred string) ([]BackendConfig, error) {
	out := append([]BackendConfig(nil), in...)
	if preferred == "" {
		return out, nil
	}
	idx := -1
	for i := range out {
		if out[i].Name == preferred || out[i].ID == preferred {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("stateconfig: preferred backend %q not found in config", preferred)
	}
	b := out[idx]
	copy(out[1:idx+1], out[:idx])
	out[0] = b
	return out, nil
}
