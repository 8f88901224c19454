// Package config loads moji process configuration from a TOML file with
// environment overrides.
//
// Example:
//
//	listen = "127.0.0.1:7412"
//	log_level = "debug"
//	log_format = "json"
//
//	[state]
//	backend = "sqlite"
//
//	[[state.backends]]
//	name = "sqlite"
//	config = { path = "/var/lib/moji/state.db" }
//
//	[telemetry]
//	otlp_endpoint = "http://localhost:4318"
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"cryptomoji.dev/moji/state/stateconfig"
)

const DefaultListen = "127.0.0.1:7412"

type Config struct {
	Listen    string
	LogLevel  string
	LogFormat string
	State     State
	Telemetry Telemetry
}

type State struct {
	// Backend names the preferred backend: the one that receives writes
	// under the "first" policy.
	Backend string
	stateconfig.Config
}

type Telemetry struct {
	OTLPEndpoint string
	Disabled     bool
}

type fileConfig struct {
	Listen    string `toml:"listen"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	State     struct {
		Backend     string                      `toml:"backend"`
		WritePolicy string                      `toml:"write_policy"`
		Backends    []stateconfig.BackendConfig `toml:"backends"`
	} `toml:"state"`
	Telemetry struct {
		OTLPEndpoint string `toml:"otlp_endpoint"`
		Disabled     bool   `toml:"disabled"`
	} `toml:"telemetry"`
}

// Env holds the environment overrides. Unset variables leave the file or
// default value in place.
type Env struct {
	Listen       string `env:"MOJI_LISTEN"`
	LogLevel     string `env:"MOJI_LOG_LEVEL"`
	LogFormat    string `env:"MOJI_LOG_FORMAT"`
	StateBackend string `env:"MOJI_STATE_BACKEND"`
	OTLPEndpoint string `env:"MOJI_OTEL_ENDPOINT"`
	OTELEnabled  *bool  `env:"MOJI_OTEL_ENABLED"`
}

// Default returns the configuration used when no file is given: an
// in-memory state backend listening on DefaultListen. Empty log settings
// defer to the logging profile of the binary.
func Default() Config {
	return Config{
		Listen: DefaultListen,
		State:  State{
			Backend: "memory",
			Config:  stateconfig.Config{
				Backends: []stateconfig.BackendConfig{{Name: "memory"}},
			},
		},
	}
}

// Load reads path (if non-empty) over Default and then applies the
// environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFile(path, cfg); err != nil {
			return Config{}, err
		}
	}
	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile overlays the keys defined in the TOML file at path onto base.
// Unknown keys are rejected.
func LoadFile(path string, base Config) (Config, error) {
	cfg := base
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("listen") {
		cfg.Listen = strings.TrimSpace(raw.Listen)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("log_format") {
		cfg.LogFormat = strings.TrimSpace(raw.LogFormat)
	}
	if meta.IsDefined("state", "backends") {
		cfg.State.Backends = raw.State.Backends
		// A file that lists backends without naming one prefers none.
		cfg.State.Backend = ""
	}
	if meta.IsDefined("state", "backend") {
		cfg.State.Backend = strings.TrimSpace(raw.State.Backend)
	}
	if meta.IsDefined("state", "write_policy") {
		cfg.State.WritePolicy = strings.TrimSpace(raw.State.WritePolicy)
	}
	if meta.IsDefined("telemetry", "otlp_endpoint") {
		cfg.Telemetry.OTLPEndpoint = strings.TrimSpace(raw.Telemetry.OTLPEndpoint)
	}
	if meta.IsDefined("telemetry", "disabled") {
		cfg.Telemetry.Disabled = raw.Telemetry.Disabled
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overlays MOJI_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	var e Env
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if e.Listen != "" {
		cfg.Listen = e.Listen
	}
	if e.LogLevel != "" {
		cfg.LogLevel = e.LogLevel
	}
	if e.LogFormat != "" {
		cfg.LogFormat = e.LogFormat
	}
	if e.StateBackend != "" {
		cfg.State.Backend = e.StateBackend
	}
	if e.OTLPEndpoint != "" {
		cfg.Telemetry.OTLPEndpoint = e.OTLPEndpoint
	}
	if e.OTELEnabled != nil {
		cfg.Telemetry.Disabled = !*e.OTELEnabled
	}
	return cfg.Validate()
}

func (c Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("config: listen address is required")
	}
	if err := c.State.Validate(); err != nil {
		return err
	}
	return nil
}
