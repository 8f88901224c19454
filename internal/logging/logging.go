// Package logging builds the zerolog loggers used by the moji binaries.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

type Config struct {
	Level     zerolog.Level
	Format    string
	Timestamp bool
	Out       io.Writer
}

// DefaultConfig returns the settings for profile before any overrides.
func DefaultConfig(profile Profile) Config {
	switch profile {
	case ProfileTest:
		return Config{Level: zerolog.DebugLevel, Format: FormatConsole, Out: os.Stderr}
	default:
		return Config{Level: zerolog.InfoLevel, Format: FormatConsole, Timestamp: true, Out: os.Stderr}
	}
}

// Apply overrides level and format from their textual forms. Empty strings
// leave the current value in place.
func (c *Config) Apply(level, format string) error {
	if strings.TrimSpace(level) != "" {
		lvl, err := ParseLevel(level)
		if err != nil {
			return err
		}
		c.Level = lvl
	}
	if strings.TrimSpace(format) != "" {
		f, err := ParseFormat(format)
		if err != nil {
			return err
		}
		c.Format = f
	}
	return nil
}

func ParseLevel(raw string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled", "off", "none":
		return zerolog.Disabled, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", raw)
	}
}

func ParseFormat(raw string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(raw)); f {
	case FormatConsole, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown log format %q", raw)
	}
}

// New builds a logger tagged with app.
func New(cfg Config, app string) zerolog.Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format != FormatJSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: true}
	}
	ctx := zerolog.New(out).Level(cfg.Level).With().Str("app", app)
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}

// Init builds a logger with New and installs it as the global zerolog logger.
func Init(cfg Config, app string) zerolog.Logger {
	logger := New(cfg, app)
	log.Logger = logger
	return logger
}
