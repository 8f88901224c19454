package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"cryptomoji.dev/moji/config"
	"cryptomoji.dev/moji/internal/logging"
	"cryptomoji.dev/moji/internal/telemetry"
	"cryptomoji.dev/moji/keys"
	"cryptomoji.dev/moji/state"
	"cryptomoji.dev/moji/state/stateregistry"
)

// stateFlags selects the state backend: a config file, a --backend with its
// per-backend flags, or both (--backend then picks the preferred backend of
// the file).
type stateFlags struct {
	configPath string
	backend    string
	values     stateregistry.FlagValues
}

func addStateFlags(fs *flag.FlagSet) *stateFlags {
	sf := &stateFlags{}
	fs.StringVar(&sf.configPath, "config", "", "moji TOML config file")
	fs.StringVar(&sf.backend, "backend", "", "State backend ("+strings.Join(stateregistry.Names(stateregistry.UsageCLI), ", ")+")")
	sf.values = stateregistry.RegisterFlags(fs, stateregistry.UsageCLI)
	return sf
}

// open returns the store, its closer and the effective process config.
func (sf *stateFlags) open() (state.Store, func() error, config.Config, error) {
	cfg, err := config.Load(sf.configPath)
	if err != nil {
		return nil, nil, config.Config{}, err
	}
	if sf.configPath == "" && sf.backend != "" {
		s, closeFn, err := stateregistry.Open(sf.backend, stateregistry.UsageCLI, sf.values.Config(sf.backend))
		return s, closeFn, cfg, err
	}
	preferred := cfg.State.Backend
	if sf.backend != "" {
		preferred = sf.backend
	}
	s, closeFn, err := cfg.State.Open(stateregistry.UsageCLI, preferred)
	return s, closeFn, cfg, err
}

func newLogger(cfg config.Config, errOut io.Writer) (zerolog.Logger, error) {
	lc := logging.DefaultConfig(logging.ProfileRuntime)
	lc.Level = zerolog.WarnLevel
	lc.Out = errOut
	if err := lc.Apply(cfg.LogLevel, cfg.LogFormat); err != nil {
		return zerolog.Nop(), err
	}
	return logging.New(lc, "moji"), nil
}

func startTelemetry(ctx context.Context, cfg config.Config) (func(context.Context) error, error) {
	return telemetry.Setup(ctx, "moji", telemetry.Config{
		Endpoint: cfg.Telemetry.OTLPEndpoint,
		Disabled: cfg.Telemetry.Disabled,
	})
}

type signerFlags struct {
	keysDir string
	name    string
	role    string
	seedHex string
	keyFile string
	alg     string
}

func addSignerFlags(fs *flag.FlagSet) *signerFlags {
	s := &signerFlags{}
	fs.StringVar(&s.keysDir, "keys-dir", "", "Key store directory (default ~/.moji/keys)")
	fs.StringVar(&s.name, "signer", "", "Signer key name in the key store")
	fs.StringVar(&s.role, "signer-role", "", "Optional role key under --signer")
	fs.StringVar(&s.seedHex, "seed-hex", "", "Signer seed as 64 hex chars")
	fs.StringVar(&s.keyFile, "key-file", "", "Path to a file holding a hex seed")
	fs.StringVar(&s.alg, "alg", "ed25519", "Signature algorithm (ed25519, dilithium3)")
	return s
}

func (s *signerFlags) set() bool {
	return s.name != "" || s.seedHex != "" || s.keyFile != ""
}

func (s *signerFlags) signer() (keys.Signer, error) {
	alg, err := keys.ParseAlgorithm(s.alg)
	if err != nil {
		return nil, err
	}
	ks, err := keys.Open(s.keysDir)
	if err != nil {
		return nil, err
	}
	seed, err := ks.LoadSeed(s.seedHex, s.name, s.role, s.keyFile)
	if err != nil {
		return nil, err
	}
	return keys.NewSigner(alg, seed)
}

func fail(errOut io.Writer, code int, format string, args ...any) int {
	fmt.Fprintf(errOut, format+"\n", args...)
	return code
}
