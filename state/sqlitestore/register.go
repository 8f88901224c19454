package sqlitestore

import (
	"fmt"

	"cryptomoji.dev/moji/state"
	"cryptomoji.dev/moji/state/stateregistry"
)

func init() {
	stateregistry.MustRegister(stateregistry.Backend{
		Name:        "sqlite",
		Description: "SQLite database file",
		Usage:       stateregistry.UsageCLI | stateregistry.UsageDaemon,
		Options: []stateregistry.Option{
			{Key: "path", Help: "SQLite database path (\":memory:\" for a private in-memory database)"},
		},
		Open: func(cfg map[string]string) (state.Store, func() error, error) {
			if cfg["path"] == "" {
				return nil, nil, fmt.Errorf("missing path")
			}
			s, err := Open(cfg["path"])
			if err != nil {
				return nil, nil, err
			}
			return s, s.Close, nil
		},
	})
}
