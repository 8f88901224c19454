package filestore

import (
	"fmt"

	"cryptomoji.dev/moji/state"
	"cryptomoji.dev/moji/state/stateregistry"
)

func init() {
	stateregistry.MustRegister(stateregistry.Backend{
		Name:        "file",
		Description: "Local filesystem state (one file per address)",
		Usage:       stateregistry.UsageCLI | stateregistry.UsageDaemon,
		Options: []stateregistry.Option{
			{Key: "dir", Help: "State directory"},
		},
		Open: func(cfg map[string]string) (state.Store, func() error, error) {
			if cfg["dir"] == "" {
				return nil, nil, fmt.Errorf("missing dir")
			}
			s, err := New(cfg["dir"])
			if err != nil {
				return nil, nil, err
			}
			return s, nil, nil
		},
	})
}
