package grpcstate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cryptomoji.dev/moji/state"
	"cryptomoji.dev/moji/state/stateregistry"
)

func init() {
	stateregistry.MustRegister(stateregistry.Backend{
		Name:        "grpc",
		Description: "gRPC state client (talks to a moji-stated daemon)",
		Usage:       stateregistry.UsageCLI,
		Options: []stateregistry.Option{
			{Key: "target", Help: "gRPC target host:port"},
			{Key: "timeout", Default: "0s", Help: "Per-RPC timeout"},
			{Key: "max-msg-bytes", Default: "0", Help: "Max gRPC message size in bytes (send+recv); 0 uses grpc defaults"},
		},
		Open: func(cfg map[string]string) (state.Store, func() error, error) {
			target := strings.TrimSpace(cfg["target"])
			if target == "" {
				return nil, nil, fmt.Errorf("missing target")
			}
			timeout, err := time.ParseDuration(cfg["timeout"])
			if err != nil {
				return nil, nil, fmt.Errorf("timeout: %w", err)
			}
			maxMsg, err := strconv.Atoi(cfg["max-msg-bytes"])
			if err != nil {
				return nil, nil, fmt.Errorf("max-msg-bytes: %w", err)
			}
			client, err := Dial(target, DialOptions{MaxMsgBytes: maxMsg})
			if err != nil {
				return nil, nil, err
			}
			client.Timeout = timeout
			return client, client.Close, nil
		},
	})
}
