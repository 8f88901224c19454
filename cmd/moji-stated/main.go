package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"cryptomoji.dev/moji/config"
	"cryptomoji.dev/moji/internal/logging"
	"cryptomoji.dev/moji/internal/telemetry"
	"cryptomoji.dev/moji/state"
	"cryptomoji.dev/moji/state/grpcstate"
	"cryptomoji.dev/moji/state/stateregistry"

	_ "cryptomoji.dev/moji/state/filestore"
	_ "cryptomoji.dev/moji/state/sqlitestore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("moji-stated", flag.ContinueOnError)
	fs.SetOutput(errOut)
	configPath := fs.String("config", "", "moji TOML config file")
	listen := fs.String("listen", "", "listen address (default from config, "+config.DefaultListen+")")
	backend := fs.String("backend", "", "State backend name")
	listBackends := fs.Bool("list-backends", false, "List supported backends and exit")
	values := stateregistry.RegisterFlags(fs, stateregistry.UsageDaemon)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *listBackends {
		for _, b := range stateregistry.List(stateregistry.UsageDaemon) {
			if b.Description == "" {
				_, _ = fmt.Fprintf(out, "%s\n", b.Name)
				continue
			}
			_, _ = fmt.Fprintf(out, "%s\t%s\n", b.Name, b.Description)
		}
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	lc := logging.DefaultConfig(logging.ProfileRuntime)
	lc.Out = errOut
	if err := lc.Apply(cfg.LogLevel, cfg.LogFormat); err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	logger := logging.Init(lc, "moji-stated")

	var store state.Store
	var closeFn func() error
	if *configPath == "" && *backend != "" {
		store, closeFn, err = stateregistry.Open(*backend, stateregistry.UsageDaemon, values.Config(*backend))
	} else {
		preferred := cfg.State.Backend
		if *backend != "" {
			preferred = *backend
		}
		store, closeFn, err = cfg.State.Open(stateregistry.UsageDaemon, preferred)
	}
	if err != nil {
		logger.Error().Err(err).Msg("open state backend")
		return 2
	}
	defer closeFn()

	shutdown, err := telemetry.Setup(ctx, "moji-stated", telemetry.Config{Endpoint: cfg.Telemetry.OTLPEndpoint, Disabled: cfg.Telemetry.Disabled})
	if err != nil {
		logger.Error().Err(err).Msg("telemetry setup")
		return 1
	}
	defer func() { _ = shutdown(context.Background()) }()

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		logger.Error().Err(err).Msg("listen")
		return 1
	}
	if err := serve(ctx, lis, store, logger); err != nil {
		logger.Error().Err(err).Msg("serve")
		return 1
	}
	return 0
}

// serve runs the state service on lis until ctx ends, then drains in-flight
// calls.
func serve(ctx context.Context, lis net.Listener, store state.Store, logger zerolog.Logger) error {
	s := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	grpcstate.RegisterStateServer(s, &grpcstate.Server{Store: store})

	errc := make(chan error, 1)
	go func() { errc <- s.Serve(lis) }()
	logger.Info().Str("addr", lis.Addr().String()).Msg("moji-stated listening")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		s.GracefulStop()
		<-errc
		return nil
	case err := <-errc:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}
