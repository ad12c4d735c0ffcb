// Command zrpc-server starts a zrpc Server, LoadBalancer, or MultiServer
// according to a YAML config, with cobra flags able to override individual
// fields — the flags-plus-config-file shape cowsql-go-cowsql's
// cmd/cowsql-demo uses.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"zrpc/callback"
	"zrpc/codec"
	"zrpc/config"
	"zrpc/discovery"
	"zrpc/hooks"
	"zrpc/loadbalancer"
	"zrpc/multiserver"
	"zrpc/registry"
	"zrpc/server"
	"zrpc/zrpclog"
)

func main() {
	var configPath string
	var frontend string
	var topology string
	var nWorkers int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "zrpc-server",
		Short: "Run a zrpc server, load balancer, or multi-server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if frontend != "" {
				cfg.Frontend = frontend
			}
			if topology != "" {
				cfg.Topology = config.Topology(topology)
			}
			if nWorkers > 0 {
				cfg.NWorkers = nWorkers
			}
			if verbose {
				cfg.Verbose = true
			}

			base := logrus.New()
			if cfg.Verbose {
				base.SetLevel(logrus.DebugLevel)
			}
			logger := zrpclog.Logrus{Logger: base}

			return run(cfg, logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	flags.StringVarP(&frontend, "frontend", "f", "", "override the listen address")
	flags.StringVarP(&topology, "topology", "t", "", "override the topology (direct|proxy|broker)")
	flags.IntVarP(&nWorkers, "workers", "w", 0, "override the worker count (broker topology)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger zrpclog.Logger) error {
	reg := registry.New(logger)
	registerDemoHandlers(reg)

	var activeCodec codec.Codec
	if cfg.Codec == config.CodecJSON {
		activeCodec = codec.JSONCodec{}
	} else {
		activeCodec = codec.MsgpackCodec{}
	}

	var hookChain []server.Hook
	hookChain = append(hookChain, hooks.Logging(logger))
	if cfg.RateLimit.Enabled {
		hookChain = append(hookChain, hooks.RateLimit(cfg.RateLimit.Rate, cfg.RateLimit.Burst))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if cfg.Discovery.Enabled {
		announcer, err := discovery.NewAnnouncer(cfg.Discovery.Endpoints)
		if err != nil {
			return err
		}
		defer announcer.Close()
		if err := announcer.Announce(ctx, cfg.Discovery.Service, discovery.Instance{Addr: cfg.Frontend}, cfg.Discovery.TTL); err != nil {
			return err
		}
	}

	ready := callback.New()

	switch cfg.Topology {
	case config.TopologyBroker:
		ms := &multiserver.MultiServer{
			Frontend: cfg.Frontend,
			NWorkers: cfg.NWorkers,
			Registry: reg,
			Codec:    activeCodec,
			Logger:   logger,
			Hooks:    hookChain,
		}
		go logReady(ctx, ready, logger, cfg.Frontend)
		return ms.Run(ctx, ready)

	case config.TopologyProxy:
		lb := &loadbalancer.LoadBalancer{
			Frontend: cfg.Frontend,
			Output:   cfg.Workers,
		}
		go logReady(ctx, ready, logger, cfg.Frontend)
		return lb.Run(ctx, ready)

	default:
		srv := &server.Server{
			Addr:     cfg.Frontend,
			Registry: reg,
			Codec:    activeCodec,
			Logger:   logger,
			Hooks:    hookChain,
		}
		go logReady(ctx, ready, logger, cfg.Frontend)
		return srv.Run(ctx, 0, ready)
	}
}

// logReady waits for the component's ready signal purely to log it;
// startup-failure propagation happens through Run's own return value.
func logReady(ctx context.Context, ready callback.Waiter, logger zrpclog.Logger, addr string) {
	if _, err := ready.Wait(ctx); err != nil {
		logger.Errorf("zrpc-server: failed to start on %s: %v", addr, err)
		return
	}
	logger.Infof("zrpc-server: listening on %s", addr)
}

// registerDemoHandlers registers a couple of sample methods so the binary
// is immediately callable; real deployments register their own handlers by
// importing the registry package directly instead of running this binary.
func registerDemoHandlers(reg *registry.Registry) {
	reg.Register("add", func(a, b int) int { return a + b })
	reg.Register("echo", func(s string) string { return s })
	reg.Register("ping", func() string { return "pong" })
	reg.Register("version", func() string { return "zrpc-server" })
}
