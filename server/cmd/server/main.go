package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/automoto/transformsync/config"
	"github.com/automoto/transformsync/network"
	"github.com/automoto/transformsync/server/core"
	"github.com/automoto/transformsync/shared/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"k8s.io/utils/clock"
)

func main() {
	configPath := pflag.String("config", "", "YAML config file")
	port := pflag.Uint("port", config.Server.Port, "Server port")
	name := pflag.String("name", config.Server.Name, "Server display name")
	objects := pflag.Int("objects", config.Server.Objects, "Number of demo objects to spawn")
	metricsAddr := pflag.String("metrics-addr", config.Server.MetricsAddr, "Address serving /metrics (empty disables)")
	verbosity := pflag.IntP("verbosity", "v", 0, "Log verbosity (1 debug, 2 trace)")
	dev := pflag.Bool("dev", false, "Human-readable development logging")
	config.BindSyncFlags(pflag.CommandLine, &config.Sync)
	pflag.Parse()

	logger, flush, err := logging.New(*verbosity, *dev)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer flush()

	fail := func(err error, msg string, kv ...any) {
		logger.Error(err, msg, kv...)
		flush()
		os.Exit(1)
	}

	if *configPath != "" {
		if err := config.Load(*configPath); err != nil {
			fail(err, "Failed to load config", "path", *configPath)
		}
		if err := config.ReapplySyncFlags(os.Args[1:]); err != nil {
			fail(err, "Invalid sync flags")
		}
	}
	if err := config.Sync.Validate(); err != nil {
		fail(err, "Invalid sync config")
	}

	srvCfg := config.Server
	if pflag.CommandLine.Changed("port") {
		srvCfg.Port = *port
	}
	if pflag.CommandLine.Changed("name") {
		srvCfg.Name = *name
	}
	if pflag.CommandLine.Changed("objects") {
		srvCfg.Objects = *objects
	}
	if pflag.CommandLine.Changed("metrics-addr") {
		srvCfg.MetricsAddr = *metricsAddr
	}

	if srvCfg.MetricsAddr != "" {
		network.RegisterMetrics(prometheus.DefaultRegisterer)
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(srvCfg.MetricsAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error(err, "Metrics listener stopped", "addr", srvCfg.MetricsAddr)
			}
		}()
	}

	server := core.NewServer(config.Sync, srvCfg, config.Motion, clock.RealClock{}, logger)
	ids := server.SpawnDemoObjects(srvCfg.Objects)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutting down server")
		server.Stop()
		flush()
		os.Exit(0)
	}()

	logger.Info("Starting transform sync server",
		"name", srvCfg.Name, "port", srvCfg.Port, "tickRate", config.Sync.TickRate,
		"objects", ids, "metrics", srvCfg.MetricsAddr)
	if err := server.Start(); err != nil {
		fail(err, "Server error")
	}
}
