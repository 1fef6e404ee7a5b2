// SPDX-License-Identifier: MIT

// Command netmanager is the network manager service. It loads a topology
// snapshot, energizes it and serves the HTTP API with Prometheus metrics.
//
// Usage:
//
//	netmanager [flags]
//
// Flags:
//
//	-config string   Configuration file path
//	-listen string   Listen address (overrides server.listen)
//	-persist         Write the topology back to its snapshot on shutdown
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/katalvlaran/netmanager/api"
	"github.com/katalvlaran/netmanager/config"
	"github.com/katalvlaran/netmanager/metrics"
	"github.com/katalvlaran/netmanager/snapshot"
	"github.com/katalvlaran/netmanager/topology"
)

const readHeaderTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "netmanager:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "Configuration file path")
		listen     = flag.String("listen", "", "Listen address (overrides server.listen)")
		persist    = flag.Bool("persist", false, "Write the topology back to its snapshot on shutdown")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	if *listen != "" {
		cfg.Server.Listen = *listen
	}
	logger := cfg.Log.Logger(os.Stderr)
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := append(cfg.TopologyOptions(logger), topology.WithObserver(metrics.NewObserver(reg)))
	topo, err := snapshot.Load(cfg.Topology.SnapshotPath, opts...)
	if err != nil {
		return err
	}
	topo.EnergizeNetwork()
	reg.MustRegister(metrics.NewCollector(topo))

	srv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           api.New(topo, api.WithLogger(logger), api.WithGatherer(reg)),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", srv.Addr), slog.Bool("verify", topo.Verifying()))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if *persist {
		if err := snapshot.Save(cfg.Topology.SnapshotPath, topo); err != nil {
			return err
		}
		logger.Info("snapshot written", slog.String("path", cfg.Topology.SnapshotPath))
	}

	return nil
}
