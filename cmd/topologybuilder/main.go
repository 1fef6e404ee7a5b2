// SPDX-License-Identifier: MIT

// Command topologybuilder builds a topology snapshot from the utility
// connectivity database, or from a synthetic generator for testing.
//
// Usage:
//
//	topologybuilder [flags]
//
// Flags:
//
//	-config string     Configuration file path
//	-database string   SQLite DSN (overrides loader.database)
//	-out string        Snapshot to write (overrides topology.snapshot_path)
//	-synthetic int     Generate a random network of n switches instead of loading
//	-seed int          Seed for -synthetic (default 1)
//
// Examples:
//
//	# Build from the connectivity database named in the config
//	topologybuilder -config /etc/netmanager.yaml
//
//	# Write a 5000-switch synthetic network
//	topologybuilder -synthetic 5000 -out /tmp/net.cbor
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/katalvlaran/netmanager/config"
	"github.com/katalvlaran/netmanager/fixture"
	"github.com/katalvlaran/netmanager/loader"
	"github.com/katalvlaran/netmanager/snapshot"
	"github.com/katalvlaran/netmanager/topology"
)

const (
	syntheticEdgeFactor = 2.5 // expected degree of a synthetic switch
	syntheticOpenProb   = 0.05
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "topologybuilder:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "Configuration file path")
		database   = flag.String("database", "", "SQLite DSN (overrides loader.database)")
		out        = flag.String("out", "", "Snapshot to write (overrides topology.snapshot_path)")
		synthetic  = flag.Int("synthetic", 0, "Generate a random network of n switches instead of loading")
		seed       = flag.Int64("seed", 1, "Seed for -synthetic")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	if *database != "" {
		cfg.Loader.Database = *database
	}
	if *out != "" {
		cfg.Topology.SnapshotPath = *out
	}
	logger := cfg.Log.Logger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	var (
		topo *topology.Topology
		err  error
	)
	if *synthetic > 0 {
		topo, err = buildSynthetic(cfg, logger, *synthetic, *seed)
	} else {
		topo, err = buildFromDatabase(ctx, cfg, logger)
	}
	if err != nil {
		return err
	}

	if err := snapshot.Save(cfg.Topology.SnapshotPath, topo); err != nil {
		return err
	}
	s := topo.Stats()
	logger.Info("snapshot written",
		slog.String("path", cfg.Topology.SnapshotPath),
		slog.Int("devices", s.Devices),
		slog.Int("edges", s.Edges),
		slog.Int("energized", s.Energized),
		slog.Duration("elapsed", time.Since(start)))

	return nil
}

func buildFromDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*topology.Topology, error) {
	logger.Info("loading topology", slog.String("database", cfg.Loader.Database))

	db, err := loader.Open(ctx, cfg.Loader.Database)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rec, err := loader.New(db, cfg.LoaderOptions(logger)...).Load(ctx)
	if err != nil {
		return nil, err
	}
	topo, err := topology.FromRecords(rec, cfg.TopologyOptions(logger)...)
	if err != nil {
		return nil, err
	}
	topo.EnergizeNetwork()

	return topo, nil
}

func buildSynthetic(cfg *config.Config, logger *slog.Logger, n int, seed int64) (*topology.Topology, error) {
	logger.Info("generating synthetic topology", slog.Int("switches", n), slog.Int64("seed", seed))

	p := syntheticEdgeFactor / float64(n)
	if p > 1 {
		p = 1
	}
	topo, _, err := fixture.Build(
		cfg.TopologyOptions(logger),
		[]fixture.Option{fixture.WithSeed(seed), fixture.WithOpenProbability(syntheticOpenProb)},
		fixture.Random(n, p),
	)

	return topo, err
}
