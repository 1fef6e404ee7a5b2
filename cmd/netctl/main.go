// SPDX-License-Identifier: MIT

// Command netctl is an interactive operator console over a topology snapshot.
//
// Usage:
//
//	netctl [flags]
//
// Flags:
//
//	-config string     Configuration file path
//	-snapshot string   Snapshot to load (overrides topology.snapshot_path)
//	-verify            Run the consistency checker after every change
//
// The snapshot is energized after loading. "save" writes it back.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/katalvlaran/netmanager/cmd/netctl/console"
	"github.com/katalvlaran/netmanager/config"
	"github.com/katalvlaran/netmanager/snapshot"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "netctl:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath   = flag.String("config", "", "Configuration file path")
		snapshotPath = flag.String("snapshot", "", "Snapshot to load (overrides topology.snapshot_path)")
		verify       = flag.Bool("verify", false, "Run the consistency checker after every change")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	if *snapshotPath != "" {
		cfg.Topology.SnapshotPath = *snapshotPath
	}
	if *verify {
		cfg.Topology.Verify = true
	}
	logger := cfg.Log.Logger(os.Stderr)

	topo, err := snapshot.Load(cfg.Topology.SnapshotPath, cfg.TopologyOptions(logger)...)
	if err != nil {
		return err
	}
	topo.EnergizeNetwork()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return console.New(topo, cfg.Topology.SnapshotPath).Run(ctx)
}
