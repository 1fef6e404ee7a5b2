// SPDX-License-Identifier: MIT
// Package: netmanager/fixture
//
// api.go - entry point for deterministic synthetic network fixtures.
//
// Design contract:
//   - One orchestrator: Build(topts, fopts, cons...). Resolves config, runs cons
//     in order against a shared plan, then loads the plan into a Topology.
//   - Every constructor builds an independent component (its own sources);
//     identifiers are allocated sequentially from WithFirstID.
//   - Determinism: same inputs/options/seed and constructor order ⇒ identical
//     topologies and layouts.
//   - Constructors never panic; option constructors panic on meaningless input.

package fixture

import (
	"fmt"

	"github.com/katalvlaran/netmanager/topology"
)

// Constructor appends one network component to the plan.
type Constructor func(p *plan, cfg config) error

// Layout names the identifiers a Build produced, by role, in allocation order.
type Layout struct {
	Generators    []uint64
	Switches      []uint64
	Conductors    []uint64
	ServicePoints []uint64
}

// Build resolves fixture options, runs every constructor in order and loads
// the result with topology options topts. The network is energized before it
// is returned unless WithoutEnergize is given.
//
// Errors: constructor errors wrapped as "Build: %w"; topology load errors.
func Build(topts []topology.Option, fopts []Option, cons ...Constructor) (*topology.Topology, *Layout, error) {
	cfg := newConfig(fopts...)
	p := newPlan(cfg.firstID)

	for i, fn := range cons {
		if fn == nil {
			return nil, nil, fmt.Errorf("Build: nil constructor at index %d: %w", i, ErrConstructFailed)
		}
		if err := fn(p, cfg); err != nil {
			return nil, nil, fmt.Errorf("Build: %w", err)
		}
	}

	t, err := topology.FromRecords(p.records(), topts...)
	if err != nil {
		return nil, nil, fmt.Errorf("Build: %w", err)
	}
	if cfg.energize {
		t.EnergizeNetwork()
	}

	return t, &p.layout, nil
}
