// SPDX-License-Identifier: MIT
//
// File: energize.go
// Role: full, from-scratch energization of the network.
//
// Parallel safety:
//   - Phase 1 writes false to disjoint partitions of the device set.
//   - Phase 2 runs one walk per conducting generator. Walks only ever write
//     true, through atomic.Bool, and prune on already-energized devices; the
//     final energized set is the union of generator-reachable components
//     regardless of interleaving.
//   - Both phases complete (errgroup.Wait) before the write lock is released.
//   - Carrying any richer per-device state through these walks would need
//     real synchronization; monotonic booleans are what makes this safe.

package topology

import (
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// EnergizeNetwork recomputes every device's energized flag: all devices are
// de-energized, then everything reachable from a conducting generator
// through conducting devices is energized.
//
// Idempotent: two calls in a row leave identical state.
// Runs under the write lock; verified afterwards when verification is enabled.
//
// Complexity: O(V + E) work, spread over the configured parallelism.
func (t *Topology) EnergizeNetwork() {
	start := time.Now()
	energized, total := t.energizeNetwork()
	t.logger.Info("network energized",
		slog.Int("devices", total),
		slog.Int("energized", energized),
		slog.Duration("elapsed", time.Since(start)))
	t.finish(OpEnergize, start, total, energized, nil)
}

func (t *Topology) energizeNetwork() (energized, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.energizeLocked()
	if t.verify {
		t.mustBeConsistentLocked(OpEnergize, t.storedView())
	}
	for _, n := range t.devices {
		if n.energized.Load() {
			energized++
		}
	}

	return energized, len(t.devices)
}

// energizeLocked performs both phases. Caller holds the write lock.
func (t *Topology) energizeLocked() {
	workers := t.workers()

	nodes := make([]*node, 0, len(t.devices))
	for _, n := range t.devices {
		nodes = append(nodes, n)
	}

	// Phase 1: de-energize everything, one partition per worker.
	var reset errgroup.Group
	if len(nodes) > 0 {
		chunk := (len(nodes) + workers - 1) / workers
		for lo := 0; lo < len(nodes); lo += chunk {
			part := nodes[lo:min(lo+chunk, len(nodes))]
			reset.Go(func() error {
				for _, n := range part {
					n.energized.Store(false)
				}

				return nil
			})
		}
	}
	_ = reset.Wait()

	// Phase 2: one walk per conducting generator.
	var feed errgroup.Group
	feed.SetLimit(workers)
	for _, g := range t.generators {
		if !g.canConduct {
			continue
		}
		feed.Go(func() error {
			_, err := t.traverseDepthFirst(
				[]*node{g},
				func(_, next *node) bool { return next.canConduct && !next.energized.Load() },
				func(n *node) error {
					n.energized.Store(true)

					return nil
				},
			)

			return err
		})
	}
	_ = feed.Wait()
}
