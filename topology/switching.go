// SPDX-License-Identifier: MIT
//
// File: switching.go
// Role: incremental energization for opening and closing switching devices.
//
// Each direction has one impact computation shared by a read-locked preview
// (TestOpeningDevices, TestClosingDevices) and a write-locked commit
// (OpenDevices, CloseDevices), so a preview followed by applying its result
// is exactly the committed change.
//
// Results are sorted by ID. Unknown IDs reject the whole call before any
// state is touched; repeated IDs are ignored.

package topology

import (
	"errors"
	"time"
)

// openImpact is the outcome of a proposed opening.
type openImpact struct {
	opening  map[uint64]*node // requested devices that currently conduct
	impacted map[uint64]*node // devices that lose power
}

// openImpactLocked computes which devices lose power if ids stop conducting.
// Caller holds the lock in either mode.
//
// Algorithm:
//  1. Keep only requested devices that currently conduct.
//  2. Every energized one among them is certainly de-energized.
//  3. For each energized neighbour outside the opening set, walk its
//     sub-network through conducting, non-opening devices, stopping at the
//     first generator.
//  4. No generator found ⇒ the whole walk is de-energized.
//
// Walks that find a generator mark their visited set as still fed, and walks
// that do not mark theirs impacted; later neighbours landing in either set
// are skipped.
//
// Complexity: O(V + E) worst case, proportional to the affected region.
func (t *Topology) openImpactLocked(ids []uint64) (openImpact, error) {
	targets, err := t.resolveLocked(ids)
	if err != nil {
		return openImpact{}, err
	}

	imp := openImpact{
		opening:  make(map[uint64]*node, len(targets)),
		impacted: make(map[uint64]*node),
	}
	for _, n := range targets {
		if n.canConduct {
			imp.opening[n.id] = n
		}
	}

	fed := make(map[uint64]struct{})
	accept := func(_, next *node) bool {
		_, opening := imp.opening[next.id]

		return next.canConduct && !opening
	}
	findSource := func(n *node) error {
		if n.isGenerator() {
			return errHalt
		}

		return nil
	}

	for _, n := range imp.opening {
		if !n.energized.Load() {
			continue
		}
		imp.impacted[n.id] = n

		for nid := range n.adjacent {
			nb, ok := t.devices[nid]
			if !ok || !nb.energized.Load() {
				continue
			}
			if _, opening := imp.opening[nid]; opening {
				continue
			}
			if _, done := imp.impacted[nid]; done {
				continue
			}
			if _, done := fed[nid]; done {
				continue
			}

			island, err := t.traverseDepthFirst([]*node{nb}, accept, findSource)
			switch {
			case errors.Is(err, errHalt):
				for id := range island {
					fed[id] = struct{}{}
				}
			case err != nil:
				return openImpact{}, err
			default:
				for id, v := range island {
					imp.impacted[id] = v
				}
			}
		}
	}

	return imp, nil
}

// TestOpeningDevices reports the devices that would be de-energized if ids
// were opened, without changing anything. Records show the current state.
//
// Errors:
//   - ErrDeviceNotFound: an ID is unknown.
func (t *Topology) TestOpeningDevices(ids ...uint64) ([]Device, error) {
	start := time.Now()
	out, err := t.testOpening(ids)
	t.finish(OpTestOpening, start, len(ids), len(out), err)

	return out, err
}

func (t *Topology) testOpening(ids []uint64) ([]Device, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	imp, err := t.openImpactLocked(ids)
	if err != nil {
		return nil, err
	}

	return sortedRecords(imp.impacted), nil
}

// OpenDevices switches ids to non-conducting and de-energizes every device
// that loses power. It returns the de-energized devices in their new state.
// Opening an already open device is a no-op.
//
// Errors:
//   - ErrDeviceNotFound: an ID is unknown (nothing changes).
func (t *Topology) OpenDevices(ids ...uint64) ([]Device, error) {
	start := time.Now()
	out, err := t.openDevices(ids)
	t.finish(OpOpen, start, len(ids), len(out), err)

	return out, err
}

func (t *Topology) openDevices(ids []uint64) ([]Device, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	imp, err := t.openImpactLocked(ids)
	if err != nil {
		return nil, err
	}

	if t.verify {
		t.mustBeConsistentLocked(OpOpen, view{
			canConduct: func(n *node) bool {
				_, opening := imp.opening[n.id]

				return n.canConduct && !opening
			},
			energized: func(n *node) bool {
				_, lost := imp.impacted[n.id]

				return n.energized.Load() && !lost
			},
		})
	}

	for _, n := range imp.opening {
		n.canConduct = false
	}
	for _, n := range imp.impacted {
		n.energized.Store(false)
	}

	return sortedRecords(imp.impacted), nil
}

// closeImpact is the outcome of a proposed closing.
type closeImpact struct {
	closing   map[uint64]*node // requested devices that currently do not conduct
	energized map[uint64]*node // devices that gain power
}

// closeImpactLocked computes which devices gain power if ids start conducting.
// Caller holds the lock in either mode.
//
// Algorithm:
//  1. Keep only requested devices that do not currently conduct.
//  2. Seed from those that are generators or touch an energized neighbour.
//  3. Walk into devices that would conduct (already conducting, or being
//     closed) and are not yet energized; everything visited gains power.
//
// Complexity: O(V + E) worst case, proportional to the affected region.
func (t *Topology) closeImpactLocked(ids []uint64) (closeImpact, error) {
	targets, err := t.resolveLocked(ids)
	if err != nil {
		return closeImpact{}, err
	}

	imp := closeImpact{closing: make(map[uint64]*node, len(targets))}
	for _, n := range targets {
		if !n.canConduct {
			imp.closing[n.id] = n
		}
	}

	seeds := make([]*node, 0, len(imp.closing))
	for _, n := range imp.closing {
		if n.isGenerator() || t.hasEnergizedNeighborLocked(n) {
			seeds = append(seeds, n)
		}
	}

	imp.energized, err = t.traverseDepthFirst(seeds,
		func(_, next *node) bool {
			_, closing := imp.closing[next.id]

			return (next.canConduct || closing) && !next.energized.Load()
		},
		nil,
	)
	if err != nil {
		return closeImpact{}, err
	}

	return imp, nil
}

func (t *Topology) hasEnergizedNeighborLocked(n *node) bool {
	for nid := range n.adjacent {
		if nb, ok := t.devices[nid]; ok && nb.energized.Load() {
			return true
		}
	}

	return false
}

// TestClosingDevices reports the devices that would be energized if ids were
// closed, without changing anything. Records show the current state.
//
// Errors:
//   - ErrDeviceNotFound: an ID is unknown.
func (t *Topology) TestClosingDevices(ids ...uint64) ([]Device, error) {
	start := time.Now()
	out, err := t.testClosing(ids)
	t.finish(OpTestClosing, start, len(ids), len(out), err)

	return out, err
}

func (t *Topology) testClosing(ids []uint64) ([]Device, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	imp, err := t.closeImpactLocked(ids)
	if err != nil {
		return nil, err
	}

	return sortedRecords(imp.energized), nil
}

// CloseDevices switches ids to conducting and energizes every device that
// gains power. It returns the energized devices in their new state. A closed
// device with no energized neighbour that is not a generator conducts but
// stays de-energized.
//
// Errors:
//   - ErrDeviceNotFound: an ID is unknown (nothing changes).
func (t *Topology) CloseDevices(ids ...uint64) ([]Device, error) {
	start := time.Now()
	out, err := t.closeDevices(ids)
	t.finish(OpClose, start, len(ids), len(out), err)

	return out, err
}

func (t *Topology) closeDevices(ids []uint64) ([]Device, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	imp, err := t.closeImpactLocked(ids)
	if err != nil {
		return nil, err
	}

	if t.verify {
		t.mustBeConsistentLocked(OpClose, view{
			canConduct: func(n *node) bool {
				_, closing := imp.closing[n.id]

				return n.canConduct || closing
			},
			energized: func(n *node) bool {
				_, gained := imp.energized[n.id]

				return n.energized.Load() || gained
			},
		})
	}

	for _, n := range imp.closing {
		n.canConduct = true
	}
	for _, n := range imp.energized {
		n.energized.Store(true)
	}

	return sortedRecords(imp.energized), nil
}
