// SPDX-License-Identifier: MIT
//
// File: trace.go
// Role: source trace, the shortest conducting path from a device to the
// generator feeding it.

package topology

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// TraceToSource returns the device IDs on a shortest conducting path from id
// to a conducting generator, starting with id and ending with the generator.
// A conducting generator traces to itself.
//
// Breadth-first over conducting devices with sorted neighbour order, so the
// path is deterministic for a fixed topology.
//
// Errors:
//   - ErrDeviceNotFound: id is unknown.
//   - ErrNotEnergized: the device is de-energized.
//   - ErrNoSource: the device is flagged energized but no generator is reachable.
//
// Complexity: O(V + E log Δ) where Δ is the maximum degree.
func (t *Topology) TraceToSource(id uint64) ([]uint64, error) {
	start := time.Now()
	path, err := t.traceToSource(id)
	t.finish(OpTraceSource, start, 1, len(path), err)

	return path, err
}

func (t *Topology) traceToSource(id uint64) ([]uint64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	origin, ok := t.devices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrDeviceNotFound, id)
	}
	if !origin.energized.Load() {
		return nil, fmt.Errorf("%w: %d", ErrNotEnergized, id)
	}

	parent := map[uint64]uint64{origin.id: origin.id}
	queue := []*node{origin}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.isGenerator() && cur.canConduct {
			return unwind(parent, cur.id), nil
		}

		for _, nid := range slices.Sorted(maps.Keys(cur.adjacent)) {
			if _, seen := parent[nid]; seen {
				continue
			}
			nb, ok := t.devices[nid]
			if !ok || !nb.canConduct {
				continue
			}
			parent[nid] = cur.id
			queue = append(queue, nb)
		}
	}

	return nil, fmt.Errorf("%w: %d", ErrNoSource, id)
}

// unwind follows parent links from the generator back to the origin and
// returns the path origin-first.
func unwind(parent map[uint64]uint64, source uint64) []uint64 {
	path := []uint64{source}
	for cur := source; parent[cur] != cur; {
		cur = parent[cur]
		path = append(path, cur)
	}
	slices.Reverse(path)

	return path
}
