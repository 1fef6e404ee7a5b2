// SPDX-License-Identifier: MIT
//
// File: methods_edges.go
// Role: symmetric adjacency edits and edge enumeration.
//
// Invariant: n ∈ adjacent(m) ⇔ m ∈ adjacent(n) for every stored pair.

package topology

import (
	"cmp"
	"fmt"
	"slices"
	"time"
)

// Connect joins each pair of devices. Reconnecting an adjacent pair is a no-op.
// Energization is not recomputed.
//
// Errors:
//   - ErrLoopNotAllowed: an edge joins a device to itself.
//   - ErrDeviceNotFound: an endpoint is unknown.
//
// Nothing is connected when any edge is rejected.
func (t *Topology) Connect(edges ...Edge) error {
	start := time.Now()
	err := t.editEdges(edges, true)
	t.finish(OpConnect, start, len(edges), len(edges), err)

	return err
}

// Disconnect separates each pair of devices. Pairs that are not adjacent are skipped.
//
// Errors:
//   - ErrDeviceNotFound: an endpoint is unknown (nothing is disconnected).
func (t *Topology) Disconnect(edges ...Edge) error {
	start := time.Now()
	err := t.editEdges(edges, false)
	t.finish(OpDisconnect, start, len(edges), len(edges), err)

	return err
}

func (t *Topology) editEdges(edges []Edge, connect bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Stage 1: validate every endpoint.
	for _, e := range edges {
		if connect && e.A == e.B {
			return fmt.Errorf("%w: %d", ErrLoopNotAllowed, e.A)
		}
		if _, ok := t.devices[e.A]; !ok {
			return fmt.Errorf("%w: %d (edge %s)", ErrDeviceNotFound, e.A, e)
		}
		if _, ok := t.devices[e.B]; !ok {
			return fmt.Errorf("%w: %d (edge %s)", ErrDeviceNotFound, e.B, e)
		}
	}

	// Stage 2: mirror each edit on both endpoints.
	for _, e := range edges {
		a, b := t.devices[e.A], t.devices[e.B]
		if connect {
			a.adjacent[b.id] = struct{}{}
			b.adjacent[a.id] = struct{}{}
		} else {
			delete(a.adjacent, b.id)
			delete(b.adjacent, a.id)
		}
	}

	return nil
}

// Edges returns every adjacency once, in canonical form, sorted by (A, B).
// Complexity: O(V + E log E).
func (t *Topology) Edges() []Edge {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.edgesLocked()
}

func (t *Topology) edgesLocked() []Edge {
	out := make([]Edge, 0, len(t.devices))
	for id, n := range t.devices {
		for nid := range n.adjacent {
			if id < nid {
				out = append(out, Edge{A: id, B: nid})
			}
		}
	}
	slices.SortFunc(out, compareEdges)

	return out
}

// Segments returns the endpoint positions of every edge, ordered as Edges.
func (t *Topology) Segments() []Segment {
	t.mu.RLock()
	defer t.mu.RUnlock()

	edges := t.edgesLocked()
	out := make([]Segment, len(edges))
	for i, e := range edges {
		out[i] = Segment{Edge: e, From: t.devices[e.A].pos, To: t.devices[e.B].pos}
	}

	return out
}

func compareEdges(x, y Edge) int {
	if c := cmp.Compare(x.A, y.A); c != 0 {
		return c
	}

	return cmp.Compare(x.B, y.B)
}
