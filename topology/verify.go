// SPDX-License-Identifier: MIT
//
// File: verify.go
// Role: graph-wide consistency checker for the energization invariants.
//
// The checker reads state only through a view, so a proposed change can be
// validated as a hypothetical state before it is committed. It scans every
// adjacency and walks from every generator, which costs more than the
// incremental operations it checks; it runs only when verification is enabled
// or when Validate is called explicitly.

package topology

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// Invariant identifies one consistency rule.
type Invariant int

const (
	// InvariantOpenNotEnergized: a device that cannot conduct is never energized.
	InvariantOpenNotEnergized Invariant = iota + 1

	// InvariantGeneratorEnergized: every conducting generator is energized.
	InvariantGeneratorEnergized

	// InvariantConductingNeighbors: two adjacent conducting devices share one energized state.
	InvariantConductingNeighbors

	// InvariantSymmetricAdjacency: a is adjacent to b iff b is adjacent to a.
	InvariantSymmetricAdjacency

	// InvariantReachable: an energized device is reachable from a conducting
	// generator through conducting devices.
	InvariantReachable
)

// String returns a short name for the invariant.
func (i Invariant) String() string {
	switch i {
	case InvariantOpenNotEnergized:
		return "open-not-energized"
	case InvariantGeneratorEnergized:
		return "generator-energized"
	case InvariantConductingNeighbors:
		return "conducting-neighbors"
	case InvariantSymmetricAdjacency:
		return "symmetric-adjacency"
	case InvariantReachable:
		return "reachable"
	default:
		return fmt.Sprintf("invariant(%d)", int(i))
	}
}

// Violation is one failed assertion. Neighbor is zero for single-device rules.
type Violation struct {
	Invariant Invariant
	Device    uint64
	Neighbor  uint64
}

// String renders the violation for logs.
func (v Violation) String() string {
	if v.Invariant == InvariantConductingNeighbors || v.Invariant == InvariantSymmetricAdjacency {
		return fmt.Sprintf("%s: %d/%d", v.Invariant, v.Device, v.Neighbor)
	}

	return fmt.Sprintf("%s: %d", v.Invariant, v.Device)
}

// InvariantError reports every violation found by one check. In verification
// mode it is the panic value: it signals a defect in the engine, not bad input.
type InvariantError struct {
	Op         string
	Violations []Violation
}

// maxReported bounds how many violations Error spells out.
const maxReported = 8

// Error summarises the violations.
func (e *InvariantError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "topology: %d invariant violation(s) after %s", len(e.Violations), e.Op)
	for i, v := range e.Violations {
		if i == maxReported {
			fmt.Fprintf(&b, "; …%d more", len(e.Violations)-maxReported)
			break
		}
		b.WriteString("; ")
		b.WriteString(v.String())
	}

	return b.String()
}

// view supplies effective per-device state to the checker.
type view struct {
	canConduct func(n *node) bool
	energized  func(n *node) bool
}

// storedView reads the literal stored flags.
func (t *Topology) storedView() view {
	return view{
		canConduct: func(n *node) bool { return n.canConduct },
		energized:  func(n *node) bool { return n.energized.Load() },
	}
}

// checkLocked evaluates every invariant under v and returns the violations
// sorted by device, invariant, neighbour. Caller holds the lock in either mode.
//
// Complexity: O(V + E).
func (t *Topology) checkLocked(v view) []Violation {
	var out []Violation

	for id, n := range t.devices {
		conducts, energized := v.canConduct(n), v.energized(n)

		if !conducts && energized {
			out = append(out, Violation{Invariant: InvariantOpenNotEnergized, Device: id})
		}
		if n.isGenerator() && conducts && !energized {
			out = append(out, Violation{Invariant: InvariantGeneratorEnergized, Device: id})
		}

		for nid := range n.adjacent {
			nb, ok := t.devices[nid]
			if !ok {
				out = append(out, Violation{Invariant: InvariantSymmetricAdjacency, Device: id, Neighbor: nid})
				continue
			}
			if _, mirrored := nb.adjacent[id]; !mirrored {
				out = append(out, Violation{Invariant: InvariantSymmetricAdjacency, Device: id, Neighbor: nid})
			}
			if id < nid && conducts && v.canConduct(nb) && energized != v.energized(nb) {
				out = append(out, Violation{Invariant: InvariantConductingNeighbors, Device: id, Neighbor: nid})
			}
		}
	}

	sources := make([]*node, 0, len(t.generators))
	for _, g := range t.generators {
		if v.canConduct(g) {
			sources = append(sources, g)
		}
	}
	reached, _ := t.traverseDepthFirst(sources, func(_, next *node) bool { return v.canConduct(next) }, nil)
	for id, n := range t.devices {
		if _, ok := reached[id]; !ok && v.energized(n) {
			out = append(out, Violation{Invariant: InvariantReachable, Device: id})
		}
	}

	slices.SortFunc(out, func(a, b Violation) int {
		if c := cmp.Compare(a.Device, b.Device); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Invariant, b.Invariant); c != 0 {
			return c
		}

		return cmp.Compare(a.Neighbor, b.Neighbor)
	})

	return out
}

// mustBeConsistentLocked panics with *InvariantError when v violates any
// invariant. Caller holds the lock.
func (t *Topology) mustBeConsistentLocked(op string, v view) {
	violations := t.checkLocked(v)
	if len(violations) == 0 {
		return
	}
	err := &InvariantError{Op: op, Violations: violations}
	t.logger.Error("topology invariant violated",
		slog.String("op", op),
		slog.Int("violations", len(violations)),
		slog.Any("error", err))
	panic(err)
}

// Validate checks the stored state against every invariant and returns an
// *InvariantError listing the violations, or nil. It never panics, so tools
// can run it regardless of verification mode.
func (t *Topology) Validate() error {
	start := time.Now()
	violations := t.validate()
	var err error
	if len(violations) > 0 {
		err = &InvariantError{Op: OpValidate, Violations: violations}
	}
	t.finish(OpValidate, start, 0, len(violations), err)

	return err
}

func (t *Topology) validate() []Violation {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.checkLocked(t.storedView())
}
