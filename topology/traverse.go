// SPDX-License-Identifier: MIT
//
// File: traverse.go
// Role: the depth-first walk every energization algorithm is built on.

package topology

import "errors"

// errHalt is returned by a visitor to stop a walk early; traverseDepthFirst
// passes it through unchanged so callers can tell it from a real failure.
var errHalt = errors.New("topology: traversal halted")

// acceptFunc decides whether the walk may cross from current into next.
type acceptFunc func(current, next *node) bool

// visitFunc is called once per newly discovered node. A non-nil error stops
// the walk and is returned to the caller.
type visitFunc func(n *node) error

// traverseDepthFirst walks the graph from start using an explicit stack, so
// depth is bounded by heap rather than goroutine stack on long feeders.
//
// Each node is visited at most once. Visit order is some depth-first order
// consistent with accept; callers rely only on the visited set. The walk never
// mutates node state itself; visit may.
//
// Returns the visited set (partial when stopped early) and the visitor's error.
//
// Concurrency: caller holds the lock in either mode. Several walks may run
// at once under the write lock as long as visit only touches atomic fields.
//
// Complexity: O(V + E) over the reachable component.
func (t *Topology) traverseDepthFirst(start []*node, accept acceptFunc, visit visitFunc) (map[uint64]*node, error) {
	visited := make(map[uint64]*node)
	stack := make([]*node, len(start))
	copy(stack, start)

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, seen := visited[n.id]; seen {
			continue
		}
		visited[n.id] = n
		if visit != nil {
			if err := visit(n); err != nil {
				return visited, err
			}
		}

		for nid := range n.adjacent {
			if _, seen := visited[nid]; seen {
				continue
			}
			next, ok := t.devices[nid]
			if !ok {
				continue
			}
			if accept(n, next) {
				stack = append(stack, next)
			}
		}
	}

	return visited, nil
}
